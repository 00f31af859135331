// Package interleave orders multi-source results so that several sources are
// visible at the top of a feed even when one source dominates by volume or
// recency.
package interleave

import (
	"slices"

	"bayarea-dashboard/internal/domain/entity"
)

// DefaultHeadSize is the number of distinct sources guaranteed a slot at the
// top of a diverse feed.
const DefaultHeadSize = 4

// Diverse builds the output as head followed by tail.
//
// The head holds the most recent item of each of the first k sources (in the
// given priority order) that returned any items, sorted newest first. The
// tail holds every other item, also newest first. Failed or empty sources
// are skipped, so the head is shorter than k when fewer sources have data.
// Items are never duplicated or padded.
func Diverse(results []entity.SourceResult, k int) []entity.AggregatedItem {
	if k < 0 {
		k = 0
	}

	var head, tail []entity.AggregatedItem
	for _, r := range results {
		if !r.OK || len(r.Items) == 0 {
			continue
		}

		items := r.Aggregate()
		sortByRecency(items)

		if len(head) < k {
			head = append(head, items[0])
			tail = append(tail, items[1:]...)
			continue
		}
		tail = append(tail, items...)
	}

	sortByRecency(head)
	sortByRecency(tail)

	out := make([]entity.AggregatedItem, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// sortByRecency sorts newest first, keeping input order among equal times.
func sortByRecency(items []entity.AggregatedItem) {
	slices.SortStableFunc(items, func(a, b entity.AggregatedItem) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}
