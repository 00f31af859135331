// Package relevance narrows a noisy community feed to the few posts that
// are on topic, recent or popular enough, and unique.
package relevance

import (
	"slices"
	"strings"
	"time"

	"bayarea-dashboard/internal/domain/entity"
)

// Filter applies the keyword, engagement, dedup and ranking stages.
// It is immutable and safe for concurrent use.
type Filter struct {
	cfg   Config
	latin []string
}

// NewFilter returns a Filter for cfg.
func NewFilter(cfg Config) *Filter {
	latin := make([]string, 0, len(cfg.Terms.Latin))
	for _, term := range cfg.Terms.Latin {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			latin = append(latin, t)
		}
	}
	return &Filter{cfg: cfg, latin: latin}
}

// Limit returns the configured output size.
func (f *Filter) Limit() int { return f.cfg.Limit }

// Apply returns at most Limit items from items, best first.
//
// Stages, in order:
//  1. keep items whose title or summary mentions a configured term
//  2. keep items younger than FreshWindow; older ones must clear the Recent
//     bar up to RecentWindow inclusive and the Old bar beyond it
//  3. drop items whose trimmed, lower-cased title was already kept
//  4. rank items within RecentWindow ahead of older ones, then by
//     replies + heat descending
//  5. truncate
//
// Each returned item carries replies + heat in Score.
func (f *Filter) Apply(items []entity.AggregatedItem, now time.Time) []entity.AggregatedItem {
	type candidate struct {
		item   entity.AggregatedItem
		recent bool
	}

	seen := make(map[string]struct{}, len(items))
	kept := make([]candidate, 0, len(items))

	for _, it := range items {
		if !f.Matches(it.RawItem) {
			continue
		}

		age := now.Sub(it.PublishedAt)
		if !f.accept(age, it.Engagement) {
			continue
		}

		key := normalizeTitle(it.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		it.Score = float64(it.Engagement.Replies + it.Engagement.Heat)
		kept = append(kept, candidate{item: it, recent: age <= f.cfg.RecentWindow})
	}

	slices.SortStableFunc(kept, func(a, b candidate) int {
		if a.recent != b.recent {
			if a.recent {
				return -1
			}
			return 1
		}
		switch {
		case a.item.Score > b.item.Score:
			return -1
		case a.item.Score < b.item.Score:
			return 1
		}
		return 0
	})

	n := min(len(kept), f.cfg.Limit)
	out := make([]entity.AggregatedItem, n)
	for i := range n {
		out[i] = kept[i].item
	}
	return out
}

// Matches reports whether the item's title or summary mentions a term.
func (f *Filter) Matches(it entity.RawItem) bool {
	text := it.Title + "\n" + it.Summary
	for _, term := range f.cfg.Terms.CJK {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	lower := strings.ToLower(text)
	for _, term := range f.latin {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func (f *Filter) accept(age time.Duration, e entity.Engagement) bool {
	switch {
	case age < f.cfg.FreshWindow:
		return true
	case age <= f.cfg.RecentWindow:
		return f.cfg.Recent.Met(e)
	default:
		return f.cfg.Old.Met(e)
	}
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Pad tops items up to n with entries from previous, skipping any whose ID
// is already present. The result may still be shorter than n.
func Pad(items, previous []entity.AggregatedItem, n int) []entity.AggregatedItem {
	if len(items) >= n || len(previous) == 0 {
		return items
	}

	have := make(map[string]struct{}, n)
	for _, it := range items {
		have[it.ID] = struct{}{}
	}

	out := slices.Clone(items)
	for _, it := range previous {
		if len(out) >= n {
			break
		}
		if _, dup := have[it.ID]; dup {
			continue
		}
		have[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
