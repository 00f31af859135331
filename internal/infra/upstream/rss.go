package upstream

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bayarea-dashboard/internal/config"
	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/circuitbreaker"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const maxSummaryRunes = 280

// RSSFetcher reads RSS and Atom feeds, including YouTube channel feeds.
type RSSFetcher struct {
	http *getter
}

// NewRSSFetcher returns an RSSFetcher. breakers may be shared with other
// adapters so that one host has one breaker.
func NewRSSFetcher(client *http.Client, userAgent string, breakers *circuitbreaker.Set) *RSSFetcher {
	return &RSSFetcher{http: newGetter(client, userAgent, breakers)}
}

// Fetch downloads and parses the feed described by spec.
func (f *RSSFetcher) Fetch(ctx context.Context, spec config.SourceSpec) ([]entity.RawItem, error) {
	body, err := f.http.get(ctx, spec.URL, spec.Headers)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w: %v", redact(spec.URL), entity.ErrParse, err)
	}

	items := make([]entity.RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		items = append(items, rssItem(it))
		if spec.MaxItems > 0 && len(items) >= spec.MaxItems {
			break
		}
	}
	return items, nil
}

func rssItem(it *gofeed.Item) entity.RawItem {
	var published time.Time
	switch {
	case it.PublishedParsed != nil:
		published = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		published = *it.UpdatedParsed
	}

	id := it.GUID
	if id == "" {
		id = it.Link
	}

	summary := it.Description
	if summary == "" {
		summary = it.Content
	}

	return entity.RawItem{
		ID:          id,
		Title:       strings.TrimSpace(it.Title),
		URL:         it.Link,
		Summary:     plainText(summary, maxSummaryRunes),
		PublishedAt: published.UTC(),
		Engagement: entity.Engagement{
			Replies: slashComments(it.Extensions),
			Views:   mediaViews(it.Extensions),
		},
	}
}

// slashComments reads <slash:comments>, used by forum and blog feeds.
func slashComments(exts ext.Extensions) int {
	for _, e := range exts["slash"]["comments"] {
		if n, err := strconv.Atoi(strings.TrimSpace(e.Value)); err == nil {
			return n
		}
	}
	return 0
}

// mediaViews reads media:group/media:community/media:statistics@views as
// published in YouTube channel feeds.
func mediaViews(exts ext.Extensions) int {
	for _, group := range exts["media"]["group"] {
		for _, community := range group.Children["community"] {
			for _, stats := range community.Children["statistics"] {
				if n, err := strconv.Atoi(stats.Attrs["views"]); err == nil {
					return n
				}
			}
		}
	}
	return 0
}
