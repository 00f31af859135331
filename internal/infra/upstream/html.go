package upstream

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bayarea-dashboard/internal/config"
	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/circuitbreaker"

	"github.com/PuerkitoBio/goquery"
)

// HTMLScraper extracts items from listing pages using CSS selectors.
type HTMLScraper struct {
	http *getter
}

// NewHTMLScraper returns an HTMLScraper. Scrapers fail in runs when a page
// layout changes, so they should get their own, more patient breakers.
func NewHTMLScraper(client *http.Client, userAgent string, breakers *circuitbreaker.Set) *HTMLScraper {
	return &HTMLScraper{http: newGetter(client, userAgent, breakers)}
}

// Fetch downloads spec.URL and extracts one item per spec.HTML.Item match.
func (s *HTMLScraper) Fetch(ctx context.Context, spec config.SourceSpec) ([]entity.RawItem, error) {
	if spec.HTML == nil {
		return nil, fmt.Errorf("source %s has no html selectors: %w", spec.ID, entity.ErrConfig)
	}
	sel := *spec.HTML

	body, err := s.http.get(ctx, spec.URL, spec.Headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w: %v", redact(spec.URL), entity.ErrParse, err)
	}

	base := sel.BaseURL
	if base == "" {
		base = spec.URL
	}

	var items []entity.RawItem
	doc.Find(sel.Item).EachWithBreak(func(i int, el *goquery.Selection) bool {
		title := strings.TrimSpace(el.Find(sel.Title).First().Text())
		if title == "" {
			slog.Debug("skipping item with empty title", slog.String("source", spec.ID), slog.Int("index", i))
			return true
		}

		link := ""
		if sel.Link != "" {
			if href, ok := el.Find(sel.Link).First().Attr("href"); ok {
				link = absoluteURL(base, strings.TrimSpace(href))
			}
		}

		item := entity.RawItem{
			ID:          link,
			Title:       title,
			URL:         link,
			PublishedAt: scrapeDate(el, sel),
		}
		if item.ID == "" {
			item.ID = spec.ID + ":" + title
		}
		if sel.Summary != "" {
			item.Summary = truncateRunes(strings.TrimSpace(el.Find(sel.Summary).First().Text()), maxSummaryRunes)
		}
		if sel.Replies != "" {
			item.Engagement.Replies = parseCount(el.Find(sel.Replies).First().Text())
		}
		if sel.Views != "" {
			item.Engagement.Views = parseCount(el.Find(sel.Views).First().Text())
		}

		items = append(items, item)
		return spec.MaxItems <= 0 || len(items) < spec.MaxItems
	})

	if len(items) == 0 {
		return nil, fmt.Errorf("no items matched %q on %s: %w", sel.Item, redact(spec.URL), entity.ErrParse)
	}
	return items, nil
}

func scrapeDate(el *goquery.Selection, sel config.HTMLSpec) time.Time {
	if sel.Date == "" {
		return time.Time{}
	}
	node := el.Find(sel.Date).First()
	raw := strings.TrimSpace(node.Text())
	if sel.DateAttr != "" {
		raw, _ = node.Attr(sel.DateAttr)
	}
	return parseDate(raw, sel.DateLayout)
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate tries layout first and then common layouts. An unparseable
// date yields the zero time, which ranks the item as oldest.
func parseDate(raw, layout string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if layout != "" {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, raw); err == nil {
			return t.UTC()
		}
	}
	slog.Debug("unparseable date", slog.String("value", raw), slog.String("layout", layout))
	return time.Time{}
}

// parseCount reads counters such as "1,024", "3.2k" or "15 replies".
func parseCount(raw string) int {
	raw = strings.ToLower(strings.TrimSpace(raw))
	end := 0
	for end < len(raw) && (raw[end] >= '0' && raw[end] <= '9' || raw[end] == ',' || raw[end] == '.') {
		end++
	}
	num := strings.ReplaceAll(raw[:end], ",", "")
	if num == "" {
		return 0
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	unit := ""
	if fields := strings.Fields(raw[end:]); len(fields) > 0 {
		unit = fields[0]
	}
	switch unit {
	case "k", "千":
		f *= 1_000
	case "w", "万":
		f *= 10_000
	case "m":
		f *= 1_000_000
	}
	return int(f)
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// plainText strips markup from s and truncates it.
func plainText(s string, max int) string {
	if !strings.ContainsRune(s, '<') {
		return truncateRunes(strings.TrimSpace(s), max)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return truncateRunes(strings.TrimSpace(s), max)
	}
	return truncateRunes(strings.Join(strings.Fields(doc.Text()), " "), max)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
