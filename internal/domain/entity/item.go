package entity

import "time"

// Engagement holds the optional interaction counters reported by an upstream.
// A zero value means the upstream did not report the metric.
type Engagement struct {
	Replies int `json:"replies,omitempty"`
	Views   int `json:"views,omitempty"`
	Heat    int `json:"heat,omitempty"`
}

// RawItem is a single entry produced by an upstream adapter.
// It is treated as immutable once returned from a fetch.
type RawItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	Engagement  Engagement `json:"engagement"`
}

// AggregatedItem is a RawItem annotated with the label of the source it came
// from and, for filtered feeds, a relevance score.
type AggregatedItem struct {
	RawItem
	SourceLabel string  `json:"sourceLabel"`
	Score       float64 `json:"score,omitempty"`
}

// SourceResult is the outcome of calling one source during a collection.
// A failed source has OK=false and no items; Err carries the cause for logging.
type SourceResult struct {
	SourceID    string
	Label       string
	Items       []RawItem
	OK          bool
	ViaFallback bool
	Err         error
}

// Aggregate converts the result's items into AggregatedItems labelled with
// the source label (or the source ID when no label is set).
func (r SourceResult) Aggregate() []AggregatedItem {
	label := r.Label
	if label == "" {
		label = r.SourceID
	}
	out := make([]AggregatedItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, AggregatedItem{RawItem: it, SourceLabel: label})
	}
	return out
}

// Flatten concatenates the aggregated items of every successful result,
// preserving source order and item order within each source.
func Flatten(results []SourceResult) []AggregatedItem {
	var out []AggregatedItem
	for _, r := range results {
		if !r.OK {
			continue
		}
		out = append(out, r.Aggregate()...)
	}
	return out
}
