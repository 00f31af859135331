package relevance

import (
	"testing"
	"time"

	"bayarea-dashboard/internal/domain/entity"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func post(id, title string, age time.Duration, e entity.Engagement) entity.AggregatedItem {
	return entity.AggregatedItem{
		RawItem: entity.RawItem{
			ID:          id,
			Title:       title,
			PublishedAt: now.Add(-age),
			Engagement:  e,
		},
		SourceLabel: "forum",
	}
}

func ids(items []entity.AggregatedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFilter_Matches(t *testing.T) {
	f := NewFilter(DefaultConfig())

	tests := []struct {
		name string
		item entity.RawItem
		want bool
	}{
		{"cjk title", entity.RawItem{Title: "湾区周末去哪玩"}, true},
		{"cjk in summary", entity.RawItem{Title: "求推荐", Summary: "住在硅谷附近"}, true},
		{"latin case-insensitive", entity.RawItem{Title: "Moving to the BAY AREA"}, true},
		{"latin in summary", entity.RawItem{Title: "help", Summary: "commute from Oakland"}, true},
		{"off topic", entity.RawItem{Title: "纽约租房", Summary: "Manhattan studio"}, false},
		{"empty", entity.RawItem{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Matches(tt.item))
		})
	}
}

func TestFilter_CJKMatchIsExact(t *testing.T) {
	f := NewFilter(Config{Terms: Terms{CJK: []string{"湾区"}}, Limit: 3})

	assert.True(t, f.Matches(entity.RawItem{Title: "湾区"}))
	assert.False(t, f.Matches(entity.RawItem{Title: "湾 区"}))
}

func TestFilter_RecencyAndEngagement(t *testing.T) {
	f := NewFilter(DefaultConfig())

	tests := []struct {
		name string
		age  time.Duration
		e    entity.Engagement
		want bool
	}{
		{"fresh with no engagement", 2 * time.Hour, entity.Engagement{}, true},
		{"just under 48h", 48*time.Hour - time.Minute, entity.Engagement{}, true},
		{"exactly 48h below every bar", 48 * time.Hour, entity.Engagement{Replies: 9, Views: 50, Heat: 15}, false},
		{"exactly 48h with 10 replies", 48 * time.Hour, entity.Engagement{Replies: 10}, true},
		{"3 days with 100 views", 72 * time.Hour, entity.Engagement{Views: 100}, true},
		{"3 days with heat 20", 72 * time.Hour, entity.Engagement{Heat: 20}, true},
		{"exactly 7 days uses recent bar", 168 * time.Hour, entity.Engagement{Replies: 10}, true},
		{"just over 7 days needs old bar", 168*time.Hour + time.Minute, entity.Engagement{Replies: 10}, false},
		{"old with 50 replies", 30 * 24 * time.Hour, entity.Engagement{Replies: 50}, true},
		{"old with 500 views", 30 * 24 * time.Hour, entity.Engagement{Views: 500}, true},
		{"old with heat 80", 30 * 24 * time.Hour, entity.Engagement{Heat: 80}, true},
		{"old below bar", 30 * 24 * time.Hour, entity.Engagement{Replies: 49, Views: 499, Heat: 79}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Apply([]entity.AggregatedItem{post("p", "Bay Area news", tt.age, tt.e)}, now)
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestFilter_DedupByNormalizedTitle(t *testing.T) {
	f := NewFilter(DefaultConfig())

	items := []entity.AggregatedItem{
		post("1", "  Bay Area Rent  ", time.Hour, entity.Engagement{Replies: 1}),
		post("2", "bay area rent", time.Hour, entity.Engagement{Replies: 99}),
		post("3", "BAY AREA RENT", time.Hour, entity.Engagement{}),
	}

	got := f.Apply(items, now)

	assert.Equal(t, []string{"1"}, ids(got), "first occurrence wins")
}

func TestFilter_RankingAndTruncation(t *testing.T) {
	f := NewFilter(DefaultConfig())

	items := []entity.AggregatedItem{
		// Older than a week but very popular: ranks after every recent item.
		post("old-hot", "San Jose classic thread", 10*24*time.Hour, entity.Engagement{Replies: 500, Heat: 500}),
		post("low", "Oakland low", time.Hour, entity.Engagement{Replies: 1, Heat: 1}),
		post("high", "Oakland high", time.Hour, entity.Engagement{Replies: 30, Heat: 40}),
		post("mid", "Oakland mid", 3*24*time.Hour, entity.Engagement{Replies: 10, Heat: 10}),
		post("off", "Seattle", time.Hour, entity.Engagement{Replies: 1000}),
	}

	t.Run("full ranking", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Limit = 10
		got := NewFilter(cfg).Apply(items, now)

		want := []string{"high", "mid", "low", "old-hot"}
		if diff := cmp.Diff(want, ids(got)); diff != "" {
			t.Errorf("ranking mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 70.0, got[0].Score)
		assert.Equal(t, "forum", got[0].SourceLabel)
	})

	t.Run("default limit", func(t *testing.T) {
		got := f.Apply(items, now)
		assert.Equal(t, []string{"high", "mid", "low"}, ids(got))
	})
}

func TestFilter_StableWithinEqualScores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limit = 5
	f := NewFilter(cfg)

	items := []entity.AggregatedItem{
		post("a", "Palo Alto a", time.Hour, entity.Engagement{}),
		post("b", "Palo Alto b", time.Hour, entity.Engagement{}),
		post("c", "Palo Alto c", time.Hour, entity.Engagement{}),
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(f.Apply(items, now)))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	f := NewFilter(DefaultConfig())
	items := []entity.AggregatedItem{post("1", "Fremont", time.Hour, entity.Engagement{Replies: 3, Heat: 4})}

	got := f.Apply(items, now)

	assert.Equal(t, 7.0, got[0].Score)
	assert.Zero(t, items[0].Score)
}

func TestPad(t *testing.T) {
	a := post("a", "A", 0, entity.Engagement{})
	b := post("b", "B", 0, entity.Engagement{})
	c := post("c", "C", 0, entity.Engagement{})
	d := post("d", "D", 0, entity.Engagement{})

	tests := []struct {
		name     string
		items    []entity.AggregatedItem
		previous []entity.AggregatedItem
		n        int
		want     []string
	}{
		{"already full", []entity.AggregatedItem{a, b, c}, []entity.AggregatedItem{d}, 3, []string{"a", "b", "c"}},
		{"pads from previous", []entity.AggregatedItem{a}, []entity.AggregatedItem{b, c, d}, 3, []string{"a", "b", "c"}},
		{"skips ids already present", []entity.AggregatedItem{a}, []entity.AggregatedItem{a, b}, 3, []string{"a", "b"}},
		{"no previous", []entity.AggregatedItem{a}, nil, 3, []string{"a"}},
		{"empty current", nil, []entity.AggregatedItem{c, d}, 3, []string{"c", "d"}},
		{"duplicate ids in previous", nil, []entity.AggregatedItem{b, b, c}, 3, []string{"b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Pad(tt.items, tt.previous, tt.n)))
		})
	}
}
