package assemble

import (
	"encoding/json"
	"time"

	"bayarea-dashboard/internal/domain/entity"
)

// Envelope statuses.
const (
	StatusOK          = "ok"
	StatusStale       = "stale"
	StatusUnavailable = "unavailable"
)

// Cache modes reported in the envelope.
const (
	ModeNormal = "normal"
	ModeBypass = "bypass"
	ModeStale  = "stale"
)

// SourceInfo names the upstream a feed is attributed to.
type SourceInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Envelope is the uniform response shape for every feed, whatever its kind
// or health. Degradation is reported through Status, never as an error.
type Envelope struct {
	Status                string                  `json:"status"`
	Items                 []entity.AggregatedItem `json:"items,omitempty"`
	Value                 json.RawMessage         `json:"value,omitempty"`
	Count                 int                     `json:"count"`
	AsOf                  time.Time               `json:"asOf"`
	Source                SourceInfo              `json:"source"`
	TTLSeconds            int                     `json:"ttlSeconds"`
	CacheHit              bool                    `json:"cache_hit"`
	CacheMode             string                  `json:"cache_mode"`
	CacheAgeSeconds       int                     `json:"cache_age_seconds"`
	CacheExpiresInSeconds int                     `json:"cache_expires_in_seconds"`

	// ViaFallback marks a value served by the source's fallback.
	ViaFallback bool   `json:"via_fallback,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Result is what a producer returns. List feeds fill Items, scalar feeds
// fill Value.
type Result struct {
	Items       []entity.AggregatedItem `json:"items,omitempty"`
	Value       any                     `json:"value,omitempty"`
	ViaFallback bool                    `json:"via_fallback,omitempty"`
}

// stored is the cached form of a Result. Value stays raw so a cached
// envelope serialises byte-for-byte like a freshly produced one.
type stored struct {
	Items       []entity.AggregatedItem `json:"items,omitempty"`
	Value       json.RawMessage         `json:"value,omitempty"`
	ViaFallback bool                    `json:"via_fallback,omitempty"`
}
