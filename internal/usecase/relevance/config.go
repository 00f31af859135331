package relevance

import (
	"errors"
	"fmt"
	"os"
	"time"

	"bayarea-dashboard/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Thresholds is an engagement bar; an item clears it if any one counter
// reaches its minimum.
type Thresholds struct {
	Replies int `yaml:"replies"`
	Views   int `yaml:"views"`
	Heat    int `yaml:"heat"`
}

// Met reports whether e clears the bar.
func (t Thresholds) Met(e entity.Engagement) bool {
	return e.Replies >= t.Replies || e.Views >= t.Views || e.Heat >= t.Heat
}

// Terms are the keywords an item must mention to be considered relevant.
type Terms struct {
	// CJK terms are matched as exact substrings.
	CJK []string `yaml:"cjk"`
	// Latin terms are matched case-insensitively.
	Latin []string `yaml:"latin"`
}

// Config drives Filter.
type Config struct {
	Terms Terms `yaml:"terms"`

	// FreshWindow is the age below which items are accepted regardless of
	// engagement.
	FreshWindow time.Duration `yaml:"fresh_window"`

	// RecentWindow is the inclusive upper age of the "recent" bucket. Items
	// older than this need Old engagement and rank after recent items.
	RecentWindow time.Duration `yaml:"recent_window"`

	Recent Thresholds `yaml:"recent"`
	Old    Thresholds `yaml:"old"`

	// Limit is the number of items kept after ranking.
	Limit int `yaml:"limit"`
}

// DefaultConfig returns the community-feed settings for the Bay Area.
func DefaultConfig() Config {
	return Config{
		Terms: Terms{
			CJK: []string{
				"湾区", "旧金山", "三藩市", "硅谷", "圣何塞", "奥克兰", "伯克利",
				"帕洛阿尔托", "山景城", "库比蒂诺", "桑尼维尔", "弗里蒙特", "圣克拉拉",
			},
			Latin: []string{
				"bay area", "san francisco", "silicon valley", "san jose", "oakland",
				"berkeley", "palo alto", "mountain view", "cupertino", "sunnyvale",
				"fremont", "santa clara", "bart", "caltrain",
			},
		},
		FreshWindow:  48 * time.Hour,
		RecentWindow: 7 * 24 * time.Hour,
		Recent:       Thresholds{Replies: 10, Views: 100, Heat: 20},
		Old:          Thresholds{Replies: 50, Views: 500, Heat: 80},
		Limit:        3,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Fields absent from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read relevance config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse relevance config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if len(c.Terms.CJK)+len(c.Terms.Latin) == 0 {
		errs = append(errs, &entity.ValidationError{Field: "terms", Message: "at least one term is required"})
	}
	if c.FreshWindow < 0 {
		errs = append(errs, &entity.ValidationError{Field: "fresh_window", Message: "must not be negative"})
	}
	if c.RecentWindow < c.FreshWindow {
		errs = append(errs, &entity.ValidationError{Field: "recent_window", Message: "must not be shorter than fresh_window"})
	}
	if c.Limit < 1 {
		errs = append(errs, &entity.ValidationError{Field: "limit", Message: "must be at least 1"})
	}
	return errors.Join(errs...)
}
