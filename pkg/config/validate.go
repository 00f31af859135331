package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d > 0 {
		return nil
	}
	return fmt.Errorf("must be a positive duration, got %s", d)
}

// ValidateDurationRange accepts lo <= d <= hi.
func ValidateDurationRange(d, lo, hi time.Duration) error {
	switch {
	case lo > hi:
		return fmt.Errorf("empty range [%s, %s]", lo, hi)
	case d < lo, d > hi:
		return fmt.Errorf("must be within [%s, %s], got %s", lo, hi, d)
	}
	return nil
}

// ValidateFraction accepts 0 <= f <= 1.
func ValidateFraction(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("must be within [0, 1], got %v", f)
	}
	return nil
}
