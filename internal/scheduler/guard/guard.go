package guard

import (
	"errors"
	"time"
)

var (
	ErrAutoCloseDisabled = errors.New("auto_close_disabled")
	ErrPeriodTooYoung    = errors.New("period_too_young")
)

// EnsurePeriodCanAutoClose checks that the open window, started at
// watermark, has lasted at least minAge at now.
func EnsurePeriodCanAutoClose(enabled bool, watermark, now time.Time, minAge time.Duration) error {
	if !enabled {
		return ErrAutoCloseDisabled
	}
	if now.Sub(watermark) < minAge {
		return ErrPeriodTooYoung
	}
	return nil
}
