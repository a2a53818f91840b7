package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsurePeriodCanAutoClose(t *testing.T) {
	now := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.ErrorIs(t, EnsurePeriodCanAutoClose(false, now.Add(-40*day), now, 30*day), ErrAutoCloseDisabled)
	assert.ErrorIs(t, EnsurePeriodCanAutoClose(true, now.Add(-29*day), now, 30*day), ErrPeriodTooYoung)
	assert.NoError(t, EnsurePeriodCanAutoClose(true, now.Add(-30*day), now, 30*day))
	assert.NoError(t, EnsurePeriodCanAutoClose(true, time.Unix(0, 0).UTC(), now, 30*day))
}
