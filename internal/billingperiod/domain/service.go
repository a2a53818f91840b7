package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ClosePeriodRequest struct {
	Comment *string
}

type ClosePeriodResult struct {
	PeriodID     snowflake.ID `json:"period_id"`
	StartTs      time.Time    `json:"start_ts"`
	EndTs        time.Time    `json:"end_ts"`
	CreatedCount int          `json:"created_count"`
}

type Service interface {
	ClosePeriod(ctx context.Context, req ClosePeriodRequest) (ClosePeriodResult, error)
	// Watermark is the start of the open window, read through tx.
	Watermark(ctx context.Context, tx *gorm.DB) (time.Time, error)
	Get(ctx context.Context, id snowflake.ID) (BillingPeriod, error)
	List(ctx context.Context) ([]BillingPeriod, error)
}

var (
	ErrNotFound          = errors.New("billing_period_not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNothingToClose    = errors.New("nothing_to_close")
	ErrConcurrentClosure = errors.New("concurrent_closure")
)

// WatermarkOf returns the end of the latest period, or Epoch.
func WatermarkOf(latest *BillingPeriod) time.Time {
	if latest == nil {
		return Epoch
	}
	return latest.EndTs.UTC()
}
