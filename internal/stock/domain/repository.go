package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type MoveFilter struct {
	ProductID snowflake.ID
	Reason    MoveReason
	RefID     snowflake.ID
	Limit     int
}

type Repository interface {
	// EnsureLevel creates a zero level row when none exists.
	EnsureLevel(ctx context.Context, db *gorm.DB, productID snowflake.ID, at time.Time) error
	// ApplyDelta adds delta to the level unless the result would be negative.
	// It reports whether the level was updated.
	ApplyDelta(ctx context.Context, db *gorm.DB, productID snowflake.ID, delta int64, at time.Time) (bool, error)
	InsertMove(ctx context.Context, db *gorm.DB, move *StockMove) error
	FindLevel(ctx context.Context, db *gorm.DB, productID snowflake.ID) (*StockLevel, error)
	ListLevels(ctx context.Context, db *gorm.DB) ([]StockLevel, error)
	ListMoves(ctx context.Context, db *gorm.DB, filter MoveFilter) ([]StockMove, error)
	Drifts(ctx context.Context, db *gorm.DB) ([]Drift, error)
}
