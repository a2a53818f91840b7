package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, period *BillingPeriod) error
	// Latest returns the most recent period, or nil before the first closure.
	Latest(ctx context.Context, db *gorm.DB) (*BillingPeriod, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingPeriod, error)
	List(ctx context.Context, db *gorm.DB) ([]BillingPeriod, error)
}
