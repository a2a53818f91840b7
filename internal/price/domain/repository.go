package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, version *PriceVersion) error
	// Effective returns the version in force at the given instant, or nil.
	Effective(ctx context.Context, db *gorm.DB, productID snowflake.ID, at time.Time) (*PriceVersion, error)
	// EffectiveAll returns the version in force for every priced product.
	EffectiveAll(ctx context.Context, db *gorm.DB, at time.Time) ([]PriceVersion, error)
	ListByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]PriceVersion, error)
}
