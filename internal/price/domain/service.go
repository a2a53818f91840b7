package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SetPriceRequest struct {
	ProductID  snowflake.ID
	PriceCents int64
	// StartsAt defaults to the current time.
	StartsAt *time.Time
}

type Service interface {
	CurrentPrice(ctx context.Context, productID snowflake.ID, at time.Time) (PriceVersion, error)
	EffectivePrice(ctx context.Context, tx *gorm.DB, productID snowflake.ID, at time.Time) (PriceVersion, error)
	CurrentPrices(ctx context.Context, tx *gorm.DB, at time.Time) (map[snowflake.ID]int64, error)
	SetPrice(ctx context.Context, req SetPriceRequest) (PriceVersion, error)
	Append(ctx context.Context, tx *gorm.DB, req SetPriceRequest) (PriceVersion, error)
	History(ctx context.Context, productID snowflake.ID) ([]PriceVersion, error)
}

var (
	ErrNotFound        = errors.New("price_not_found")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidProduct  = errors.New("invalid_product")
	ErrProductNotFound = errors.New("product_not_found")
)
