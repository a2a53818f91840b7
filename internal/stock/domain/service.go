package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type AdjustRequest struct {
	ProductID snowflake.ID
	Delta     int64
	Reason    MoveReason
	RefID     *snowflake.ID
	Comment   *string
}

type RestockItem struct {
	ProductID snowflake.ID
	Qty       int64
}

type RestockRequest struct {
	Items   []RestockItem
	Comment *string
}

type Service interface {
	// Adjust applies one move inside the caller's transaction.
	Adjust(ctx context.Context, tx *gorm.DB, req AdjustRequest) (StockMove, error)
	Restock(ctx context.Context, req RestockRequest) ([]StockMove, error)
	Level(ctx context.Context, tx *gorm.DB, productID snowflake.ID) (StockLevel, error)
	Levels(ctx context.Context, tx *gorm.DB) ([]StockLevel, error)
	ListMoves(ctx context.Context, filter MoveFilter) ([]StockMove, error)
	// Reconcile lists the products whose level differs from the sum of their moves.
	Reconcile(ctx context.Context) ([]Drift, error)
}

// MaxLevelQty caps a single level and a single move.
const MaxLevelQty int64 = 1_000_000_000

var (
	ErrStockLimit        = errors.New("stock_limit_exceeded")
	ErrInsufficientStock = errors.New("insufficient_stock")
	ErrInvalidDelta      = errors.New("invalid_delta")
	ErrInvalidReason     = errors.New("invalid_reason")
	ErrInvalidProduct    = errors.New("invalid_product")
	ErrEmptyRestock      = errors.New("empty_restock")
	ErrProductNotFound   = errors.New("product_not_found")
)
