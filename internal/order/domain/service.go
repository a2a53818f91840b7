package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CommitItem struct {
	ProductID snowflake.ID
	Qty       int64
}

type CommitRequest struct {
	UserID snowflake.ID
	Items  []CommitItem
}

type CommitResult struct {
	OrderID    snowflake.ID `json:"order_id"`
	UserID     snowflake.ID `json:"user_id"`
	TotalCents int64        `json:"total_cents"`
	CreatedAt  time.Time    `json:"created_at"`
	Items      []OrderItem  `json:"items"`
}

type OrderDetail struct {
	Order
	Items []OrderItem `json:"items"`
}

type Service interface {
	CommitOrder(ctx context.Context, req CommitRequest) (CommitResult, error)
	Get(ctx context.Context, id snowflake.ID) (OrderDetail, error)
	ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]Order, error)
}

var (
	ErrNotFound        = errors.New("order_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidUser     = errors.New("invalid_user")
	ErrEmptyOrder      = errors.New("empty_order")
	ErrInvalidProduct  = errors.New("invalid_product")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrUserNotFound    = errors.New("user_not_found")
	ErrUserDisabled    = errors.New("user_disabled")
	ErrOutOfStock      = errors.New("out_of_stock")
	ErrPriceMissing    = errors.New("price_missing")
)

// OutOfStockError reports the first line that exceeded available stock.
type OutOfStockError struct {
	ProductID snowflake.ID
	Requested int64
	Available int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out_of_stock: product %s requested %d available %d", e.ProductID, e.Requested, e.Available)
}

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}

// PriceMissingError reports a line without an effective price.
type PriceMissingError struct {
	ProductID snowflake.ID
}

func (e *PriceMissingError) Error() string {
	return fmt.Sprintf("price_missing: product %s", e.ProductID)
}

func (e *PriceMissingError) Is(target error) bool {
	return target == ErrPriceMissing
}
