package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateProductRequest struct {
	Name string
	// Active defaults to true.
	Active *bool
	// PriceCents sets the initial price version when present.
	PriceCents *int64
	// InitialQty records an initial restock when positive.
	InitialQty int64
}

type UpdateProductRequest struct {
	ID     snowflake.ID
	Name   *string
	Active *bool
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (CatalogItem, error)
	Update(ctx context.Context, req UpdateProductRequest) (Product, error)
	Get(ctx context.Context, id snowflake.ID) (Product, error)
	// List returns every product, active or not, for administration.
	List(ctx context.Context) ([]CatalogItem, error)
	// ListOrderable returns the active products shown on the kiosk.
	ListOrderable(ctx context.Context) ([]CatalogItem, error)
}

var (
	ErrNotFound        = errors.New("product_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrNameTaken       = errors.New("product_name_taken")
	ErrEmptyUpdate     = errors.New("empty_update")
)
