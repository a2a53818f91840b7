package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CatalogFilter struct {
	ActiveOnly bool
	At         time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB) ([]Product, error)
	Catalog(ctx context.Context, db *gorm.DB, filter CatalogFilter) ([]CatalogItem, error)
}
