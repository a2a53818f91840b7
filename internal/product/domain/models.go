package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Product struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_products_name"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// CatalogItem is a product with its current stock and effective price.
// PriceCents is nil when no version is in force yet.
type CatalogItem struct {
	ID         snowflake.ID `json:"id"`
	Name       string       `json:"name"`
	Active     bool         `json:"active"`
	PriceCents *int64       `json:"price_cents"`
	Qty        int64        `json:"qty"`
	Available  bool         `json:"available"`
}
