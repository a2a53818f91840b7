package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PriceVersion is one append-only price record. Snowflake ids grow with
// insertion order, which breaks ties between equal StartsAt values.
type PriceVersion struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ProductID  snowflake.ID `json:"product_id" gorm:"not null;index:ix_price_versions_product_starts,priority:1"`
	PriceCents int64        `json:"price_cents" gorm:"not null;check:chk_price_versions_price_cents,price_cents >= 0"`
	StartsAt   time.Time    `json:"starts_at" gorm:"not null;index:ix_price_versions_product_starts,priority:2"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
}

func (PriceVersion) TableName() string { return "price_versions" }
