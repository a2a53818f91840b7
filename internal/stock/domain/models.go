package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type MoveReason string

const (
	ReasonRestock MoveReason = "restock"
	ReasonSale    MoveReason = "sale"
)

// StockLevel caches the running total of a product's moves.
type StockLevel struct {
	ProductID snowflake.ID `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	Qty       int64        `json:"qty" gorm:"not null;default:0;check:chk_stock_levels_qty,qty >= 0"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (StockLevel) TableName() string { return "stock_levels" }

// StockMove is an append-only quantity change.
type StockMove struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ProductID snowflake.ID  `json:"product_id" gorm:"not null;index"`
	DeltaQty  int64         `json:"delta_qty" gorm:"not null"`
	Reason    MoveReason    `json:"reason" gorm:"type:text;not null"`
	RefID     *snowflake.ID `json:"ref_id,omitempty" gorm:"index"`
	Comment   *string       `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
}

func (StockMove) TableName() string { return "stock_moves" }

// Drift reports a product whose cached level disagrees with its move log.
type Drift struct {
	ProductID snowflake.ID `json:"product_id"`
	Qty       int64        `json:"qty"`
	MovesQty  int64        `json:"moves_qty"`
}
