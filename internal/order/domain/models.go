package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderStatus string

// Committed is the only persisted order status.
const OrderStatusCommitted OrderStatus = "committed"

type Order struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID     snowflake.ID `json:"user_id" gorm:"not null;index:ix_orders_user_created,priority:1"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;index:ix_orders_user_created,priority:2;index"`
	TotalCents int64        `json:"total_cents" gorm:"not null"`
	Status     OrderStatus  `json:"status" gorm:"type:text;not null"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	OrderID        snowflake.ID `json:"order_id" gorm:"primaryKey;autoIncrement:false"`
	ProductID      snowflake.ID `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	Qty            int64        `json:"qty" gorm:"not null;check:chk_order_items_qty,qty > 0"`
	UnitPriceCents int64        `json:"unit_price_cents" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// Window is a half-open interval [Start, End) over order creation time.
// A nil End means the window is still open.
type Window struct {
	Start time.Time
	End   *time.Time
}

type UserTotal struct {
	UserID     snowflake.ID `json:"user_id"`
	TotalCents int64        `json:"total_cents"`
}

type ItemTotal struct {
	ProductID snowflake.ID `json:"product_id"`
	Name      string       `json:"name"`
	Qty       int64        `json:"qty"`
}
