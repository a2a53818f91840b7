package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]Order, error)

	// SumTotalsByUser aggregates committed order totals per user inside the
	// window. A nil userID covers every user.
	SumTotalsByUser(ctx context.Context, db *gorm.DB, window Window, userID *snowflake.ID) ([]UserTotal, error)
	// SumItems aggregates committed item quantities per product for one user
	// inside the window.
	SumItems(ctx context.Context, db *gorm.DB, window Window, userID snowflake.ID) ([]ItemTotal, error)
}
