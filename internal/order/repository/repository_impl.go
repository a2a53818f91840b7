package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/order/domain"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, user_id, created_at, total_cents, status)
		 VALUES (?, ?, ?, ?, ?)`,
		order.ID,
		order.UserID,
		order.CreatedAt,
		order.TotalCents,
		order.Status,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO order_items (order_id, product_id, qty, unit_price_cents)
			 VALUES (?, ?, ?, ?)`,
			item.OrderID,
			item.ProductID,
			item.Qty,
			item.UnitPriceCents,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, created_at, total_cents, status FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("order_id = ?", orderID).
		Order("product_id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var orders []domain.Order
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) SumTotalsByUser(ctx context.Context, db *gorm.DB, window domain.Window, userID *snowflake.ID) ([]domain.UserTotal, error) {
	stmt := applyWindow(db.WithContext(ctx).Table("orders o"), window)
	if userID != nil {
		stmt = stmt.Where("o.user_id = ?", *userID)
	}

	var totals []domain.UserTotal
	err := stmt.
		Select("o.user_id AS user_id, COALESCE(SUM(o.total_cents), 0) AS total_cents").
		Group("o.user_id").
		Order("o.user_id asc").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repo) SumItems(ctx context.Context, db *gorm.DB, window domain.Window, userID snowflake.ID) ([]domain.ItemTotal, error) {
	stmt := applyWindow(db.WithContext(ctx).Table("orders o"), window).
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("o.user_id = ?", userID)

	var items []domain.ItemTotal
	err := stmt.
		Select("oi.product_id AS product_id, p.name AS name, COALESCE(SUM(oi.qty), 0) AS qty").
		Group("oi.product_id, p.name").
		Order("oi.product_id asc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// applyWindow is the single definition of which orders belong to a window:
// committed orders with start <= created_at < end.
func applyWindow(stmt *gorm.DB, window domain.Window) *gorm.DB {
	stmt = stmt.
		Where("o.status = ?", domain.OrderStatusCommitted).
		Where("o.created_at >= ?", window.Start)
	if window.End != nil {
		stmt = stmt.Where("o.created_at < ?", *window.End)
	}
	return stmt
}
