package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, name, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products SET name = ?, active = ?, updated_at = ? WHERE id = ?`,
		product.Name,
		product.Active,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, active, created_at, updated_at FROM products WHERE id = ?`,
		id,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var products []domain.Product
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repo) Catalog(ctx context.Context, db *gorm.DB, filter domain.CatalogFilter) ([]domain.CatalogItem, error) {
	query := `SELECT p.id, p.name, p.active, COALESCE(sl.qty, 0) AS qty, pv.price_cents AS price_cents
		FROM products p
		LEFT JOIN stock_levels sl ON sl.product_id = p.id
		LEFT JOIN price_versions pv ON pv.id = (
			SELECT p2.id FROM price_versions p2
			WHERE p2.product_id = p.id AND p2.starts_at <= ?
			ORDER BY p2.starts_at DESC, p2.id DESC
			LIMIT 1
		)`
	args := []any{filter.At}
	if filter.ActiveOnly {
		query += ` WHERE p.active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY p.name ASC`

	var items []domain.CatalogItem
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Available = items[i].Qty > 0
	}
	return items, nil
}
