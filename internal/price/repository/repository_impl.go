package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/price/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, version *domain.PriceVersion) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO price_versions (id, product_id, price_cents, starts_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		version.ID,
		version.ProductID,
		version.PriceCents,
		version.StartsAt,
		version.CreatedAt,
	).Error
}

func (r *repo) Effective(ctx context.Context, db *gorm.DB, productID snowflake.ID, at time.Time) (*domain.PriceVersion, error) {
	var version domain.PriceVersion
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, price_cents, starts_at, created_at
		 FROM price_versions
		 WHERE product_id = ? AND starts_at <= ?
		 ORDER BY starts_at DESC, id DESC
		 LIMIT 1`,
		productID,
		at,
	).Scan(&version).Error
	if err != nil {
		return nil, err
	}
	if version.ID == 0 {
		return nil, nil
	}
	return &version, nil
}

func (r *repo) EffectiveAll(ctx context.Context, db *gorm.DB, at time.Time) ([]domain.PriceVersion, error) {
	var versions []domain.PriceVersion
	err := db.WithContext(ctx).Raw(
		`SELECT pv.id, pv.product_id, pv.price_cents, pv.starts_at, pv.created_at
		 FROM price_versions pv
		 WHERE pv.id = (
			SELECT p2.id FROM price_versions p2
			WHERE p2.product_id = pv.product_id AND p2.starts_at <= ?
			ORDER BY p2.starts_at DESC, p2.id DESC
			LIMIT 1
		 )`,
		at,
	).Scan(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *repo) ListByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]domain.PriceVersion, error) {
	var versions []domain.PriceVersion
	err := db.WithContext(ctx).
		Model(&domain.PriceVersion{}).
		Where("product_id = ?", productID).
		Order("starts_at desc, id desc").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}
