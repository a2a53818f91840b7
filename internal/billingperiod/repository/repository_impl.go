package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, period *domain.BillingPeriod) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_periods (id, start_ts, end_ts, comment, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		period.ID,
		period.StartTs,
		period.EndTs,
		period.Comment,
		period.CreatedAt,
	).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB) (*domain.BillingPeriod, error) {
	var period domain.BillingPeriod
	err := db.WithContext(ctx).Raw(
		`SELECT id, start_ts, end_ts, comment, created_at
		 FROM billing_periods
		 ORDER BY end_ts DESC, id DESC
		 LIMIT 1`,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingPeriod, error) {
	var period domain.BillingPeriod
	err := db.WithContext(ctx).Raw(
		`SELECT id, start_ts, end_ts, comment, created_at FROM billing_periods WHERE id = ?`,
		id,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.BillingPeriod, error) {
	var periods []domain.BillingPeriod
	err := db.WithContext(ctx).
		Model(&domain.BillingPeriod{}).
		Order("end_ts desc, id desc").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}
