package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/debt/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, debts []domain.PeriodDebt) error {
	for _, debt := range debts {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO period_debts (period_id, user_id, amount_cents, status, generated_at, paid_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			debt.PeriodID,
			debt.UserID,
			debt.AmountCents,
			debt.Status,
			debt.GeneratedAt,
			debt.PaidAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, periodID, userID snowflake.ID) (*domain.PeriodDebt, error) {
	var debt domain.PeriodDebt
	err := db.WithContext(ctx).Raw(
		`SELECT period_id, user_id, amount_cents, status, generated_at, paid_at
		 FROM period_debts WHERE period_id = ? AND user_id = ?`,
		periodID,
		userID,
	).Scan(&debt).Error
	if err != nil {
		return nil, err
	}
	if debt.PeriodID == 0 {
		return nil, nil
	}
	return &debt, nil
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, periodID, userID snowflake.ID, from, to domain.DebtStatus, paidAt *time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE period_debts SET status = ?, paid_at = ?
		 WHERE period_id = ? AND user_id = ? AND status = ?`,
		to,
		paidAt,
		periodID,
		userID,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.DebtView, error) {
	stmt := db.WithContext(ctx).
		Table("period_debts pd").
		Joins("JOIN billing_periods bp ON bp.id = pd.period_id").
		Joins("JOIN users u ON u.id = pd.user_id")
	if filter.Status != "" {
		stmt = stmt.Where("pd.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		stmt = stmt.Where("pd.user_id = ?", filter.UserID)
	}

	var debts []domain.DebtView
	err := stmt.
		Select(`pd.period_id AS period_id, pd.user_id AS user_id, u.name AS user_name,
			pd.amount_cents AS amount_cents, pd.status AS status, pd.generated_at AS generated_at,
			pd.paid_at AS paid_at, bp.start_ts AS start_ts, bp.end_ts AS end_ts, bp.comment AS comment`).
		Order("bp.end_ts desc, u.name asc").
		Scan(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}

func (r *repo) SummaryByUser(ctx context.Context, db *gorm.DB, status domain.DebtStatus, userID snowflake.ID) ([]domain.UserDebtTotal, error) {
	stmt := db.WithContext(ctx).
		Table("period_debts pd").
		Joins("JOIN users u ON u.id = pd.user_id").
		Where("pd.status = ?", status)
	if userID != 0 {
		stmt = stmt.Where("pd.user_id = ?", userID)
	}

	var totals []domain.UserDebtTotal
	err := stmt.
		Select(`pd.user_id AS user_id, u.name AS user_name,
			COUNT(pd.period_id) AS periods_count, COALESCE(SUM(pd.amount_cents), 0) AS total_cents`).
		Group("pd.user_id, u.name").
		Order("total_cents desc, u.name asc").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repo) Windows(ctx context.Context, db *gorm.DB, userID snowflake.ID, status domain.DebtStatus) ([]domain.PeriodWindow, error) {
	var windows []domain.PeriodWindow
	err := db.WithContext(ctx).Raw(
		`SELECT bp.id AS period_id, bp.start_ts AS start_ts, bp.end_ts AS end_ts
		 FROM period_debts pd
		 JOIN billing_periods bp ON bp.id = pd.period_id
		 WHERE pd.user_id = ? AND pd.status = ?
		 ORDER BY bp.start_ts ASC`,
		userID,
		status,
	).Scan(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}
