package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status DebtStatus
	UserID snowflake.ID
}

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, debts []PeriodDebt) error
	Find(ctx context.Context, db *gorm.DB, periodID, userID snowflake.ID) (*PeriodDebt, error)
	// Transition moves a debt from one status to another and reports whether
	// a row matched.
	Transition(ctx context.Context, db *gorm.DB, periodID, userID snowflake.ID, from, to DebtStatus, paidAt *time.Time) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]DebtView, error)
	// SummaryByUser totals debts of one status per user. A zero userID
	// covers every user.
	SummaryByUser(ctx context.Context, db *gorm.DB, status DebtStatus, userID snowflake.ID) ([]UserDebtTotal, error)
	Windows(ctx context.Context, db *gorm.DB, userID snowflake.ID, status DebtStatus) ([]PeriodWindow, error)
}
