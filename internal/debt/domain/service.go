package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type ListRequest struct {
	Status *DebtStatus
	UserID snowflake.ID
}

type Service interface {
	MarkPaid(ctx context.Context, periodID, userID snowflake.ID) (PeriodDebt, error)
	MarkUnpaid(ctx context.Context, periodID, userID snowflake.ID) (PeriodDebt, error)
	List(ctx context.Context, req ListRequest) ([]DebtView, error)
	SummaryByUser(ctx context.Context, status DebtStatus) ([]UserDebtTotal, error)
	// UserDebtSummary combines unpaid closed debts with the open window.
	UserDebtSummary(ctx context.Context, userID snowflake.ID) (UserDebtSummary, error)
	// CurrentSummary returns the balance of every member owing something.
	CurrentSummary(ctx context.Context) ([]UserDebtSummary, error)
}

var (
	ErrNotFound        = errors.New("debt_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrAlreadyPaid     = errors.New("debt_already_paid")
	ErrAlreadyInvoiced = errors.New("debt_already_invoiced")
	ErrUserNotFound    = errors.New("user_not_found")
)

// ParseStatus validates a status filter value.
func ParseStatus(value string) (DebtStatus, error) {
	switch DebtStatus(value) {
	case DebtStatusInvoiced, DebtStatusPaid:
		return DebtStatus(value), nil
	default:
		return "", ErrInvalidStatus
	}
}
