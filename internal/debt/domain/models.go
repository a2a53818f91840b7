package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type DebtStatus string

const (
	DebtStatusInvoiced DebtStatus = "invoiced"
	DebtStatusPaid     DebtStatus = "paid"
)

type PeriodDebt struct {
	PeriodID    snowflake.ID `json:"period_id" gorm:"primaryKey;autoIncrement:false"`
	UserID      snowflake.ID `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	AmountCents int64        `json:"amount_cents" gorm:"not null;check:chk_period_debts_amount,amount_cents > 0"`
	Status      DebtStatus   `json:"status" gorm:"type:text;not null;index"`
	GeneratedAt time.Time    `json:"generated_at" gorm:"not null"`
	PaidAt      *time.Time   `json:"paid_at,omitempty"`
}

func (PeriodDebt) TableName() string { return "period_debts" }

// DebtView is a debt joined with its period window and member name.
type DebtView struct {
	PeriodID    snowflake.ID `json:"period_id"`
	UserID      snowflake.ID `json:"user_id"`
	UserName    string       `json:"user_name"`
	AmountCents int64        `json:"amount_cents"`
	Status      DebtStatus   `json:"status"`
	GeneratedAt time.Time    `json:"generated_at"`
	PaidAt      *time.Time   `json:"paid_at,omitempty"`
	StartTs     time.Time    `json:"start_ts"`
	EndTs       time.Time    `json:"end_ts"`
	Comment     *string      `json:"comment,omitempty"`
}

type UserDebtTotal struct {
	UserID       snowflake.ID `json:"user_id"`
	UserName     string       `json:"user_name"`
	PeriodsCount int64        `json:"periods_count"`
	TotalCents   int64        `json:"total_cents"`
}

// PeriodWindow is the window of one closed period holding a debt.
type PeriodWindow struct {
	PeriodID snowflake.ID
	StartTs  time.Time
	EndTs    time.Time
}

type DebtItem struct {
	ProductID snowflake.ID `json:"product_id"`
	Name      string       `json:"name"`
	Qty       int64        `json:"qty"`
}

type UserDebtSummary struct {
	UserID            snowflake.ID `json:"user_id"`
	UserName          string       `json:"user_name"`
	UserEmail         *string      `json:"user_email,omitempty"`
	UnpaidClosedCents int64        `json:"unpaid_closed_cents"`
	OpenCents         int64        `json:"open_cents"`
	TotalCents        int64        `json:"total_cents"`
	OpenSince         time.Time    `json:"open_since"`
	Items             []DebtItem   `json:"items,omitempty"`
}
