package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Epoch is the start of the first period.
var Epoch = time.Unix(0, 0).UTC()

type BillingPeriod struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	StartTs   time.Time    `json:"start_ts" gorm:"not null;uniqueIndex:ux_billing_periods_start_ts"`
	EndTs     time.Time    `json:"end_ts" gorm:"not null;index"`
	Comment   *string      `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (BillingPeriod) TableName() string { return "billing_periods" }
