package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Email     *string      `json:"email,omitempty" gorm:"type:text"`
	BadgeUID  *string      `json:"badge_uid,omitempty" gorm:"type:text;uniqueIndex:ux_users_badge_uid"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string { return "users" }
