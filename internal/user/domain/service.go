package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateUserRequest struct {
	Name     string
	Email    *string
	BadgeUID *string
	// Active defaults to true.
	Active *bool
}

type UpdateUserRequest struct {
	ID     snowflake.ID
	Name   *string
	Email  *string
	Active *bool
}

type LinkBadgeRequest struct {
	ID       snowflake.ID
	BadgeUID string
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (User, error)
	Update(ctx context.Context, req UpdateUserRequest) (User, error)
	LinkBadge(ctx context.Context, req LinkBadgeRequest) (User, error)
	Get(ctx context.Context, id snowflake.ID) (User, error)
	List(ctx context.Context) ([]User, error)
	// IdentifyByBadge resolves the active member holding a badge.
	IdentifyByBadge(ctx context.Context, badgeUID string) (User, error)
}

var (
	ErrNotFound     = errors.New("user_not_found")
	ErrDisabled     = errors.New("user_disabled")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidBadge = errors.New("invalid_badge")
	ErrBadgeTaken   = errors.New("badge_taken")
	ErrEmptyUpdate  = errors.New("empty_update")
)
