package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/kiosk/pkg/db/pagination"
)

// Action names recorded for admin operations.
const (
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionPriceSet      = "price.set"
	ActionStockRestock  = "stock.restock"
	ActionUserCreate    = "user.create"
	ActionUserUpdate    = "user.update"
	ActionUserLinkBadge = "user.link_badge"
	ActionPeriodClose   = "billing_period.close"
	ActionDebtPaid      = "debt.mark_paid"
	ActionDebtUnpaid    = "debt.mark_unpaid"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	AuditLog(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidAction    = errors.New("invalid_action")
)
