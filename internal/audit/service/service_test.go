package service

import (
	"context"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/audit/repository"
	"github.com/smallbiznis/kiosk/internal/auditcontext"
	"github.com/smallbiznis/kiosk/internal/clock"
	obscontext "github.com/smallbiznis/kiosk/internal/observability/context"
	"github.com/smallbiznis/kiosk/internal/testutil"
	"github.com/smallbiznis/kiosk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	clk := testutil.Clock()
	svc := NewService(Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.Node(t),
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, clk
}

func TestAuditLogRecordsActorAndMasksMetadata(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := auditcontext.WithActor(context.Background(), auditcontext.ActorTypeAdmin, "admin")
	ctx = auditcontext.WithIPAddress(ctx, "10.0.0.7")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	require.NoError(t, svc.AuditLog(ctx, auditdomain.ActionUserLinkBadge, "user", "42", map[string]any{
		"badge_uid": "TEST123",
		"name":      "Raphael",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, auditcontext.ActorTypeAdmin, entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "admin", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.7", *entry.IPAddress)
	assert.Equal(t, "****T123", entry.Metadata["badge_uid"])
	assert.Equal(t, "Raphael", entry.Metadata["name"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.AuditLog(context.Background(), auditdomain.ActionPeriodClose, "", "", nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, auditcontext.ActorTypeSystem, resp.AuditLogs[0].ActorType)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
	assert.Nil(t, resp.AuditLogs[0].TargetID)
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AuditLog(context.Background(), "  ", "user", "1", nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for _, action := range []string{
		auditdomain.ActionProductCreate,
		auditdomain.ActionPriceSet,
		auditdomain.ActionStockRestock,
	} {
		require.NoError(t, svc.AuditLog(ctx, action, "product", "1", nil))
		clk.Advance(time.Second)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: paginationOf("", 2),
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.Equal(t, auditdomain.ActionStockRestock, first.AuditLogs[0].Action)
	assert.Equal(t, auditdomain.ActionPriceSet, first.AuditLogs[1].Action)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: paginationOf(first.NextPageToken, 2),
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActionProductCreate, second.AuditLogs[0].Action)
	assert.False(t, second.HasMore)
}

func TestListFiltersByAction(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuditLog(ctx, auditdomain.ActionDebtPaid, "period_debt", "1:2", nil))
	require.NoError(t, svc.AuditLog(ctx, auditdomain.ActionDebtUnpaid, "period_debt", "1:2", nil))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: auditdomain.ActionDebtPaid})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActionDebtPaid, resp.AuditLogs[0].Action)
}

func TestListRejectsBadPageToken(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		Pagination: paginationOf("not-base64!", 10),
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func paginationOf(token string, size int) pagination.Pagination {
	return pagination.Pagination{PageToken: token, PageSize: size}
}
