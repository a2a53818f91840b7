package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/kiosk/internal/testutil"
	"github.com/smallbiznis/kiosk/internal/user/domain"
	"github.com/smallbiznis/kiosk/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	return New(Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.Node(t),
		Clock: testutil.Clock(),
		Repo:  repository.Provide(),
	})
}

func ptr[T any](v T) *T { return &v }

func TestCreateNormalizesBadge(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Create(context.Background(), domain.CreateUserRequest{
		Name:     " Raphael ",
		BadgeUID: ptr(" test123 "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Raphael", user.Name)
	require.NotNil(t, user.BadgeUID)
	assert.Equal(t, "TEST123", *user.BadgeUID)
	assert.True(t, user.Active)
}

func TestCreateRejectsDuplicateBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateUserRequest{Name: "A", BadgeUID: ptr("abc")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Name: "B", BadgeUID: ptr("ABC ")})
	assert.ErrorIs(t, err, domain.ErrBadgeTaken)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Name: "C"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateUserRequest{Name: "D"})
	require.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateUserRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(context.Background(), domain.CreateUserRequest{Name: "A", Email: ptr("nope")})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestIdentifyByBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, domain.CreateUserRequest{Name: "Raphael", BadgeUID: ptr("TEST123")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateUserRequest{Name: "Blocked", BadgeUID: ptr("BLOCK999"), Active: ptr(false)})
	require.NoError(t, err)

	found, err := svc.IdentifyByBadge(ctx, " test123")
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)

	_, err = svc.IdentifyByBadge(ctx, "BLOCK999")
	assert.ErrorIs(t, err, domain.ErrDisabled)

	_, err = svc.IdentifyByBadge(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.IdentifyByBadge(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidBadge)
}

func TestUpdateAndLinkBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateUserRequest{Name: "A", BadgeUID: ptr("AAA")})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.CreateUserRequest{Name: "B"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateUserRequest{ID: second.ID, Name: ptr("Bea"), Active: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Bea", updated.Name)
	assert.False(t, updated.Active)

	_, err = svc.LinkBadge(ctx, domain.LinkBadgeRequest{ID: second.ID, BadgeUID: "aaa"})
	assert.ErrorIs(t, err, domain.ErrBadgeTaken)

	linked, err := svc.LinkBadge(ctx, domain.LinkBadgeRequest{ID: second.ID, BadgeUID: "bbb"})
	require.NoError(t, err)
	require.NotNil(t, linked.BadgeUID)
	assert.Equal(t, "BBB", *linked.BadgeUID)

	_, err = svc.Update(ctx, domain.UpdateUserRequest{ID: first.ID})
	assert.ErrorIs(t, err, domain.ErrEmptyUpdate)

	_, err = svc.Update(ctx, domain.UpdateUserRequest{ID: testutil.Node(t).Generate(), Name: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
