package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/price/domain"
	"github.com/smallbiznis/kiosk/internal/price/repository"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	productrepo "github.com/smallbiznis/kiosk/internal/product/repository"
	"github.com/smallbiznis/kiosk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := testutil.Clock()
	node := testutil.Node(t)
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		ProductRepo: productrepo.Provide(),
	})
	return fixture{svc: svc, db: db, clock: clk, node: node}
}

func (f fixture) product(t *testing.T, name string) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	product := productdomain.Product{ID: f.node.Generate(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, productrepo.Provide().Insert(context.Background(), f.db, &product))
	return product.ID
}

func TestCurrentPricePicksLatestEffectiveVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.product(t, "Coca")

	past := f.clock.Now().Add(-48 * time.Hour)
	recent := f.clock.Now().Add(-time.Hour)
	future := f.clock.Now().Add(24 * time.Hour)

	_, err := f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: productID, PriceCents: 90, StartsAt: &past})
	require.NoError(t, err)
	_, err = f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: productID, PriceCents: 100, StartsAt: &recent})
	require.NoError(t, err)
	_, err = f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: productID, PriceCents: 150, StartsAt: &future})
	require.NoError(t, err)

	current, err := f.svc.CurrentPrice(ctx, productID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(100), current.PriceCents)

	earlier, err := f.svc.CurrentPrice(ctx, productID, past.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(90), earlier.PriceCents)

	later, err := f.svc.CurrentPrice(ctx, productID, future)
	require.NoError(t, err)
	assert.Equal(t, int64(150), later.PriceCents)
}

func TestCurrentPriceBreaksTiesByInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.product(t, "Eau")

	startsAt := f.clock.Now().Add(-time.Hour)
	_, err := f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: productID, PriceCents: 60, StartsAt: &startsAt})
	require.NoError(t, err)
	_, err = f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: productID, PriceCents: 70, StartsAt: &startsAt})
	require.NoError(t, err)

	current, err := f.svc.CurrentPrice(ctx, productID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(70), current.PriceCents)

	history, err := f.svc.History(ctx, productID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(70), history[0].PriceCents)
}

func TestSetPriceDefaultsToNow(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "Ice Tea")

	version, err := f.svc.SetPrice(context.Background(), domain.SetPriceRequest{ProductID: productID, PriceCents: 120})
	require.NoError(t, err)
	assert.True(t, version.StartsAt.Equal(f.clock.Now()))
}

func TestCurrentPriceMissing(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "Coca")

	_, err := f.svc.CurrentPrice(context.Background(), productID, f.clock.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	future := f.clock.Now().Add(time.Hour)
	_, err = f.svc.SetPrice(context.Background(), domain.SetPriceRequest{ProductID: productID, PriceCents: 100, StartsAt: &future})
	require.NoError(t, err)

	_, err = f.svc.CurrentPrice(context.Background(), productID, f.clock.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPriceValidation(t *testing.T) {
	f := newFixture(t)
	productID := f.product(t, "Coca")

	_, err := f.svc.SetPrice(context.Background(), domain.SetPriceRequest{ProductID: productID, PriceCents: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = f.svc.SetPrice(context.Background(), domain.SetPriceRequest{ProductID: f.node.Generate(), PriceCents: 10})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.svc.SetPrice(context.Background(), domain.SetPriceRequest{PriceCents: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestCurrentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")
	eau := f.product(t, "Eau")
	f.product(t, "Unpriced")

	past := f.clock.Now().Add(-time.Hour)
	_, err := f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: coca, PriceCents: 80, StartsAt: &past})
	require.NoError(t, err)
	_, err = f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: coca, PriceCents: 100})
	require.NoError(t, err)
	_, err = f.svc.SetPrice(ctx, domain.SetPriceRequest{ProductID: eau, PriceCents: 60})
	require.NoError(t, err)

	prices, err := f.svc.CurrentPrices(ctx, nil, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, map[snowflake.ID]int64{coca: 100, eau: 60}, prices)
}
