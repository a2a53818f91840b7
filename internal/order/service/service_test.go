package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	periodrepo "github.com/smallbiznis/kiosk/internal/billingperiod/repository"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/order/domain"
	"github.com/smallbiznis/kiosk/internal/order/repository"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
	pricerepo "github.com/smallbiznis/kiosk/internal/price/repository"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	productrepo "github.com/smallbiznis/kiosk/internal/product/repository"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
	stockrepo "github.com/smallbiznis/kiosk/internal/stock/repository"
	stockservice "github.com/smallbiznis/kiosk/internal/stock/service"
	"github.com/smallbiznis/kiosk/internal/testutil"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	userrepo "github.com/smallbiznis/kiosk/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc      domain.Service
	stockSvc stockdomain.Service
	db       *gorm.DB
	clock    *clock.FakeClock
	node     *snowflake.Node
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := testutil.Clock()
	node := testutil.Node(t)
	log := zap.NewNop()

	stockSvc := stockservice.New(stockservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: stockrepo.Provide(), ProductRepo: productrepo.Provide(),
	})
	svc := New(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		UserRepo:   userrepo.Provide(),
		PriceRepo:  pricerepo.Provide(),
		PeriodRepo: periodrepo.Provide(),
		StockSvc:   stockSvc,
	})
	return fixture{svc: svc, stockSvc: stockSvc, db: db, clock: clk, node: node}
}

func (f fixture) user(t *testing.T, name string, active bool) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	user := userdomain.User{ID: f.node.Generate(), Name: name, Active: active, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, userrepo.Provide().Insert(context.Background(), f.db, &user))
	return user.ID
}

// product creates a product; a negative price leaves it unpriced.
func (f fixture) product(t *testing.T, name string, priceCents, qty int64) snowflake.ID {
	t.Helper()
	ctx := context.Background()
	now := f.clock.Now()
	product := productdomain.Product{ID: f.node.Generate(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, productrepo.Provide().Insert(ctx, f.db, &product))
	if priceCents >= 0 {
		version := pricedomain.PriceVersion{
			ID: f.node.Generate(), ProductID: product.ID, PriceCents: priceCents,
			StartsAt: now.Add(-time.Hour), CreatedAt: now,
		}
		require.NoError(t, pricerepo.Provide().Insert(ctx, f.db, &version))
	}
	if qty > 0 {
		_, err := f.stockSvc.Restock(ctx, stockdomain.RestockRequest{Items: []stockdomain.RestockItem{{ProductID: product.ID, Qty: qty}}})
		require.NoError(t, err)
	}
	return product.ID
}

func (f fixture) qty(t *testing.T, productID snowflake.ID) int64 {
	t.Helper()
	level, err := f.stockSvc.Level(context.Background(), nil, productID)
	require.NoError(t, err)
	return level.Qty
}

func (f fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}

func TestCommitOrderDecrementsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "U", true)
	coca := f.product(t, "Coca", 100, 10)

	result, err := f.svc.CommitOrder(ctx, domain.CommitRequest{
		UserID: userID,
		Items:  []domain.CommitItem{{ProductID: coca, Qty: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), result.TotalCents)
	assert.Equal(t, int64(7), f.qty(t, coca))

	moves, err := f.stockSvc.ListMoves(ctx, stockdomain.MoveFilter{ProductID: coca, Reason: stockdomain.ReasonSale})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, int64(-3), moves[0].DeltaQty)
	require.NotNil(t, moves[0].RefID)
	assert.Equal(t, result.OrderID, *moves[0].RefID)

	detail, err := f.svc.Get(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCommitted, detail.Status)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, int64(100), detail.Items[0].UnitPriceCents)

	drifts, err := f.stockSvc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestCommitOrderMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	userID := f.user(t, "U", true)
	coca := f.product(t, "Coca", 100, 10)
	eau := f.product(t, "Eau", 60, 20)

	result, err := f.svc.CommitOrder(context.Background(), domain.CommitRequest{
		UserID: userID,
		Items: []domain.CommitItem{
			{ProductID: coca, Qty: 1},
			{ProductID: eau, Qty: 2},
			{ProductID: coca, Qty: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(420), result.TotalCents)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(3), result.Items[0].Qty)
	assert.Equal(t, int64(7), f.qty(t, coca))
	assert.Equal(t, int64(18), f.qty(t, eau))
}

func TestCommitOrderIsAllOrNothing(t *testing.T) {
	t.Run("out of stock", func(t *testing.T) {
		f := newFixture(t)
		userID := f.user(t, "U", true)
		coca := f.product(t, "Coca", 100, 10)
		eau := f.product(t, "Eau", 60, 1)

		_, err := f.svc.CommitOrder(context.Background(), domain.CommitRequest{
			UserID: userID,
			Items:  []domain.CommitItem{{ProductID: coca, Qty: 2}, {ProductID: eau, Qty: 2}},
		})
		require.ErrorIs(t, err, domain.ErrOutOfStock)

		var stockErr *domain.OutOfStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, eau, stockErr.ProductID)
		assert.Equal(t, int64(2), stockErr.Requested)
		assert.Equal(t, int64(1), stockErr.Available)

		assert.Equal(t, int64(10), f.qty(t, coca))
		assert.Equal(t, int64(0), f.count(t, "orders"))
		assert.Equal(t, int64(0), f.count(t, "order_items"))
		assert.Equal(t, int64(2), f.count(t, "stock_moves"))
	})

	t.Run("price missing", func(t *testing.T) {
		f := newFixture(t)
		userID := f.user(t, "U", true)
		coca := f.product(t, "Coca", 100, 10)
		unpriced := f.product(t, "Unpriced", -1, 5)

		_, err := f.svc.CommitOrder(context.Background(), domain.CommitRequest{
			UserID: userID,
			Items:  []domain.CommitItem{{ProductID: coca, Qty: 1}, {ProductID: unpriced, Qty: 1}},
		})
		require.ErrorIs(t, err, domain.ErrPriceMissing)

		assert.Equal(t, int64(10), f.qty(t, coca))
		assert.Equal(t, int64(5), f.qty(t, unpriced))
		assert.Equal(t, int64(0), f.count(t, "orders"))
		assert.Equal(t, int64(2), f.count(t, "stock_moves"))
	})
}

func TestCommitOrderRejectsUnknownOrDisabledUser(t *testing.T) {
	f := newFixture(t)
	coca := f.product(t, "Coca", 100, 10)
	disabled := f.user(t, "Blocked", false)

	_, err := f.svc.CommitOrder(context.Background(), domain.CommitRequest{
		UserID: f.node.Generate(),
		Items:  []domain.CommitItem{{ProductID: coca, Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.svc.CommitOrder(context.Background(), domain.CommitRequest{
		UserID: disabled,
		Items:  []domain.CommitItem{{ProductID: coca, Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrUserDisabled)
	assert.Equal(t, int64(10), f.qty(t, coca))
}

func TestCommitOrderValidation(t *testing.T) {
	f := newFixture(t)
	userID := f.user(t, "U", true)
	coca := f.product(t, "Coca", 100, 10)

	cases := []struct {
		name string
		req  domain.CommitRequest
		err  error
	}{
		{"no user", domain.CommitRequest{Items: []domain.CommitItem{{ProductID: coca, Qty: 1}}}, domain.ErrInvalidUser},
		{"no items", domain.CommitRequest{UserID: userID}, domain.ErrEmptyOrder},
		{"zero qty", domain.CommitRequest{UserID: userID, Items: []domain.CommitItem{{ProductID: coca, Qty: 0}}}, domain.ErrInvalidQuantity},
		{"no product", domain.CommitRequest{UserID: userID, Items: []domain.CommitItem{{Qty: 1}}}, domain.ErrInvalidProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CommitOrder(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCommitOrderFreezesUnitPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "U", true)
	coca := f.product(t, "Coca", 100, 10)

	first, err := f.svc.CommitOrder(ctx, domain.CommitRequest{UserID: userID, Items: []domain.CommitItem{{ProductID: coca, Qty: 1}}})
	require.NoError(t, err)

	version := pricedomain.PriceVersion{ID: f.node.Generate(), ProductID: coca, PriceCents: 130, StartsAt: f.clock.Now(), CreatedAt: f.clock.Now()}
	require.NoError(t, pricerepo.Provide().Insert(ctx, f.db, &version))

	second, err := f.svc.CommitOrder(ctx, domain.CommitRequest{UserID: userID, Items: []domain.CommitItem{{ProductID: coca, Qty: 1}}})
	require.NoError(t, err)
	assert.Equal(t, int64(130), second.TotalCents)

	detail, err := f.svc.Get(ctx, first.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), detail.Items[0].UnitPriceCents)
	assert.Equal(t, int64(100), detail.TotalCents)
}

func TestCommitOrderLandsInOpenWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "U", true)
	coca := f.product(t, "Coca", 100, 10)

	watermark := f.clock.Now().Add(time.Minute)
	period := billingperioddomain.BillingPeriod{
		ID: f.node.Generate(), StartTs: billingperioddomain.Epoch, EndTs: watermark, CreatedAt: watermark,
	}
	require.NoError(t, periodrepo.Provide().Insert(ctx, f.db, &period))

	result, err := f.svc.CommitOrder(ctx, domain.CommitRequest{UserID: userID, Items: []domain.CommitItem{{ProductID: coca, Qty: 1}}})
	require.NoError(t, err)
	assert.True(t, result.CreatedAt.Equal(watermark))
}

func TestSumTotalsByUserUsesHalfOpenWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "U", true)
	v := f.user(t, "V", true)
	coca := f.product(t, "Coca", 100, 50)

	start := f.clock.Now()
	_, err := f.svc.CommitOrder(ctx, domain.CommitRequest{UserID: u, Items: []domain.CommitItem{{ProductID: coca, Qty: 2}}})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	end := f.clock.Now()
	_, err = f.svc.CommitOrder(ctx, domain.CommitRequest{UserID: v, Items: []domain.CommitItem{{ProductID: coca, Qty: 1}}})
	require.NoError(t, err)

	repo := repository.Provide()
	closed, err := repo.SumTotalsByUser(ctx, f.db, domain.Window{Start: start, End: &end}, nil)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, u, closed[0].UserID)
	assert.Equal(t, int64(200), closed[0].TotalCents)

	open, err := repo.SumTotalsByUser(ctx, f.db, domain.Window{Start: end}, &v)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int64(100), open[0].TotalCents)

	items, err := repo.SumItems(ctx, f.db, domain.Window{Start: start}, u)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Coca", items[0].Name)
	assert.Equal(t, int64(2), items[0].Qty)
}

func TestCommitOrderRejectsTotalOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "U", true)
	big := f.product(t, "Magnum", math.MaxInt64/2, 3)
	other := f.product(t, "Mini", math.MaxInt64/2, 1)

	_, err := f.svc.CommitOrder(ctx, domain.CommitRequest{
		UserID: userID,
		Items:  []domain.CommitItem{{ProductID: big, Qty: 3}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.CommitOrder(ctx, domain.CommitRequest{
		UserID: userID,
		Items: []domain.CommitItem{
			{ProductID: big, Qty: 2},
			{ProductID: other, Qty: 1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Equal(t, int64(0), f.count(t, "orders"))
	assert.Equal(t, int64(0), f.count(t, "order_items"))
	assert.Equal(t, int64(3), f.qty(t, big))
	assert.Equal(t, int64(1), f.qty(t, other))
}

func TestLineTotal(t *testing.T) {
	amount, ok := lineTotal(3, 100)
	assert.True(t, ok)
	assert.Equal(t, int64(300), amount)

	_, ok = lineTotal(math.MaxInt64/50, 100)
	assert.False(t, ok)

	amount, ok = lineTotal(5, 0)
	assert.True(t, ok)
	assert.Zero(t, amount)
}
