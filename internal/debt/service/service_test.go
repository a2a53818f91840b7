package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	periodrepo "github.com/smallbiznis/kiosk/internal/billingperiod/repository"
	periodservice "github.com/smallbiznis/kiosk/internal/billingperiod/service"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/debt/domain"
	"github.com/smallbiznis/kiosk/internal/debt/repository"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	orderrepo "github.com/smallbiznis/kiosk/internal/order/repository"
	orderservice "github.com/smallbiznis/kiosk/internal/order/service"
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
	svc       domain.Service
	periodSvc billingperioddomain.Service
	orderSvc  orderdomain.Service
	stockSvc  stockdomain.Service
	db        *gorm.DB
	clock     *clock.FakeClock
	node      *snowflake.Node
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
	orderSvc := orderservice.New(orderservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: orderrepo.Provide(), UserRepo: userrepo.Provide(), PriceRepo: pricerepo.Provide(),
		PeriodRepo: periodrepo.Provide(), StockSvc: stockSvc,
	})
	periodSvc := periodservice.New(periodservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: periodrepo.Provide(), OrderRepo: orderrepo.Provide(), DebtRepo: repository.Provide(),
	})
	svc := New(Params{
		DB: db, Log: log, Clock: clk,
		Repo: repository.Provide(), OrderRepo: orderrepo.Provide(),
		PeriodRepo: periodrepo.Provide(), UserRepo: userrepo.Provide(),
	})
	return fixture{svc: svc, periodSvc: periodSvc, orderSvc: orderSvc, stockSvc: stockSvc, db: db, clock: clk, node: node}
}

func (f fixture) user(t *testing.T, name string) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	user := userdomain.User{ID: f.node.Generate(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, userrepo.Provide().Insert(context.Background(), f.db, &user))
	return user.ID
}

func (f fixture) product(t *testing.T, name string, priceCents, qty int64) snowflake.ID {
	t.Helper()
	ctx := context.Background()
	now := f.clock.Now()
	product := productdomain.Product{ID: f.node.Generate(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, productrepo.Provide().Insert(ctx, f.db, &product))
	version := pricedomain.PriceVersion{ID: f.node.Generate(), ProductID: product.ID, PriceCents: priceCents, StartsAt: now, CreatedAt: now}
	require.NoError(t, pricerepo.Provide().Insert(ctx, f.db, &version))
	_, err := f.stockSvc.Restock(ctx, stockdomain.RestockRequest{Items: []stockdomain.RestockItem{{ProductID: product.ID, Qty: qty}}})
	require.NoError(t, err)
	return product.ID
}

func (f fixture) order(t *testing.T, userID, productID snowflake.ID, qty int64) {
	t.Helper()
	_, err := f.orderSvc.CommitOrder(context.Background(), orderdomain.CommitRequest{
		UserID: userID,
		Items:  []orderdomain.CommitItem{{ProductID: productID, Qty: qty}},
	})
	require.NoError(t, err)
}

func (f fixture) close(t *testing.T) billingperioddomain.ClosePeriodResult {
	t.Helper()
	f.clock.Advance(time.Minute)
	result, err := f.periodSvc.ClosePeriod(context.Background(), billingperioddomain.ClosePeriodRequest{})
	require.NoError(t, err)
	return result
}

func TestMarkPaidAndUnpaidStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "U")
	coca := f.product(t, "Coca", 100, 10)
	f.order(t, u, coca, 5)
	period := f.close(t)

	f.clock.Advance(time.Hour)
	paid, err := f.svc.MarkPaid(ctx, period.PeriodID, u)
	require.NoError(t, err)
	assert.Equal(t, domain.DebtStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(f.clock.Now()))
	assert.Equal(t, int64(500), paid.AmountCents)

	_, err = f.svc.MarkPaid(ctx, period.PeriodID, u)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	unpaid, err := f.svc.MarkUnpaid(ctx, period.PeriodID, u)
	require.NoError(t, err)
	assert.Equal(t, domain.DebtStatusInvoiced, unpaid.Status)
	assert.Nil(t, unpaid.PaidAt)
	assert.Equal(t, int64(500), unpaid.AmountCents)

	_, err = f.svc.MarkUnpaid(ctx, period.PeriodID, u)
	assert.ErrorIs(t, err, domain.ErrAlreadyInvoiced)
}

func TestMarkPaidUnknownDebt(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "U")
	period := f.close(t)

	_, err := f.svc.MarkPaid(context.Background(), period.PeriodID, u)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.MarkUnpaid(context.Background(), f.node.Generate(), u)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.MarkPaid(context.Background(), 0, u)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListAndSummaryByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	coca := f.product(t, "Coca", 100, 50)

	f.order(t, alice, coca, 1)
	f.order(t, bob, coca, 2)
	first := f.close(t)
	f.order(t, alice, coca, 3)
	second := f.close(t)

	_, err := f.svc.MarkPaid(ctx, first.PeriodID, bob)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, second.PeriodID, all[0].PeriodID)
	assert.Equal(t, "Alice", all[1].UserName)
	assert.Equal(t, "Bob", all[2].UserName)
	assert.True(t, all[0].EndTs.Equal(second.EndTs))

	invoiced := domain.DebtStatusInvoiced
	open, err := f.svc.List(ctx, domain.ListRequest{Status: &invoiced, UserID: alice})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	bogus := domain.DebtStatus("void")
	_, err = f.svc.List(ctx, domain.ListRequest{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	summary, err := f.svc.SummaryByUser(ctx, domain.DebtStatusInvoiced)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, alice, summary[0].UserID)
	assert.Equal(t, int64(2), summary[0].PeriodsCount)
	assert.Equal(t, int64(400), summary[0].TotalCents)

	paid, err := f.svc.SummaryByUser(ctx, domain.DebtStatusPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, bob, paid[0].UserID)
	assert.Equal(t, int64(200), paid[0].TotalCents)
}

func TestUserDebtSummaryCombinesClosedAndOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "U")
	coca := f.product(t, "Coca", 100, 50)
	eau := f.product(t, "Eau", 60, 50)

	f.order(t, u, coca, 2)
	paidPeriod := f.close(t)
	f.order(t, u, coca, 1)
	f.order(t, u, eau, 1)
	f.close(t)
	f.order(t, u, eau, 3)

	_, err := f.svc.MarkPaid(ctx, paidPeriod.PeriodID, u)
	require.NoError(t, err)

	summary, err := f.svc.UserDebtSummary(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(160), summary.UnpaidClosedCents)
	assert.Equal(t, int64(180), summary.OpenCents)
	assert.Equal(t, int64(340), summary.TotalCents)

	require.Len(t, summary.Items, 2)
	assert.Equal(t, eau, summary.Items[0].ProductID)
	assert.Equal(t, int64(4), summary.Items[0].Qty)
	assert.Equal(t, coca, summary.Items[1].ProductID)
	assert.Equal(t, int64(1), summary.Items[1].Qty)
}

func TestOpenTotalMovesIntoDebtOnClosure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "U")
	coca := f.product(t, "Coca", 100, 50)

	f.order(t, u, coca, 4)
	before, err := f.svc.UserDebtSummary(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(400), before.OpenCents)
	assert.Equal(t, int64(0), before.UnpaidClosedCents)

	f.close(t)
	after, err := f.svc.UserDebtSummary(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.OpenCents)
	assert.Equal(t, int64(400), after.UnpaidClosedCents)
	assert.Equal(t, before.TotalCents, after.TotalCents)
}

func TestUserDebtSummaryUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UserDebtSummary(context.Background(), f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCurrentSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	f.user(t, "Idle")
	coca := f.product(t, "Coca", 100, 50)

	f.order(t, alice, coca, 1)
	f.close(t)
	f.order(t, alice, coca, 1)
	f.order(t, bob, coca, 5)

	summary, err := f.svc.CurrentSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, bob, summary[0].UserID)
	assert.Equal(t, "Bob", summary[0].UserName)
	assert.Equal(t, int64(500), summary[0].OpenCents)
	assert.Equal(t, alice, summary[1].UserID)
	assert.Equal(t, int64(100), summary[1].UnpaidClosedCents)
	assert.Equal(t, int64(100), summary[1].OpenCents)
	assert.Equal(t, int64(200), summary[1].TotalCents)
}
