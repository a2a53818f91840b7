package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/clock"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	productrepo "github.com/smallbiznis/kiosk/internal/product/repository"
	"github.com/smallbiznis/kiosk/internal/stock/domain"
	"github.com/smallbiznis/kiosk/internal/stock/repository"
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

func (f fixture) level(t *testing.T, productID snowflake.ID) int64 {
	t.Helper()
	level, err := f.svc.Level(context.Background(), nil, productID)
	require.NoError(t, err)
	return level.Qty
}

func (f fixture) assertBalanced(t *testing.T) {
	t.Helper()
	drifts, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestRestockAndSaleKeepLevelEqualToMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")

	_, err := f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: 10}}})
	require.NoError(t, err)

	orderID := f.node.Generate()
	err = f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Adjust(ctx, tx, domain.AdjustRequest{
			ProductID: coca,
			Delta:     -3,
			Reason:    domain.ReasonSale,
			RefID:     &orderID,
		})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), f.level(t, coca))
	f.assertBalanced(t)

	moves, err := f.svc.ListMoves(ctx, domain.MoveFilter{ProductID: coca, Reason: domain.ReasonSale})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, int64(-3), moves[0].DeltaQty)
	require.NotNil(t, moves[0].RefID)
	assert.Equal(t, orderID, *moves[0].RefID)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")

	_, err := f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: 2}}})
	require.NoError(t, err)

	orderID := f.node.Generate()
	err = f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Adjust(ctx, tx, domain.AdjustRequest{
			ProductID: coca,
			Delta:     -3,
			Reason:    domain.ReasonSale,
			RefID:     &orderID,
		})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.level(t, coca))
	f.assertBalanced(t)
}

func TestRestockRespectsLevelCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")

	_, err := f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: domain.MaxLevelQty + 1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)

	_, err = f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: domain.MaxLevelQty}}})
	require.NoError(t, err)

	_, err = f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: 1}}})
	assert.ErrorIs(t, err, domain.ErrStockLimit)
	assert.Equal(t, domain.MaxLevelQty, f.level(t, coca))
	f.assertBalanced(t)
}

func TestAdjustValidatesReasonAndDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")
	orderID := f.node.Generate()

	cases := []struct {
		name string
		req  domain.AdjustRequest
		err  error
	}{
		{"zero delta", domain.AdjustRequest{ProductID: coca, Delta: 0, Reason: domain.ReasonRestock}, domain.ErrInvalidDelta},
		{"negative restock", domain.AdjustRequest{ProductID: coca, Delta: -1, Reason: domain.ReasonRestock}, domain.ErrInvalidReason},
		{"positive sale", domain.AdjustRequest{ProductID: coca, Delta: 1, Reason: domain.ReasonSale, RefID: &orderID}, domain.ErrInvalidReason},
		{"sale without order", domain.AdjustRequest{ProductID: coca, Delta: -1, Reason: domain.ReasonSale}, domain.ErrInvalidReason},
		{"unknown reason", domain.AdjustRequest{ProductID: coca, Delta: 1, Reason: "gift"}, domain.ErrInvalidReason},
		{"missing product", domain.AdjustRequest{Delta: 1, Reason: domain.ReasonRestock}, domain.ErrInvalidProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Adjust(ctx, f.db, tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRestockIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")

	_, err := f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{
		{ProductID: coca, Qty: 5},
		{ProductID: f.node.Generate(), Qty: 5},
	}})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, int64(0), f.level(t, coca))

	moves, err := f.svc.ListMoves(ctx, domain.MoveFilter{ProductID: coca})
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestRestockValidation(t *testing.T) {
	f := newFixture(t)
	coca := f.product(t, "Coca")

	_, err := f.svc.Restock(context.Background(), domain.RestockRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyRestock)

	_, err = f.svc.Restock(context.Background(), domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: 0}}})
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)
}

func TestRestockRecordsComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")
	comment := "  livraison  "

	moves, err := f.svc.Restock(ctx, domain.RestockRequest{
		Items:   []domain.RestockItem{{ProductID: coca, Qty: 4}},
		Comment: &comment,
	})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.NotNil(t, moves[0].Comment)
	assert.Equal(t, "livraison", *moves[0].Comment)
	assert.Nil(t, moves[0].RefID)
}

func TestReconcileReportsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coca := f.product(t, "Coca")

	_, err := f.svc.Restock(ctx, domain.RestockRequest{Items: []domain.RestockItem{{ProductID: coca, Qty: 4}}})
	require.NoError(t, err)
	require.NoError(t, f.db.Exec(`UPDATE stock_levels SET qty = 9 WHERE product_id = ?`, coca).Error)

	drifts, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, coca, drifts[0].ProductID)
	assert.Equal(t, int64(9), drifts[0].Qty)
	assert.Equal(t, int64(4), drifts[0].MovesQty)
}

func TestLevelOfUnknownProductIsZero(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, int64(0), f.level(t, f.node.Generate()))
}
