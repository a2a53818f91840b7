package service

import (
	"context"
	"errors"
	"math"

	"github.com/bwmarrin/snowflake"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/observability/metrics"
	"github.com/smallbiznis/kiosk/internal/order/domain"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const saleComment = "kiosk sale"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	UserRepo   userdomain.Repository
	PriceRepo  pricedomain.Repository
	PeriodRepo billingperioddomain.Repository
	StockSvc   stockdomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	userRepo   userdomain.Repository
	priceRepo  pricedomain.Repository
	periodRepo billingperioddomain.Repository
	stockSvc   stockdomain.Service
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		userRepo:   p.UserRepo,
		priceRepo:  p.PriceRepo,
		periodRepo: p.PeriodRepo,
		stockSvc:   p.StockSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) CommitOrder(ctx context.Context, req domain.CommitRequest) (domain.CommitResult, error) {
	lines, err := mergeLines(req)
	if err != nil {
		return domain.CommitResult{}, err
	}

	var result domain.CommitResult
	err = dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var err error
		result, err = s.commit(ctx, tx, req.UserID, lines)
		return err
	})
	if err != nil {
		s.metrics.RecordOrderRejected(ctx, rejectReason(err))
		s.log.Info("order rejected",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
		return domain.CommitResult{}, err
	}

	s.metrics.RecordOrderCommitted(ctx, result.TotalCents)
	for range result.Items {
		s.metrics.RecordStockMove(ctx, string(stockdomain.ReasonSale))
	}
	s.log.Info("order committed",
		zap.String("order_id", result.OrderID.String()),
		zap.String("user_id", result.UserID.String()),
		zap.Int64("total_cents", result.TotalCents),
		zap.Int("lines", len(result.Items)),
	)
	return result, nil
}

func (s *Service) commit(ctx context.Context, tx *gorm.DB, userID snowflake.ID, lines []domain.CommitItem) (domain.CommitResult, error) {
	user, err := s.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		return domain.CommitResult{}, err
	}
	if user == nil {
		return domain.CommitResult{}, domain.ErrUserNotFound
	}
	if !user.Active {
		return domain.CommitResult{}, domain.ErrUserDisabled
	}

	now := s.clock.Now().UTC()
	orderID := s.genID.Generate()

	items := make([]domain.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		level, err := s.stockSvc.Level(ctx, tx, line.ProductID)
		if err != nil {
			return domain.CommitResult{}, err
		}
		if level.Qty < line.Qty {
			return domain.CommitResult{}, &domain.OutOfStockError{
				ProductID: line.ProductID,
				Requested: line.Qty,
				Available: level.Qty,
			}
		}

		price, err := s.priceRepo.Effective(ctx, tx, line.ProductID, now)
		if err != nil {
			return domain.CommitResult{}, err
		}
		if price == nil {
			return domain.CommitResult{}, &domain.PriceMissingError{ProductID: line.ProductID}
		}

		amount, ok := lineTotal(line.Qty, price.PriceCents)
		if !ok || total > math.MaxInt64-amount {
			return domain.CommitResult{}, domain.ErrInvalidQuantity
		}
		total += amount
		items = append(items, domain.OrderItem{
			OrderID:        orderID,
			ProductID:      line.ProductID,
			Qty:            line.Qty,
			UnitPriceCents: price.PriceCents,
		})
	}

	// The order must land in the open window even if the clock is behind
	// the latest closure.
	latest, err := s.periodRepo.Latest(ctx, tx)
	if err != nil {
		return domain.CommitResult{}, err
	}
	createdAt := now
	if watermark := billingperioddomain.WatermarkOf(latest); createdAt.Before(watermark) {
		createdAt = watermark
	}

	order := domain.Order{
		ID:         orderID,
		UserID:     user.ID,
		CreatedAt:  createdAt,
		TotalCents: total,
		Status:     domain.OrderStatusCommitted,
	}
	if err := s.repo.InsertOrder(ctx, tx, &order); err != nil {
		return domain.CommitResult{}, err
	}
	if err := s.repo.InsertItems(ctx, tx, items); err != nil {
		return domain.CommitResult{}, err
	}

	comment := saleComment
	for _, item := range items {
		_, err := s.stockSvc.Adjust(ctx, tx, stockdomain.AdjustRequest{
			ProductID: item.ProductID,
			Delta:     -item.Qty,
			Reason:    stockdomain.ReasonSale,
			RefID:     &orderID,
			Comment:   &comment,
		})
		if errors.Is(err, stockdomain.ErrInsufficientStock) {
			level, _ := s.stockSvc.Level(ctx, tx, item.ProductID)
			return domain.CommitResult{}, &domain.OutOfStockError{
				ProductID: item.ProductID,
				Requested: item.Qty,
				Available: level.Qty,
			}
		}
		if err != nil {
			return domain.CommitResult{}, err
		}
	}

	return domain.CommitResult{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		CreatedAt:  order.CreatedAt,
		Items:      items,
	}, nil
}

// mergeLines validates the request and folds repeated products into one
// line, keeping first-seen order.
func mergeLines(req domain.CommitRequest) ([]domain.CommitItem, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	index := make(map[snowflake.ID]int, len(req.Items))
	lines := make([]domain.CommitItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == 0 {
			return nil, domain.ErrInvalidProduct
		}
		if item.Qty <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if i, ok := index[item.ProductID]; ok {
			lines[i].Qty += item.Qty
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}
	return lines, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrPriceMissing):
		return "price_missing"
	default:
		return "error"
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.OrderDetail, error) {
	if id == 0 {
		return domain.OrderDetail{}, domain.ErrInvalidID
	}
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if order == nil {
		return domain.OrderDetail{}, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	return domain.OrderDetail{Order: *order, Items: items}, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]domain.Order, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	orders, err := s.repo.ListByUser(ctx, s.db, userID, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func lineTotal(qty, unitCents int64) (int64, bool) {
	if unitCents != 0 && qty > math.MaxInt64/unitCents {
		return 0, false
	}
	return qty * unitCents, true
}
