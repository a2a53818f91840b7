package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/observability/metrics"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	"github.com/smallbiznis/kiosk/internal/stock/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	Metrics     *metrics.Metrics    `optional:"true"`
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
	metrics     *metrics.Metrics
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("stock.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		metrics:     p.Metrics,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Adjust(ctx context.Context, tx *gorm.DB, req domain.AdjustRequest) (domain.StockMove, error) {
	if req.ProductID == 0 {
		return domain.StockMove{}, domain.ErrInvalidProduct
	}
	if req.Delta == 0 || req.Delta > domain.MaxLevelQty || req.Delta < -domain.MaxLevelQty {
		return domain.StockMove{}, domain.ErrInvalidDelta
	}
	if err := validateReason(req); err != nil {
		return domain.StockMove{}, err
	}

	now := s.clock.Now().UTC()
	if err := s.repo.EnsureLevel(ctx, tx, req.ProductID, now); err != nil {
		return domain.StockMove{}, err
	}

	updated, err := s.repo.ApplyDelta(ctx, tx, req.ProductID, req.Delta, now)
	if err != nil {
		return domain.StockMove{}, err
	}
	if !updated {
		if req.Delta > 0 {
			return domain.StockMove{}, domain.ErrStockLimit
		}
		return domain.StockMove{}, domain.ErrInsufficientStock
	}

	move := domain.StockMove{
		ID:        s.genID.Generate(),
		ProductID: req.ProductID,
		DeltaQty:  req.Delta,
		Reason:    req.Reason,
		RefID:     req.RefID,
		Comment:   trimmed(req.Comment),
		CreatedAt: now,
	}
	if err := s.repo.InsertMove(ctx, tx, &move); err != nil {
		return domain.StockMove{}, err
	}
	return move, nil
}

func validateReason(req domain.AdjustRequest) error {
	switch req.Reason {
	case domain.ReasonRestock:
		if req.Delta < 0 || req.RefID != nil {
			return domain.ErrInvalidReason
		}
	case domain.ReasonSale:
		if req.Delta > 0 || req.RefID == nil || *req.RefID == 0 {
			return domain.ErrInvalidReason
		}
	default:
		return domain.ErrInvalidReason
	}
	return nil
}

func (s *Service) Restock(ctx context.Context, req domain.RestockRequest) ([]domain.StockMove, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyRestock
	}
	for _, item := range req.Items {
		if item.ProductID == 0 {
			return nil, domain.ErrInvalidProduct
		}
		if item.Qty <= 0 || item.Qty > domain.MaxLevelQty {
			return nil, domain.ErrInvalidDelta
		}
	}

	moves := make([]domain.StockMove, 0, len(req.Items))
	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		for _, item := range req.Items {
			product, err := s.productRepo.FindByID(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrProductNotFound
			}

			move, err := s.Adjust(ctx, tx, domain.AdjustRequest{
				ProductID: item.ProductID,
				Delta:     item.Qty,
				Reason:    domain.ReasonRestock,
				Comment:   req.Comment,
			})
			if err != nil {
				return err
			}
			moves = append(moves, move)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, move := range moves {
		s.metrics.RecordStockMove(ctx, string(move.Reason))
		if s.auditSvc != nil {
			_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionStockRestock, "product", move.ProductID.String(), map[string]any{
				"move_id":   move.ID.String(),
				"delta_qty": move.DeltaQty,
			})
		}
	}
	s.log.Info("restock recorded", zap.Int("moves", len(moves)))
	return moves, nil
}

func (s *Service) Level(ctx context.Context, tx *gorm.DB, productID snowflake.ID) (domain.StockLevel, error) {
	if tx == nil {
		tx = s.db
	}
	level, err := s.repo.FindLevel(ctx, tx, productID)
	if err != nil {
		return domain.StockLevel{}, err
	}
	if level == nil {
		return domain.StockLevel{ProductID: productID}, nil
	}
	return *level, nil
}

func (s *Service) Levels(ctx context.Context, tx *gorm.DB) ([]domain.StockLevel, error) {
	if tx == nil {
		tx = s.db
	}
	return s.repo.ListLevels(ctx, tx)
}

func (s *Service) ListMoves(ctx context.Context, filter domain.MoveFilter) ([]domain.StockMove, error) {
	return s.repo.ListMoves(ctx, s.db, filter)
}

func (s *Service) Reconcile(ctx context.Context) ([]domain.Drift, error) {
	drifts, err := s.repo.Drifts(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for _, drift := range drifts {
		s.log.Warn("stock level drift",
			zap.String("product_id", drift.ProductID.String()),
			zap.Int64("qty", drift.Qty),
			zap.Int64("moves_qty", drift.MovesQty),
		)
	}
	return drifts, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
