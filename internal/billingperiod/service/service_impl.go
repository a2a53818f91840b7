package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	debtdomain "github.com/smallbiznis/kiosk/internal/debt/domain"
	"github.com/smallbiznis/kiosk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	OrderRepo orderdomain.Repository
	DebtRepo  debtdomain.Repository
	Metrics   *metrics.Metrics    `optional:"true"`
	AuditSvc  auditdomain.Service `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	orderRepo orderdomain.Repository
	debtRepo  debtdomain.Repository
	metrics   *metrics.Metrics
	auditSvc  auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("billingperiod.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		orderRepo: p.OrderRepo,
		debtRepo:  p.DebtRepo,
		metrics:   p.Metrics,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) ClosePeriod(ctx context.Context, req domain.ClosePeriodRequest) (domain.ClosePeriodResult, error) {
	var result domain.ClosePeriodResult
	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		start, err := s.Watermark(ctx, tx)
		if err != nil {
			return err
		}
		end := s.clock.Now().UTC()
		if !end.After(start) {
			return domain.ErrNothingToClose
		}

		totals, err := s.orderRepo.SumTotalsByUser(ctx, tx, orderdomain.Window{Start: start, End: &end}, nil)
		if err != nil {
			return err
		}

		period := domain.BillingPeriod{
			ID:        s.genID.Generate(),
			StartTs:   start,
			EndTs:     end,
			Comment:   trimmed(req.Comment),
			CreatedAt: end,
		}
		if err := s.repo.Insert(ctx, tx, &period); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrConcurrentClosure
			}
			return err
		}

		debts := make([]debtdomain.PeriodDebt, 0, len(totals))
		for _, total := range totals {
			if total.TotalCents <= 0 {
				continue
			}
			debts = append(debts, debtdomain.PeriodDebt{
				PeriodID:    period.ID,
				UserID:      total.UserID,
				AmountCents: total.TotalCents,
				Status:      debtdomain.DebtStatusInvoiced,
				GeneratedAt: end,
			})
		}
		if err := s.debtRepo.InsertBatch(ctx, tx, debts); err != nil {
			return err
		}

		result = domain.ClosePeriodResult{
			PeriodID:     period.ID,
			StartTs:      period.StartTs,
			EndTs:        period.EndTs,
			CreatedCount: len(debts),
		}
		return nil
	})
	if err != nil {
		return domain.ClosePeriodResult{}, err
	}

	s.metrics.RecordPeriodClosed(ctx, result.CreatedCount)
	s.log.Info("billing period closed",
		zap.String("period_id", result.PeriodID.String()),
		zap.Time("start_ts", result.StartTs),
		zap.Time("end_ts", result.EndTs),
		zap.Int("debts_created", result.CreatedCount),
	)
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionPeriodClose, "billing_period", result.PeriodID.String(), map[string]any{
			"start_ts":      result.StartTs.Format(time.RFC3339),
			"end_ts":        result.EndTs.Format(time.RFC3339),
			"created_count": result.CreatedCount,
		})
	}
	return result, nil
}

func (s *Service) Watermark(ctx context.Context, tx *gorm.DB) (time.Time, error) {
	if tx == nil {
		tx = s.db
	}
	latest, err := s.repo.Latest(ctx, tx)
	if err != nil {
		return time.Time{}, err
	}
	return domain.WatermarkOf(latest), nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.BillingPeriod, error) {
	if id == 0 {
		return domain.BillingPeriod{}, domain.ErrInvalidID
	}
	period, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.BillingPeriod{}, err
	}
	if period == nil {
		return domain.BillingPeriod{}, domain.ErrNotFound
	}
	return *period, nil
}

func (s *Service) List(ctx context.Context) ([]domain.BillingPeriod, error) {
	periods, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if periods == nil {
		periods = []domain.BillingPeriod{}
	}
	return periods, nil
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
