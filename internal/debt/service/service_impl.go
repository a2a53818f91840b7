package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/debt/domain"
	"github.com/smallbiznis/kiosk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       domain.Repository
	OrderRepo  orderdomain.Repository
	PeriodRepo billingperioddomain.Repository
	UserRepo   userdomain.Repository
	Metrics    *metrics.Metrics    `optional:"true"`
	AuditSvc   auditdomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       domain.Repository
	orderRepo  orderdomain.Repository
	periodRepo billingperioddomain.Repository
	userRepo   userdomain.Repository
	metrics    *metrics.Metrics
	auditSvc   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("debt.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		orderRepo:  p.OrderRepo,
		periodRepo: p.PeriodRepo,
		userRepo:   p.UserRepo,
		metrics:    p.Metrics,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) MarkPaid(ctx context.Context, periodID, userID snowflake.ID) (domain.PeriodDebt, error) {
	return s.transition(ctx, periodID, userID, domain.DebtStatusInvoiced, domain.DebtStatusPaid)
}

func (s *Service) MarkUnpaid(ctx context.Context, periodID, userID snowflake.ID) (domain.PeriodDebt, error) {
	return s.transition(ctx, periodID, userID, domain.DebtStatusPaid, domain.DebtStatusInvoiced)
}

// transition applies the only two allowed moves: invoiced to paid, which
// stamps paid_at, and paid to invoiced, which clears it.
func (s *Service) transition(ctx context.Context, periodID, userID snowflake.ID, from, to domain.DebtStatus) (domain.PeriodDebt, error) {
	if periodID == 0 || userID == 0 {
		return domain.PeriodDebt{}, domain.ErrInvalidID
	}

	var debt domain.PeriodDebt
	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var paidAt *time.Time
		if to == domain.DebtStatusPaid {
			now := s.clock.Now().UTC()
			paidAt = &now
		}

		updated, err := s.repo.Transition(ctx, tx, periodID, userID, from, to, paidAt)
		if err != nil {
			return err
		}

		current, err := s.repo.Find(ctx, tx, periodID, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !updated {
			if current.Status == domain.DebtStatusPaid {
				return domain.ErrAlreadyPaid
			}
			return domain.ErrAlreadyInvoiced
		}
		debt = *current
		return nil
	})
	if err != nil {
		return domain.PeriodDebt{}, err
	}

	s.metrics.RecordDebtTransition(ctx, string(to))
	s.log.Info("debt status changed",
		zap.String("period_id", periodID.String()),
		zap.String("user_id", userID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	if s.auditSvc != nil {
		action := auditdomain.ActionDebtPaid
		if to == domain.DebtStatusInvoiced {
			action = auditdomain.ActionDebtUnpaid
		}
		_ = s.auditSvc.AuditLog(ctx, action, "period_debt", periodID.String()+":"+userID.String(), map[string]any{
			"period_id":    periodID.String(),
			"user_id":      userID.String(),
			"amount_cents": debt.AmountCents,
		})
	}
	return debt, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.DebtView, error) {
	filter := domain.ListFilter{UserID: req.UserID}
	if req.Status != nil {
		status, err := domain.ParseStatus(string(*req.Status))
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	debts, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if debts == nil {
		debts = []domain.DebtView{}
	}
	return debts, nil
}

func (s *Service) SummaryByUser(ctx context.Context, status domain.DebtStatus) ([]domain.UserDebtTotal, error) {
	status, err := domain.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.SummaryByUser(ctx, s.db, status, 0)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []domain.UserDebtTotal{}
	}
	return totals, nil
}

func (s *Service) UserDebtSummary(ctx context.Context, userID snowflake.ID) (domain.UserDebtSummary, error) {
	if userID == 0 {
		return domain.UserDebtSummary{}, domain.ErrInvalidID
	}

	var summary domain.UserDebtSummary
	// One read transaction keeps the closed and open parts consistent with
	// each other when a closure commits concurrently.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		latest, err := s.periodRepo.Latest(ctx, tx)
		if err != nil {
			return err
		}
		openSince := billingperioddomain.WatermarkOf(latest)

		closed, err := s.repo.SummaryByUser(ctx, tx, domain.DebtStatusInvoiced, userID)
		if err != nil {
			return err
		}
		open, err := s.orderRepo.SumTotalsByUser(ctx, tx, orderdomain.Window{Start: openSince}, &userID)
		if err != nil {
			return err
		}

		summary = domain.UserDebtSummary{
			UserID:    user.ID,
			UserName:  user.Name,
			UserEmail: user.Email,
			OpenSince: openSince,
		}
		for _, total := range closed {
			summary.UnpaidClosedCents += total.TotalCents
		}
		for _, total := range open {
			summary.OpenCents += total.TotalCents
		}
		summary.TotalCents = summary.UnpaidClosedCents + summary.OpenCents

		windows, err := s.repo.Windows(ctx, tx, userID, domain.DebtStatusInvoiced)
		if err != nil {
			return err
		}
		orderWindows := make([]orderdomain.Window, 0, len(windows)+1)
		for _, w := range windows {
			end := w.EndTs
			orderWindows = append(orderWindows, orderdomain.Window{Start: w.StartTs, End: &end})
		}
		orderWindows = append(orderWindows, orderdomain.Window{Start: openSince})

		items, err := s.mergeItems(ctx, tx, userID, orderWindows)
		if err != nil {
			return err
		}
		summary.Items = items
		return nil
	})
	if err != nil {
		return domain.UserDebtSummary{}, err
	}
	return summary, nil
}

func (s *Service) mergeItems(ctx context.Context, tx *gorm.DB, userID snowflake.ID, windows []orderdomain.Window) ([]domain.DebtItem, error) {
	merged := make(map[snowflake.ID]*domain.DebtItem)
	for _, window := range windows {
		totals, err := s.orderRepo.SumItems(ctx, tx, window, userID)
		if err != nil {
			return nil, err
		}
		for _, total := range totals {
			if existing, ok := merged[total.ProductID]; ok {
				existing.Qty += total.Qty
				continue
			}
			merged[total.ProductID] = &domain.DebtItem{
				ProductID: total.ProductID,
				Name:      total.Name,
				Qty:       total.Qty,
			}
		}
	}

	items := make([]domain.DebtItem, 0, len(merged))
	for _, item := range merged {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Qty != items[j].Qty {
			return items[i].Qty > items[j].Qty
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}

func (s *Service) CurrentSummary(ctx context.Context) ([]domain.UserDebtSummary, error) {
	var summaries []domain.UserDebtSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		latest, err := s.periodRepo.Latest(ctx, tx)
		if err != nil {
			return err
		}
		openSince := billingperioddomain.WatermarkOf(latest)

		closed, err := s.repo.SummaryByUser(ctx, tx, domain.DebtStatusInvoiced, 0)
		if err != nil {
			return err
		}
		open, err := s.orderRepo.SumTotalsByUser(ctx, tx, orderdomain.Window{Start: openSince}, nil)
		if err != nil {
			return err
		}

		byUser := make(map[snowflake.ID]*domain.UserDebtSummary)
		get := func(userID snowflake.ID) *domain.UserDebtSummary {
			if summary, ok := byUser[userID]; ok {
				return summary
			}
			summary := &domain.UserDebtSummary{UserID: userID, OpenSince: openSince}
			byUser[userID] = summary
			return summary
		}
		for _, total := range closed {
			get(total.UserID).UnpaidClosedCents += total.TotalCents
		}
		for _, total := range open {
			get(total.UserID).OpenCents += total.TotalCents
		}

		summaries = make([]domain.UserDebtSummary, 0, len(byUser))
		for userID, summary := range byUser {
			summary.TotalCents = summary.UnpaidClosedCents + summary.OpenCents
			if summary.TotalCents == 0 {
				continue
			}
			user, err := s.userRepo.FindByID(ctx, tx, userID)
			if err != nil {
				return err
			}
			if user != nil {
				summary.UserName = user.Name
				summary.UserEmail = user.Email
			}
			summaries = append(summaries, *summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalCents != summaries[j].TotalCents {
			return summaries[i].TotalCents > summaries[j].TotalCents
		}
		return summaries[i].UserName < summaries[j].UserName
	})
	return summaries, nil
}
