package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	obsmetrics "github.com/smallbiznis/kiosk/internal/observability/metrics"
	"github.com/smallbiznis/kiosk/internal/scheduler/guard"
	"go.uber.org/zap"
)

const lockClosePeriod = "scheduler:close_period"

// ClosePeriodJob closes the open window once it is older than the
// configured minimum age.
func (s *Scheduler) ClosePeriodJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobClosePeriod)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	closure := s.kioskConfig().Closure
	now := s.clock.Now().UTC()

	watermark, err := s.periodSvc.Watermark(ctx, nil)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.watermark.failed", err)
		return err
	}
	if err := guard.EnsurePeriodCanAutoClose(closure.AutoClose, watermark, now, closure.MinPeriodAge); err != nil {
		run.Skip(err.Error())
		return nil
	}

	return s.withLock(ctx, lockClosePeriod, func(ctx context.Context) error {
		req := billingperioddomain.ClosePeriodRequest{}
		if comment := strings.TrimSpace(closure.Comment); comment != "" {
			req.Comment = &comment
		}

		result, err := s.periodSvc.ClosePeriod(ctx, req)
		switch {
		case errors.Is(err, billingperioddomain.ErrNothingToClose),
			errors.Is(err, billingperioddomain.ErrConcurrentClosure):
			run.Skip(err.Error())
			return nil
		case err != nil:
			s.logSchedulerError(ctx, run, "scheduler.period.close.failed", err)
			return err
		}

		run.AddProcessed(1)
		s.logger(ctx).Info("scheduler.period.closed",
			zap.String("period_id", result.PeriodID.String()),
			zap.Time("start_ts", result.StartTs),
			zap.Time("end_ts", result.EndTs),
			zap.Int("debts_created", result.CreatedCount),
		)
		return nil
	})
}

// StockReconcileJob publishes how many products have drifted stock levels.
func (s *Scheduler) StockReconcileJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobStockReconcile)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	drifts, err := s.stockSvc.Reconcile(ctx)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.stock.reconcile.failed", err)
		return err
	}
	run.AddProcessed(len(drifts))
	obsmetrics.Scheduler().SetStockDrift(len(drifts))
	return nil
}

// withLock runs fn while holding key. Without a lock backend fn runs
// directly; when another process holds the lock the job is skipped.
func (s *Scheduler) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return err
	}
	if !ok {
		jobRunFromContext(ctx).Skip("lock_held")
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.logger(ctx).Warn("scheduler.lock.release.failed", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn(ctx)
}
