package scheduler

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	obscontext "github.com/smallbiznis/kiosk/internal/observability/context"
	obslogger "github.com/smallbiznis/kiosk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/kiosk/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	outcomeDone    = "done"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// jobRun tracks one execution of a job. Its id doubles as the request id so
// audit entries written by the job (period closure) can be traced back to it.
type jobRun struct {
	job        string
	runID      string
	startedAt  time.Time
	processed  int
	failures   int
	skipReason string
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.processed += count
}

func (r *jobRun) IncError() {
	if r == nil {
		return
	}
	r.failures++
}

// Skip records why the job did nothing this tick.
func (r *jobRun) Skip(reason string) {
	if r == nil {
		return
	}
	r.skipReason = reason
	obsmetrics.Scheduler().IncJobSkipped(r.job, reason)
}

func (r *jobRun) outcome() string {
	switch {
	case r.failures > 0:
		return outcomeFailed
	case r.skipReason != "":
		return outcomeSkipped
	default:
		return outcomeDone
	}
}

func (s *Scheduler) ensureJobRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing := jobRunFromContext(ctx); existing != nil {
		return ctx, existing, false
	}
	run := &jobRun{
		job:       job,
		runID:     ulid.Make().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	return obscontext.WithRequestID(ctx, run.runID), run, true
}

func jobRunFromContext(ctx context.Context) *jobRun {
	if ctx == nil {
		return nil
	}
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	if run == nil {
		return
	}
	s.logger(ctx).Debug("scheduler.job.start", zap.String("job", run.job), zap.String("run_id", run.runID))
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	if run == nil {
		return
	}
	outcome := run.outcome()
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
		zap.String("outcome", outcome),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("processed_count", run.processed),
	}
	if run.skipReason != "" {
		fields = append(fields, zap.String("skip_reason", run.skipReason))
	}

	log := s.logger(ctx)
	if outcome == outcomeFailed {
		log.Warn("scheduler.job.finish", append(fields, zap.Int("error_count", run.failures))...)
		return
	}
	log.Debug("scheduler.job.finish", fields...)
}

func (s *Scheduler) logSchedulerError(ctx context.Context, run *jobRun, msg string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	run.IncError()
	job := ""
	if run != nil {
		job = run.job
	}
	base := []zap.Field{
		zap.String("job", job),
		zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
		zap.Error(err),
	}
	s.logger(ctx).Error(msg, append(base, fields...)...)
}
