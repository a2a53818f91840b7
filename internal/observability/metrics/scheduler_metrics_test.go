package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSchedulerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry, Config{ServiceName: "kiosk-test", Environment: "test"})

	m.IncJobRun("close_period")
	m.IncJobRun("close_period")
	m.IncJobError("close_period", gorm.ErrDuplicatedKey)
	m.IncJobSkipped("close_period", "period_too_young")
	m.ObserveJobDuration("close_period", 20*time.Millisecond)
	m.SetStockDrift(2)

	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("close_period")); got != 2 {
		t.Fatalf("expected 2 job runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("close_period", SchedulerJobReasonUniqueViolation)); got != 1 {
		t.Fatalf("expected 1 unique violation, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobSkipped.WithLabelValues("close_period", "period_too_young")); got != 1 {
		t.Fatalf("expected 1 skip, got %v", got)
	}
	if got := testutil.ToFloat64(m.stockDrift); got != 2 {
		t.Fatalf("expected drift 2, got %v", got)
	}
}

func TestSchedulerMetricsRegisterTwice(t *testing.T) {
	registry := prometheus.NewRegistry()
	_ = newSchedulerMetrics(registry, Config{})
	_ = newSchedulerMetrics(registry, Config{})
}
