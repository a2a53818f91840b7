package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes ledger-level instruments.
type Metrics struct {
	ordersCommitted metric.Int64Counter
	orderRevenue    metric.Int64Counter
	ordersRejected  metric.Int64Counter
	stockMoves      metric.Int64Counter
	periodsClosed   metric.Int64Counter
	debtsCreated    metric.Int64Counter
	debtTransitions metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the ledger instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "kiosk"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		target *metric.Int64Counter
		name   string
		unit   string
	}{
		{&m.ordersCommitted, "kiosk_orders_committed_total", "{order}"},
		{&m.orderRevenue, "kiosk_order_revenue_cents_total", "{cent}"},
		{&m.ordersRejected, "kiosk_orders_rejected_total", "{order}"},
		{&m.stockMoves, "kiosk_stock_moves_total", "{move}"},
		{&m.periodsClosed, "kiosk_billing_periods_closed_total", "{period}"},
		{&m.debtsCreated, "kiosk_period_debts_created_total", "{debt}"},
		{&m.debtTransitions, "kiosk_debt_transitions_total", "{transition}"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name, metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// NewNoop returns instruments bound to a no-op provider, for tests and tools.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordOrderCommitted(ctx context.Context, totalCents int64) {
	if m == nil {
		return
	}
	m.ordersCommitted.Add(ctx, 1)
	m.orderRevenue.Add(ctx, totalCents)
}

func (m *Metrics) RecordOrderRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.ordersRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordStockMove(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.stockMoves.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPeriodClosed(ctx context.Context, debtsCreated int) {
	if m == nil {
		return
	}
	m.periodsClosed.Add(ctx, 1)
	m.debtsCreated.Add(ctx, int64(debtsCreated))
}

func (m *Metrics) RecordDebtTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.debtTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"method":      {},
	"status_code": {},
	"reason":      {},
	"status":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
