package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("reason", "sale"),
		attribute.String("user_id", "456"),
		attribute.String("badge_uid", "TEST123"),
	)
	if assert.Len(t, attrs, 1) {
		assert.Equal(t, attribute.Key("reason"), attrs[0].Key)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordOrderCommitted(context.Background(), 300)
	m.RecordOrderRejected(context.Background(), "out_of_stock")
	m.RecordStockMove(context.Background(), "sale")
	m.RecordPeriodClosed(context.Background(), 2)
	m.RecordDebtTransition(context.Background(), "paid")
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	if assert.NotNil(t, m) {
		m.RecordOrderCommitted(context.Background(), 300)
		m.RecordPeriodClosed(context.Background(), 1)
	}
}
