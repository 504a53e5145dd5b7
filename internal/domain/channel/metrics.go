package channel

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records order lifecycle counters.
type Metrics struct {
	committed  metric.Int64Counter
	settled    metric.Int64Counter
	sales      metric.Float64Counter
	advisories metric.Int64Counter
	saveErrors metric.Int64Counter
}

// NewMetrics registers the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.committed, err = meter.Int64Counter("pos.orders.committed",
		metric.WithDescription("Orders committed to the kitchen"),
	); err != nil {
		return nil, errors.Wrap(err, "orders committed")
	}
	if m.settled, err = meter.Int64Counter("pos.orders.settled",
		metric.WithDescription("Orders settled"),
	); err != nil {
		return nil, errors.Wrap(err, "orders settled")
	}
	if m.sales, err = meter.Float64Counter("pos.sales.amount",
		metric.WithDescription("Settled amount including delivery fees and tips"),
		metric.WithUnit("{currency}"),
	); err != nil {
		return nil, errors.Wrap(err, "sales amount")
	}
	if m.advisories, err = meter.Int64Counter("pos.inventory.advisories",
		metric.WithDescription("Inventory deduction advisories"),
	); err != nil {
		return nil, errors.Wrap(err, "inventory advisories")
	}
	if m.saveErrors, err = meter.Int64Counter("pos.session.save_errors",
		metric.WithDescription("Failed channel session writes"),
	); err != nil {
		return nil, errors.Wrap(err, "session save errors")
	}
	return &m, nil
}

func (m *Metrics) orderCommitted(ctx context.Context, kind Kind) {
	m.committed.Add(ctx, 1, metric.WithAttributes(attribute.String("channel.kind", string(kind))))
}

func (m *Metrics) orderSettled(ctx context.Context, kind Kind, method string, amount float64, advisories int) {
	attrs := metric.WithAttributes(
		attribute.String("channel.kind", string(kind)),
		attribute.String("payment.method", method),
	)
	m.settled.Add(ctx, 1, attrs)
	m.sales.Add(ctx, amount, attrs)
	if advisories > 0 {
		m.advisories.Add(ctx, int64(advisories))
	}
}

func (m *Metrics) sessionSaveFailed(ctx context.Context) {
	m.saveErrors.Add(ctx, 1)
}
