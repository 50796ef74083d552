package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CheckoutMetrics counts completed checkouts and the revenue they carry.
// A nil receiver is valid and records nothing, so handlers can run without
// a meter provider in tests.
type CheckoutMetrics struct {
	orders  metric.Int64Counter
	revenue metric.Int64Counter
}

func NewCheckoutMetrics() (*CheckoutMetrics, error) {
	meter := otel.Meter("checkout")

	orders, err := meter.Int64Counter("checkout.orders.created",
		metric.WithDescription("Number of orders created through checkout"),
	)
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64Counter("checkout.orders.revenue",
		metric.WithDescription("Sum of order totals, in whole currency units"),
	)
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{orders: orders, revenue: revenue}, nil
}

func (m *CheckoutMetrics) RecordOrder(ctx context.Context, total int64) {
	if m == nil {
		return
	}
	m.orders.Add(ctx, 1)
	m.revenue.Add(ctx, total)
}
