package telemetry

import (
	"context"
	"time"

	"github.com/giantswarm/lantern/internal/api"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records connect and invocation outcomes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	invocations        metric.Int64Counter
	invocationDuration metric.Float64Histogram
	connects           metric.Int64Counter
}

// NewMetrics creates the lantern instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	invocations, err := meter.Int64Counter("lantern.invocations",
		metric.WithDescription("Number of operation invocations"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("lantern.invocation.duration",
		metric.WithDescription("Duration of operation invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	connects, err := meter.Int64Counter("lantern.connects",
		metric.WithDescription("Number of server connect attempts"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invocations:        invocations,
		invocationDuration: duration,
		connects:           connects,
	}, nil
}

// RecordInvocation counts one invocation and records its duration. The
// outcome attribute is the error class of err.
func (m *Metrics) RecordInvocation(ctx context.Context, server, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("server", server),
		attribute.String("operation", operation),
		attribute.String("outcome", api.Classify(err)),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.invocationDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordConnect counts one connect attempt.
func (m *Metrics) RecordConnect(ctx context.Context, server string, err error) {
	if m == nil {
		return
	}
	m.connects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("server", server),
		attribute.String("outcome", api.Classify(err)),
	))
}
