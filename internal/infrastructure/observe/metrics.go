// Package observe records correction metrics through the OpenTelemetry Metrics
// API. A Prometheus exporter bridge is available via [InitProvider] so the
// daemon can expose a /metrics endpoint; tests build [Metrics] on their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/doeshing/typecopilot"

// Metrics holds the correction pipeline instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// Corrections counts finished corrections. Attributes: mode, target, outcome.
	Corrections metric.Int64Counter

	// Fragments counts injected fragments. Attribute: mode.
	Fragments metric.Int64Counter

	// GenerationDuration tracks time spent waiting on the generation service.
	GenerationDuration metric.Float64Histogram

	// Active is 1 while a correction owns the clipboard.
	Active metric.Int64UpDownCounter
}

// latencyBuckets in seconds, sized for small local models.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] using mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Corrections, err = m.Int64Counter("typecopilot.corrections",
		metric.WithDescription("Finished corrections by mode, target and outcome."),
	); err != nil {
		return nil, err
	}
	if met.Fragments, err = m.Int64Counter("typecopilot.fragments",
		metric.WithDescription("Fragments pasted into the foreground application."),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("typecopilot.generation.duration",
		metric.WithDescription("Latency of generation requests, first byte to last fragment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Active, err = m.Int64UpDownCounter("typecopilot.corrections.active",
		metric.WithDescription("Corrections currently in flight."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// CorrectionStarted implements ports.CorrectionMetrics.
func (m *Metrics) CorrectionStarted(ctx context.Context) func() {
	m.Active.Add(ctx, 1)
	return func() { m.Active.Add(ctx, -1) }
}

// CorrectionFinished implements ports.CorrectionMetrics. Corrections rejected
// before reaching the service record no generation latency.
func (m *Metrics) CorrectionFinished(ctx context.Context, req domain.CorrectionRequest, outcome string, generation time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("mode", string(req.Mode)),
		attribute.String("target", string(req.Target)),
		attribute.String("outcome", outcome),
	)
	m.Corrections.Add(ctx, 1, attrs)
	if generation > 0 {
		m.GenerationDuration.Record(ctx, generation.Seconds(),
			metric.WithAttributes(
				attribute.String("mode", string(req.Mode)),
				attribute.Bool("streamed", req.Stream),
			),
		)
	}
}

// FragmentApplied implements ports.CorrectionMetrics.
func (m *Metrics) FragmentApplied(ctx context.Context, mode domain.Mode) {
	m.Fragments.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

var _ ports.CorrectionMetrics = (*Metrics)(nil)
