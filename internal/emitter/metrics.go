package emitter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/yairfalse/shotty/pkg/resource"
)

// MetricsEmitter turns events into OTEL instruments.
type MetricsEmitter struct {
	actionsTotal metric.Int64Counter
	waitDuration metric.Float64Histogram
}

// NewMetricsEmitter creates the instruments on meter.
func NewMetricsEmitter(meter metric.Meter) (*MetricsEmitter, error) {
	e := &MetricsEmitter{}
	var err error

	e.actionsTotal, err = meter.Int64Counter(
		"shotty_actions_total",
		metric.WithDescription("Actions taken against EC2 resources"),
	)
	if err != nil {
		return nil, fmt.Errorf("create actions_total counter: %w", err)
	}

	e.waitDuration, err = meter.Float64Histogram(
		"shotty_wait_duration_seconds",
		metric.WithDescription("Time spent waiting for instance state transitions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create wait_duration histogram: %w", err)
	}

	return e, nil
}

// Emit records the event.
func (e *MetricsEmitter) Emit(ctx context.Context, event resource.Event) error {
	attrs := metric.WithAttributes(
		attribute.String("action", event.Action),
		attribute.String("outcome", string(event.Outcome)),
	)
	e.actionsTotal.Add(ctx, 1, attrs)

	switch event.Action {
	case resource.ActionWaitStopped, resource.ActionWaitRunning:
		e.waitDuration.Record(ctx, event.Duration.Seconds(), attrs)
	}

	log.Debug().
		Str("action", event.Action).
		Str("resource_id", event.ResourceID).
		Str("outcome", string(event.Outcome)).
		Msg("event recorded")

	return nil
}

// Close is a no-op; the meter provider owns export.
func (e *MetricsEmitter) Close() error {
	return nil
}
