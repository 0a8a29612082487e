package sovdev

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// instruments are the four fixed instruments every service exports. Names are
// part of the cross-language contract; dashboards join on them.
type instruments struct {
	operations metric.Int64Counter
	errorsSeen metric.Int64Counter
	duration   metric.Float64Histogram
	active     metric.Int64UpDownCounter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	var errs []error
	inst := &instruments{}

	var err error
	inst.operations, err = meter.Int64Counter("sovdev_operations_total",
		metric.WithDescription("Total number of logged operations"),
		metric.WithUnit("1"),
	)
	errs = append(errs, err)

	inst.errorsSeen, err = meter.Int64Counter("sovdev_errors_total",
		metric.WithDescription("Total number of failed operations"),
		metric.WithUnit("1"),
	)
	errs = append(errs, err)

	inst.duration, err = meter.Float64Histogram("sovdev_operation_duration",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs = append(errs, err)

	inst.active, err = meter.Int64UpDownCounter("sovdev_operations_active",
		metric.WithDescription("Operations currently in flight"),
		metric.WithUnit("1"),
	)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return inst, nil
}

// operation tracks one logging call from the metrics side: the in-flight gauge
// goes up on begin and is guaranteed to come back down exactly once on end,
// when the duration sample is also recorded.
type operation struct {
	inst  *instruments
	attrs metric.MeasurementOption
	start time.Time
	done  bool
}

// beginOperation records the leading measurements for one call. A nil return
// (metrics pipeline absent or shut down) is safe to end.
func (t *telemetry) beginOperation(ctx context.Context, rec *record, level Level, exception error) *operation {
	if t.instruments == nil || t.isClosed() {
		return nil
	}

	attrs := metric.WithAttributes(
		attribute.String("service_name", rec.ServiceName),
		attribute.String("service_version", rec.ServiceVersion),
		attribute.String("peer_service", rec.PeerService),
		attribute.String("log_level", rec.Level),
		attribute.String("log_type", rec.LogType),
	)

	t.instruments.active.Add(ctx, 1, attrs)
	t.instruments.operations.Add(ctx, 1, attrs)

	if level.isError() || exception != nil {
		excType := "Unknown"
		if exception != nil {
			excType = exceptionType
		}
		t.instruments.errorsSeen.Add(ctx, 1, attrs,
			metric.WithAttributes(attribute.String("exception_type", excType)))
	}

	return &operation{
		inst:  t.instruments,
		attrs: attrs,
		start: time.Now(),
	}
}

func (op *operation) end(ctx context.Context) {
	if op == nil || op.done {
		return
	}
	op.done = true

	elapsed := float64(time.Since(op.start).Microseconds()) / 1000.0
	op.inst.duration.Record(ctx, elapsed, op.attrs)
	op.inst.active.Add(ctx, -1, op.attrs)
}
