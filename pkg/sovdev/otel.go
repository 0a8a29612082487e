package sovdev

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const metricExportInterval = 10 * time.Second

// telemetry owns the three OTel providers and everything derived from them.
// Pipelines without a configured endpoint are simply absent; the struct's
// zero value is a fully functional no-op.
type telemetry struct {
	mu     sync.RWMutex
	closed bool

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	tracer      trace.Tracer
	logger      otellog.Logger
	instruments *instruments
}

// newTelemetry builds the enabled pipelines in meter, tracer, logger order and
// installs the providers as process globals. Exporter construction failures
// are reported and leave that pipeline absent; initialization never aborts on
// a transport problem.
func newTelemetry(ctx context.Context, cfg *config, res *resource.Resource, serviceName string) *telemetry {
	t := &telemetry{}

	if cfg.metricsEndpoint != "" {
		exporter, err := newMetricExporter(ctx, cfg)
		if err != nil {
			diag.Warn(fmt.Sprintf("Sovdev Logger failed: metric exporter: %v", err))
		} else {
			t.meterProvider = sdkmetric.NewMeterProvider(
				sdkmetric.WithResource(res),
				sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
					exporter,
					sdkmetric.WithInterval(metricExportInterval),
				)),
			)
			otel.SetMeterProvider(t.meterProvider)

			inst, err := newInstruments(t.meterProvider.Meter(serviceName))
			if err != nil {
				diag.Warn(fmt.Sprintf("Sovdev Logger failed: metric instruments: %v", err))
			} else {
				t.instruments = inst
			}
		}
	}

	if cfg.tracesEndpoint != "" {
		exporter, err := newTraceExporter(ctx, cfg)
		if err != nil {
			diag.Warn(fmt.Sprintf("Sovdev Logger failed: trace exporter: %v", err))
		} else {
			t.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithResource(res),
				sdktrace.WithBatcher(exporter),
			)
			otel.SetTracerProvider(t.tracerProvider)
			t.tracer = t.tracerProvider.Tracer(serviceName)
		}
	}

	if cfg.logsEndpoint != "" {
		exporter, err := newLogExporter(ctx, cfg)
		if err != nil {
			diag.Warn(fmt.Sprintf("Sovdev Logger failed: log exporter: %v", err))
		} else {
			t.loggerProvider = sdklog.NewLoggerProvider(
				sdklog.WithResource(res),
				sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
			)
			global.SetLoggerProvider(t.loggerProvider)
			t.logger = t.loggerProvider.Logger(serviceName,
				otellog.WithInstrumentationVersion("1.0.0"))
		}
	}

	return t
}

func (t *telemetry) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// flushAndShutdown runs the ordered flush protocol: force-flush tracer, meter,
// logger, then shut them down in the same order. Each step reports its own
// failure and never blocks the next. Idempotent.
func (t *telemetry) flushAndShutdown(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	var errs []error
	step := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			diag.Warn(fmt.Sprintf("Sovdev Logger failed: %s: %v", name, err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if t.tracerProvider != nil {
		step("trace flush", t.tracerProvider.ForceFlush)
	}
	if t.meterProvider != nil {
		step("metric flush", t.meterProvider.ForceFlush)
	}
	if t.loggerProvider != nil {
		step("log flush", t.loggerProvider.ForceFlush)
	}
	if t.tracerProvider != nil {
		step("trace shutdown", t.tracerProvider.Shutdown)
	}
	if t.meterProvider != nil {
		step("metric shutdown", t.meterProvider.Shutdown)
	}
	if t.loggerProvider != nil {
		step("log shutdown", t.loggerProvider.Shutdown)
	}

	return errors.Join(errs...)
}

// newResource carries the identity attributes every signal shares. session.id
// has no semconv key; it is this standard's own grouping attribute.
func newResource(ctx context.Context, serviceName, serviceVersion, environment, sessionID string) *resource.Resource {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironment(environment),
			attribute.String("session.id", sessionID),
		),
	)
	if err != nil {
		diag.Warn(fmt.Sprintf("Sovdev Logger failed: resource: %v", err))
		return resource.Default()
	}
	return res
}

// hostOverrideTransport forces a Host header on outgoing exporter requests.
// Go's HTTP client ignores a Host entry in the header map, but name-routing
// proxies in front of the collector need it on the request line.
type hostOverrideTransport struct {
	base http.RoundTripper
	host string
}

func (t *hostOverrideTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Host = t.host
	return t.base.RoundTrip(req)
}

func (cfg *config) exporterClient() *http.Client {
	if cfg.hostOverride == "" {
		return nil
	}
	return &http.Client{
		Transport: &hostOverrideTransport{base: http.DefaultTransport, host: cfg.hostOverride},
		Timeout:   30 * time.Second,
	}
}

func newLogExporter(ctx context.Context, cfg *config) (sdklog.Exporter, error) {
	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(cfg.logsEndpoint)}
	if len(cfg.headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.headers))
	}
	if client := cfg.exporterClient(); client != nil {
		opts = append(opts, otlploghttp.WithHTTPClient(client))
	}
	return otlploghttp.New(ctx, opts...)
}

func newTraceExporter(ctx context.Context, cfg *config) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.tracesEndpoint)}
	if len(cfg.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.headers))
	}
	if client := cfg.exporterClient(); client != nil {
		opts = append(opts, otlptracehttp.WithHTTPClient(client))
	}
	return otlptracehttp.New(ctx, opts...)
}

func newMetricExporter(ctx context.Context, cfg *config) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(cfg.metricsEndpoint),
		// Pinned for Prometheus Remote Write compatibility; never left to the
		// SDK default.
		otlpmetrichttp.WithTemporalitySelector(cumulativeTemporality),
	}
	if len(cfg.headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.headers))
	}
	if client := cfg.exporterClient(); client != nil {
		opts = append(opts, otlpmetrichttp.WithHTTPClient(client))
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func cumulativeTemporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}
