package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"ndxcli/internal/config"
)

const (
	ServiceName = "ndxcli"
	MeterName   = "ndxcli"
)

// OTelProviders holds the OpenTelemetry providers for one run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *PipelineMetrics
	Logger         *slog.Logger

	metricsFile string
	traceOut    io.Closer
}

// PipelineMetrics are the application metrics recorded during a run
type PipelineMetrics struct {
	CompletionRequests metric.Int64Counter
	CompletionDuration metric.Float64Histogram
	StepExecutions     metric.Int64Counter
	StepDuration       metric.Float64Histogram
	RecordsProcessed   metric.Int64Counter
	SectorDrift        metric.Int64Counter
}

// InitializeOTel sets up tracing (stdout exporter, opt-in) and metrics (an
// OpenTelemetry meter backed by a Prometheus registry). Metrics are written
// in text exposition format to cfg.MetricsFile on Shutdown.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger:      logger,
		metricsFile: cfg.MetricsFile,
	}

	if cfg.Tracing {
		if err := providers.initializeTracing(cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	} else {
		providers.Tracer = noop.NewTracerProvider().Tracer(ServiceName)
	}

	if err := providers.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.InfoContext(ctx, "telemetry_initialized",
		slog.Bool("tracing_enabled", cfg.Tracing),
		slog.String("metrics_file", cfg.MetricsFile))

	return providers, nil
}

// NoopProviders returns providers that record nothing. Used by tests and
// callers that do not initialize telemetry.
func NoopProviders() *OTelProviders {
	meter := sdkmetric.NewMeterProvider().Meter(MeterName)
	metrics, _ := CreatePipelineMetrics(meter)
	return &OTelProviders{
		Tracer:  noop.NewTracerProvider().Tracer(ServiceName),
		Meter:   meter,
		Metrics: metrics,
		Logger:  GetLogger(),
	}
}

func (p *OTelProviders) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	var out io.Writer = os.Stderr
	if cfg.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, err := os.Create(cfg.TraceFile)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		out = f
		p.traceOut = f
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	p.TracerProvider = tp
	p.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func (p *OTelProviders) initializeMetrics(res *resource.Resource) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	p.Registry = registry
	p.MeterProvider = mp
	p.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	otel.SetMeterProvider(mp)

	metrics, err := CreatePipelineMetrics(p.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	p.Metrics = metrics
	return nil
}

// CreatePipelineMetrics creates the application-specific instruments
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	completionRequests, err := meter.Int64Counter(
		"ndx_completion_requests_total",
		metric.WithDescription("Total number of remote completion requests"),
	)
	if err != nil {
		return nil, err
	}

	completionDuration, err := meter.Float64Histogram(
		"ndx_completion_duration_seconds",
		metric.WithDescription("Remote completion round-trip duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepExecutions, err := meter.Int64Counter(
		"ndx_step_executions_total",
		metric.WithDescription("Total number of pipeline step executions"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"ndx_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsProcessed, err := meter.Int64Counter(
		"ndx_records_processed_total",
		metric.WithDescription("Records produced per pipeline step"),
	)
	if err != nil {
		return nil, err
	}

	sectorDrift, err := meter.Int64Counter(
		"ndx_sector_drift_total",
		metric.WithDescription("Classifier answers outside the fixed sector enumeration"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		CompletionRequests: completionRequests,
		CompletionDuration: completionDuration,
		StepExecutions:     stepExecutions,
		StepDuration:       stepDuration,
		RecordsProcessed:   recordsProcessed,
		SectorDrift:        sectorDrift,
	}, nil
}

// RecordCompletion records one remote completion call. Nil-safe.
func RecordCompletion(ctx context.Context, m *PipelineMetrics, purpose string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("status", statusOf(err)),
	)
	m.CompletionRequests.Add(ctx, 1, attrs)
	m.CompletionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one pipeline step execution. Nil-safe.
func RecordStep(ctx context.Context, m *PipelineMetrics, stepID string, duration time.Duration, records int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", statusOf(err)),
	)
	m.StepExecutions.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil && records > 0 {
		m.RecordsProcessed.Add(ctx, int64(records), metric.WithAttributes(attribute.String("step", stepID)))
	}
}

// RecordSectorDrift counts a label outside the sector enumeration. Nil-safe.
func RecordSectorDrift(ctx context.Context, m *PipelineMetrics, label string) {
	if m == nil {
		return
	}
	m.SectorDrift.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label)))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// WriteMetrics writes the current metric values to path in Prometheus
// text format.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p.Registry == nil {
		return fmt.Errorf("metrics registry not initialized")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return prometheus.WriteToTextfile(path, p.Registry)
}

// Shutdown flushes spans, writes the metrics file if configured and shuts
// the providers down.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.metricsFile != "" {
		if err := p.WriteMetrics(p.metricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceOut != nil {
		if err := p.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace file: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
