package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"iiot-site/internal/common/logger"
)

// Options configures New. Zero values use the default prometheus registerer
// and a batch processor that logs finished spans at debug level.
type Options struct {
	ServiceName   string
	Registerer    prometheus.Registerer
	SpanProcessor sdktrace.SpanProcessor
	Logger        logger.Logger
}

// Observability owns the otel meter and tracer providers.
type Observability struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	stageCounter   otelmetric.Int64Counter
	stageDuration  otelmetric.Float64Histogram
}

func New(opts Options) (*Observability, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "site-server"
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}

	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	exporter, err := otelprom.New(otelprom.WithRegisterer(opts.Registerer))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res))

	processor := opts.SpanProcessor
	if processor == nil {
		processor = sdktrace.NewBatchSpanProcessor(&logExporter{logger: opts.Logger})
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithSpanProcessor(processor))

	meter := mp.Meter(opts.ServiceName)
	stageCounter, err := meter.Int64Counter(
		"site.submission.stage",
		otelmetric.WithDescription("Submission pipeline stage transitions"),
	)
	if err != nil {
		return nil, err
	}
	stageDuration, err := meter.Float64Histogram(
		"site.submission.stage.duration",
		otelmetric.WithDescription("Time spent in a submission pipeline stage"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  mp,
		tracerProvider: tp,
		tracer:         tp.Tracer(opts.ServiceName),
		stageCounter:   stageCounter,
		stageDuration:  stageDuration,
	}, nil
}

// SetGlobal installs the providers as the otel globals.
func (o *Observability) SetGlobal() {
	otel.SetMeterProvider(o.meterProvider)
	otel.SetTracerProvider(o.tracerProvider)
}

func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

// RecordStage counts one pipeline transition and how long the stage took.
func (o *Observability) RecordStage(ctx context.Context, kind, stage, outcome string, took time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	)
	o.stageCounter.Add(ctx, 1, attrs)
	o.stageDuration.Record(ctx, float64(took.Microseconds())/1000, attrs)
}

// Shutdown flushes spans and metrics.
func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type logExporter struct {
	logger logger.Logger
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := map[string]interface{}{
			"span":       s.Name(),
			"traceId":    s.SpanContext().TraceID().String(),
			"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":     s.Status().Code.String(),
			"events":     len(s.Events()),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		e.logger.Debug("span finished", fields)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
