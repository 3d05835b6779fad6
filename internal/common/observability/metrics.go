package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability carries the otel meter instruments and tracer for the
// message pipeline. A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider   *metric.MeterProvider
	tracer          trace.Tracer
	messageCounter  otelmetric.Int64Counter
	messageDuration otelmetric.Float64Histogram
	stageDuration   otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	messageCounter, err := meter.Int64Counter(
		"askbot.messages.processed",
		otelmetric.WithDescription("Chat messages processed by outcome"),
	)
	if err != nil {
		return nil, err
	}

	messageDuration, err := meter.Float64Histogram(
		"askbot.messages.duration",
		otelmetric.WithDescription("End-to-end message handling time"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"askbot.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:   provider,
		tracer:          otel.Tracer(serviceName),
		messageCounter:  messageCounter,
		messageDuration: messageDuration,
		stageDuration:   stageDuration,
	}, nil
}

// StartSpan opens a span named after a pipeline stage. The returned end
// function also records the stage duration.
func (o *Observability) StartSpan(ctx context.Context, stage string) (context.Context, func()) {
	if o == nil {
		return ctx, func() {}
	}
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, stage)
	return ctx, func() {
		o.stageDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
			otelmetric.WithAttributes(attribute.String("stage", stage)))
		span.End()
	}
}

func (o *Observability) RecordMessage(ctx context.Context, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	o.messageCounter.Add(ctx, 1, attrs)
	o.messageDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
