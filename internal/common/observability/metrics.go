package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records prediction outcomes through an OpenTelemetry meter
// exported on the Prometheus registry. A zero value is a no-op.
type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	predictionCounter  otelmetric.Int64Counter
	predictionDuration otelmetric.Float64Histogram
	healthChecks       otelmetric.Int64Counter
}

// New wires the exporter. On exporter failure it returns a no-op instance and
// the error so the caller can log it.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}
	return newWithReader(serviceName, exporter), nil
}

func newWithReader(serviceName string, reader metric.Reader) *Observability {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	predictionCounter, _ := meter.Int64Counter(
		"predictions.processed",
		otelmetric.WithDescription("Number of prediction submissions processed"),
	)
	predictionDuration, _ := meter.Float64Histogram(
		"predictions.duration",
		otelmetric.WithDescription("Submission processing duration"),
		otelmetric.WithUnit("ms"),
	)
	healthChecks, _ := meter.Int64Counter(
		"health.checks",
		otelmetric.WithDescription("Number of prediction API health checks"),
	)

	return &Observability{
		meterProvider:      provider,
		meter:              meter,
		predictionCounter:  predictionCounter,
		predictionDuration: predictionDuration,
		healthChecks:       healthChecks,
	}
}

func (o *Observability) RecordPrediction(ctx context.Context, duration time.Duration, status, riskLevel string) {
	if o == nil || o.predictionCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("status", status),
		attribute.String("risk_level", riskLevel),
	)
	o.predictionCounter.Add(ctx, 1, attrs)
	o.predictionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) RecordHealthCheck(ctx context.Context, online bool) {
	if o == nil || o.healthChecks == nil {
		return
	}
	o.healthChecks.Add(ctx, 1, otelmetric.WithAttributes(attribute.Bool("online", online)))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
