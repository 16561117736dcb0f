package ucx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsOptions configures NewOTelMetrics.
type OTelMetricsOptions struct {
	MeterProvider          metric.MeterProvider
	Meter                  metric.Meter
	InstrumentationName    string
	InstrumentationVersion string
}

var _ MetricHook = (*OTelMetrics)(nil)

// OTelMetrics implements MetricHook using OpenTelemetry counters.
type OTelMetrics struct {
	meter            metric.Meter
	operationsPosted metric.Int64Counter
	progressCalls    metric.Int64Counter
	requestsReleased metric.Int64Counter
}

// NewOTelMetrics constructs a MetricHook that emits OpenTelemetry counter
// measurements.
func NewOTelMetrics(opts OTelMetricsOptions) (*OTelMetrics, error) {
	meter := opts.Meter
	if meter == nil {
		provider := opts.MeterProvider
		if provider == nil {
			provider = otel.GetMeterProvider()
		}
		name := opts.InstrumentationName
		if name == "" {
			name = "github.com/rocketbitz/ucx-go/ucx"
		}
		meter = provider.Meter(name, metric.WithInstrumentationVersion(opts.InstrumentationVersion))
	}

	operationsPosted, err := meter.Int64Counter("ucx.channel.operations.posted")
	if err != nil {
		return nil, err
	}
	progressCalls, err := meter.Int64Counter("ucx.channel.progress")
	if err != nil {
		return nil, err
	}
	requestsReleased, err := meter.Int64Counter("ucx.channel.requests.released")
	if err != nil {
		return nil, err
	}

	return &OTelMetrics{
		meter:            meter,
		operationsPosted: operationsPosted,
		progressCalls:    progressCalls,
		requestsReleased: requestsReleased,
	}, nil
}

// OperationPosted records a send or receive accepted by the transport.
func (o *OTelMetrics) OperationPosted(attrs map[string]string) {
	o.operationsPosted.Add(context.Background(), 1, metric.WithAttributes(otelAttrs(attrs)...))
}

// ProgressDriven records one explicit drive of the transport event loop.
func (o *OTelMetrics) ProgressDriven(map[string]string) {
	o.progressCalls.Add(context.Background(), 1)
}

// RequestReleased records a request token handed back to the transport.
func (o *OTelMetrics) RequestReleased(attrs map[string]string) {
	o.requestsReleased.Add(context.Background(), 1, metric.WithAttributes(otelAttrs(attrs)...))
}

func otelAttrs(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	if v := attrs[labelOperation]; v != "" {
		kvs = append(kvs, attribute.String(labelOperation, v))
	}
	if v := attrs[labelOutcome]; v != "" {
		kvs = append(kvs, attribute.String(labelOutcome, v))
	}
	return kvs
}
