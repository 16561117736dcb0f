package ucx

import "github.com/prometheus/client_golang/prometheus"

// PrometheusMetricsOptions configures NewPrometheusMetrics.
type PrometheusMetricsOptions struct {
	Registerer  prometheus.Registerer
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
}

var _ MetricHook = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements MetricHook using Prometheus counters.
type PrometheusMetrics struct {
	operationsPosted *prometheus.CounterVec
	progressCalls    prometheus.Counter
	requestsReleased *prometheus.CounterVec
}

var (
	postedLabelKeys   = []string{labelOperation, labelOutcome}
	releasedLabelKeys = []string{labelOperation}
)

// NewPrometheusMetrics constructs a MetricHook backed by Prometheus counters.
func NewPrometheusMetrics(opts PrometheusMetricsOptions) (*PrometheusMetrics, error) {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusMetrics{
		operationsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subsystem,
			Name:        "ucx_channel_operations_posted_total",
			Help:        "Number of send/receive operations accepted by the transport",
			ConstLabels: opts.ConstLabels,
		}, postedLabelKeys),
		progressCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subsystem,
			Name:        "ucx_channel_progress_total",
			Help:        "Number of explicit drives of the transport event loop",
			ConstLabels: opts.ConstLabels,
		}),
		requestsReleased: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subsystem,
			Name:        "ucx_channel_requests_released_total",
			Help:        "Number of request tokens handed back to the transport",
			ConstLabels: opts.ConstLabels,
		}, releasedLabelKeys),
	}

	var err error
	if p.operationsPosted, err = registerCounterVec(reg, p.operationsPosted); err != nil {
		return nil, err
	}
	if p.progressCalls, err = registerCounter(reg, p.progressCalls); err != nil {
		return nil, err
	}
	if p.requestsReleased, err = registerCounterVec(reg, p.requestsReleased); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *PrometheusMetrics) OperationPosted(attrs map[string]string) {
	p.operationsPosted.With(labels(attrs, postedLabelKeys...)).Inc()
}

func (p *PrometheusMetrics) ProgressDriven(map[string]string) {
	p.progressCalls.Inc()
}

func (p *PrometheusMetrics) RequestReleased(attrs map[string]string) {
	p.requestsReleased.With(labels(attrs, releasedLabelKeys...)).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return counter, nil
}

func labels(attrs map[string]string, keys ...string) prometheus.Labels {
	labs := make(prometheus.Labels, len(keys))
	for _, key := range keys {
		labs[key] = attrs[key]
	}
	return labs
}
