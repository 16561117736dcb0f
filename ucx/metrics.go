package ucx

// Metric label keys shared by the hook implementations.
const (
	labelOperation = "operation"
	labelOutcome   = "outcome"
)

const (
	operationSend    = "send"
	operationReceive = "receive"

	outcomePending   = "pending"
	outcomeImmediate = "immediate"
)

// MetricHook captures channel telemetry events.
type MetricHook interface {
	// OperationPosted records a send or receive accepted by the transport;
	// attrs carry the operation and its pending/immediate outcome.
	OperationPosted(attrs map[string]string)
	// ProgressDriven records one explicit drive of the transport event loop.
	ProgressDriven(attrs map[string]string)
	// RequestReleased records a request token handed back to the transport.
	RequestReleased(attrs map[string]string)
}

func (c *Channel) metricOperationPosted(operation, outcome string) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.OperationPosted(map[string]string{
		labelOperation: operation,
		labelOutcome:   outcome,
	})
}

func (c *Channel) metricProgressDriven() {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.ProgressDriven(nil)
}

func (c *Channel) metricRequestReleased(operation string) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.RequestReleased(map[string]string{
		labelOperation: operation,
	})
}
