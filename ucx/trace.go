package ucx

// TraceAttribute represents a tracing attribute attached to wait spans.
type TraceAttribute struct {
	Key   string
	Value any
}

// Tracer starts spans that wrap the wait helpers.
type Tracer interface {
	StartSpan(name string, attrs ...TraceAttribute) Span
}

// Span records wait lifecycle and errors for tracing systems.
type Span interface {
	End(err error)
	RecordError(err error)
}

const waitSpanName = "ucx-channel-wait"

func (c *Channel) startWaitSpan(requests int) Span {
	if c == nil || c.tracer == nil {
		return nil
	}
	return c.tracer.StartSpan(waitSpanName,
		TraceAttribute{Key: "component", Value: "ucx-channel"},
		TraceAttribute{Key: "requests", Value: requests},
	)
}

func (c *Channel) finishWaitSpan(span Span, err error) {
	if span == nil {
		return
	}
	span.End(err)
}
