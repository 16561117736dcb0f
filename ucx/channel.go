package ucx

import (
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// Channel issues asynchronous tagged operations through the resolved
// function table. It owns no threads: all work, including completion
// callbacks, happens on the calling thread during explicit calls. Concurrent
// Progress calls on the same worker from different threads are undefined.
type Channel struct {
	table   *FunctionTable
	logger  *zap.Logger
	metrics MetricHook
	tracer  Tracer
	stats   channelStats
}

// Option customises a Channel at construction.
type Option func(*Channel)

// WithLogger installs a structured logger for debug events and the fatal
// error tier.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics installs a telemetry hook for channel operations.
func WithMetrics(hook MetricHook) Option {
	return func(c *Channel) { c.metrics = hook }
}

// WithTracer installs a tracer that spans the wait helpers.
func WithTracer(tracer Tracer) Option {
	return func(c *Channel) { c.tracer = tracer }
}

// New builds a Channel around a resolved function table, typically the one
// returned by Bind, or a test transport's table.
func New(table *FunctionTable, opts ...Option) *Channel {
	c := &Channel{table: table, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats contains counters for channel operations.
type Stats struct {
	SendsPosted      uint64
	SendsImmediate   uint64
	ReceivesPosted   uint64
	ProgressCalls    uint64
	RequestsReleased uint64
}

type channelStats struct {
	sendsPosted    atomic.Uint64
	sendsImmediate atomic.Uint64
	recvsPosted    atomic.Uint64
	progressCalls  atomic.Uint64
	released       atomic.Uint64
}

// Stats returns a snapshot of channel counters.
func (c *Channel) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		SendsPosted:      c.stats.sendsPosted.Load(),
		SendsImmediate:   c.stats.sendsImmediate.Load(),
		ReceivesPosted:   c.stats.recvsPosted.Load(),
		ProgressCalls:    c.stats.progressCalls.Load(),
		RequestsReleased: c.stats.released.Load(),
	}
}

// Send posts an asynchronous tagged send of the caller-owned buffer to the
// peer behind ep. The buffer is never copied and must stay live until the
// request completes. rank identifies the sending side: it is stamped into
// the wire tag alongside tag so receivers can match on the message origin.
// An error status from the transport is fatal; otherwise the returned
// Request is either pending or already complete.
func (c *Channel) Send(ep Endpoint, buffer unsafe.Pointer, length int, tag Tag, rank Rank) *Request {
	wire := EncodeTag(rank, tag)
	tok, status := c.table.SendAsync(ep, buffer, length, wire)
	if status.IsErr() {
		c.logger.Fatal("ucx: tag send failed",
			zap.Int32("status", int32(status)),
			zap.String("status_name", status.String()),
			zap.Int32("rank", int32(rank)),
			zap.Uint32("tag", uint32(tag)),
			zap.Int("length", length),
		)
	}
	c.stats.sendsPosted.Add(1)

	var req *Request
	outcome := outcomePending
	if tok == nil {
		// The transport answered synchronously and returned no token;
		// synthesize a completed request so the wait path stays uniform.
		c.stats.sendsImmediate.Add(1)
		outcome = outcomeImmediate
		req = newCompletedRequest(true, rank)
	} else {
		req = newPendingRequest(tok, true, rank)
	}

	c.logger.Debug("ucx: send posted",
		zap.Int32("rank", int32(rank)),
		zap.Uint32("tag", uint32(tag)),
		zap.Int("length", length),
		zap.String("outcome", outcome),
	)
	c.metricOperationPosted(operationSend, outcome)
	return req
}

// Receive posts an asynchronous tagged receive into the caller-owned buffer.
// source may be AnyRank together with RankWildcardMask, in which case a
// matching send from any peer completes the request and the actual origin is
// available only through Request.Sender. The buffer is never copied and must
// stay live until completion. An error status from the transport is fatal.
func (c *Channel) Receive(w Worker, buffer unsafe.Pointer, length int, tag Tag, mask TagMask, source Rank) *Request {
	wire := EncodeTag(source, tag)
	tok, status := c.table.RecvAsync(w, buffer, length, wire, mask)
	if status.IsErr() {
		c.logger.Fatal("ucx: tag receive failed",
			zap.Int32("status", int32(status)),
			zap.String("status_name", status.String()),
			zap.Int32("source_rank", int32(source)),
			zap.Uint32("tag", uint32(tag)),
			zap.Int("length", length),
		)
	}
	c.stats.recvsPosted.Add(1)

	var req *Request
	outcome := outcomePending
	if tok == nil {
		// Receipt is tied to the sender's timing, so this path only occurs
		// when the transport signals an immediate match.
		outcome = outcomeImmediate
		req = newCompletedRequest(false, source)
	} else {
		req = newPendingRequest(tok, false, source)
	}

	c.logger.Debug("ucx: receive posted",
		zap.Int32("source_rank", int32(source)),
		zap.Uint32("tag", uint32(tag)),
		zap.Int("length", length),
		zap.String("outcome", outcome),
	)
	c.metricOperationPosted(operationReceive, outcome)
	return req
}

// Progress drives the transport's event loop once on the calling thread.
// Completion callbacks for any matched operations run synchronously inside
// this call; no forward progress happens without it.
func (c *Channel) Progress(w Worker) uint {
	c.stats.progressCalls.Add(1)
	c.metricProgressDriven()
	return c.table.Progress(w)
}

// Release hands a completed request's token back to the transport and
// invalidates the request. Preconditions: completion has been observed and
// the request has not been released before. Both violations are programming
// errors and abort, mirroring the undefined behavior they would trigger
// inside the transport.
func (c *Channel) Release(req *Request) {
	if req == nil {
		return
	}
	if req.released {
		c.logger.Fatal("ucx: request released twice",
			zap.Bool("is_send", req.isSend),
			zap.Int32("peer_rank", int32(req.peer)),
		)
	}
	if !req.token.Done() {
		c.logger.Fatal("ucx: release of request still in flight",
			zap.Bool("is_send", req.isSend),
			zap.Int32("peer_rank", int32(req.peer)),
		)
	}
	req.released = true
	if req.needsRelease {
		req.token.Reset()
		c.table.FreeRequest(req.token)
	}
	c.stats.released.Add(1)

	op := operationReceive
	if req.isSend {
		op = operationSend
	}
	c.logger.Debug("ucx: request released",
		zap.String("operation", op),
		zap.Int32("peer_rank", int32(req.peer)),
		zap.Bool("owned_token", req.needsRelease),
	)
	c.metricRequestReleased(op)
}

// PrintEndpointInfo asks the transport to dump its diagnostic description of
// the endpoint. Tracing aid only, not part of the messaging contract.
func (c *Channel) PrintEndpointInfo(ep Endpoint) {
	c.table.EndpointInfo(ep)
}
