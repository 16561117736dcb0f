// Package loopback provides an in-process transport that satisfies the ucx
// function-table contract without a native runtime. Matching is
// deterministic FIFO on the wire tag under the receive mask, progress is
// explicit, and delivery is confined to one process, which makes it suitable
// for tests and runnable examples.
package loopback

import (
	"sync"
	"unsafe"

	ucx "github.com/rocketbitz/ucx-go/ucx"
)

// Transport is a process-local message fabric. Endpoints address workers:
// sends enqueue on the target worker, receives post on the local worker, and
// matching happens while the target worker's progress is driven.
type Transport struct {
	mu         sync.Mutex
	eagerLimit int

	workers   map[*worker]struct{}
	endpoints map[*endpoint]struct{}

	freeEvents []FreeEvent
	infoCalls  int
}

// Option customises a Transport.
type Option func(*Transport)

// WithEagerLimit makes sends of at most limit bytes complete synchronously:
// the transport takes a copy of the payload and returns no token, exercising
// the immediate-success path of the channel.
func WithEagerLimit(limit int) Option {
	return func(t *Transport) { t.eagerLimit = limit }
}

// New builds an empty loopback fabric.
func New(opts ...Option) *Transport {
	t := &Transport{
		workers:   make(map[*worker]struct{}),
		endpoints: make(map[*endpoint]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FreeEvent records one token handed back through the release entry point.
type FreeEvent struct {
	// ResetFirst reports whether the completion flag was cleared before the
	// token reached the free routine.
	ResetFirst bool
}

type worker struct {
	t      *Transport
	inbox  []*message // unmatched sends addressed to this worker, FIFO
	posted []*recvOp  // outstanding receives, FIFO
}

type endpoint struct {
	target *worker
}

type message struct {
	tag     ucx.WireTag
	src     unsafe.Pointer // pending sends read the caller's buffer at match time
	payload []byte         // eager sends own a copy instead
	length  int
	token   *Token // nil for eager sends
}

type recvOp struct {
	tag    ucx.WireTag
	mask   ucx.TagMask
	buf    unsafe.Pointer
	length int
	token  *Token
}

// Token is the loopback stand-in for the transport's per-request
// reservation. Completion is a plain flag flipped during progress, matching
// the single-threaded-per-worker model.
type Token struct {
	completed int32
	senderTag uint64
	hasSender bool
}

// Done reports whether the operation has been matched.
func (t *Token) Done() bool { return t.completed == 1 }

// Reset clears the completion flag and metadata.
func (t *Token) Reset() {
	t.completed = 0
	t.senderTag = 0
	t.hasSender = false
}

// SenderTag returns the wire tag of the matched send for completed receives.
func (t *Token) SenderTag() (uint64, bool) {
	if !t.hasSender {
		return 0, false
	}
	return t.senderTag, true
}

func (t *Token) complete() { t.completed = 1 }

// NewWorker creates a progress context on the fabric and returns its opaque
// handle.
func (t *Transport) NewWorker() ucx.Worker {
	w := &worker{t: t}
	t.mu.Lock()
	t.workers[w] = struct{}{}
	t.mu.Unlock()
	return ucx.WorkerFromPointer(unsafe.Pointer(w))
}

// NewEndpoint creates an endpoint addressing the given worker and returns
// its opaque handle.
func (t *Transport) NewEndpoint(target ucx.Worker) ucx.Endpoint {
	tw := (*worker)(target.Pointer())
	ep := &endpoint{target: tw}
	t.mu.Lock()
	t.endpoints[ep] = struct{}{}
	t.mu.Unlock()
	return ucx.EndpointFromPointer(unsafe.Pointer(ep))
}

// Table exposes the fabric as a resolved function table, mirroring what
// ucx.Bind produces for the native runtime.
func (t *Transport) Table() *ucx.FunctionTable {
	return &ucx.FunctionTable{
		SendAsync:    t.sendAsync,
		RecvAsync:    t.recvAsync,
		FreeRequest:  t.freeRequest,
		Progress:     t.progress,
		EndpointInfo: t.endpointInfo,
	}
}

// FreeEvents returns the tokens handed back so far, in release order.
func (t *Transport) FreeEvents() []FreeEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]FreeEvent(nil), t.freeEvents...)
}

// InfoCalls reports how often the diagnostic endpoint printer ran.
func (t *Transport) InfoCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.infoCalls
}

func (t *Transport) sendAsync(ep ucx.Endpoint, buffer unsafe.Pointer, length int, tag ucx.WireTag) (ucx.Token, ucx.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := (*endpoint)(ep.Pointer())
	if e == nil || e.target == nil {
		return nil, ucx.StatusInvalidParam
	}
	if length > 0 && buffer == nil {
		return nil, ucx.StatusInvalidParam
	}

	msg := &message{tag: tag, src: buffer, length: length}
	if length <= t.eagerLimit {
		// Eager path: own a copy and answer synchronously.
		msg.payload = copyOut(buffer, length)
		msg.src = nil
		e.target.inbox = append(e.target.inbox, msg)
		return nil, ucx.StatusOK
	}

	msg.token = &Token{}
	e.target.inbox = append(e.target.inbox, msg)
	return msg.token, ucx.StatusInProgress
}

func (t *Transport) recvAsync(w ucx.Worker, buffer unsafe.Pointer, length int, tag ucx.WireTag, mask ucx.TagMask) (ucx.Token, ucx.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lw := (*worker)(w.Pointer())
	if lw == nil {
		return nil, ucx.StatusInvalidParam
	}
	if length > 0 && buffer == nil {
		return nil, ucx.StatusInvalidParam
	}

	op := &recvOp{tag: tag, mask: mask, buf: buffer, length: length, token: &Token{}}
	lw.posted = append(lw.posted, op)
	return op.token, ucx.StatusInProgress
}

func (t *Transport) freeRequest(tok ucx.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lt, ok := tok.(*Token)
	if !ok || lt == nil {
		return
	}
	t.freeEvents = append(t.freeEvents, FreeEvent{ResetFirst: lt.completed == 0})
}

// progress matches the worker's posted receives against its inbox. Every
// receive consumes at most one send per match; completion flags on both
// sides flip inside this call, on the calling thread.
func (t *Transport) progress(w ucx.Worker) uint {
	t.mu.Lock()
	defer t.mu.Unlock()

	lw := (*worker)(w.Pointer())
	if lw == nil {
		return 0
	}

	matched := uint(0)
	remaining := lw.posted[:0]
	for _, op := range lw.posted {
		idx := matchIndex(lw.inbox, op)
		if idx < 0 {
			remaining = append(remaining, op)
			continue
		}
		msg := lw.inbox[idx]
		lw.inbox = append(lw.inbox[:idx], lw.inbox[idx+1:]...)
		deliver(msg, op)
		matched++
	}
	lw.posted = remaining
	return matched
}

func (t *Transport) endpointInfo(ucx.Endpoint) {
	t.mu.Lock()
	t.infoCalls++
	t.mu.Unlock()
}

func matchIndex(inbox []*message, op *recvOp) int {
	for i, msg := range inbox {
		if ucx.TagMask(msg.tag)&op.mask == ucx.TagMask(op.tag)&op.mask {
			return i
		}
	}
	return -1
}

func deliver(msg *message, op *recvOp) {
	n := msg.length
	if op.length < n {
		n = op.length
	}
	if n > 0 {
		dst := unsafe.Slice((*byte)(op.buf), n)
		if msg.payload != nil {
			copy(dst, msg.payload[:n])
		} else {
			copy(dst, unsafe.Slice((*byte)(msg.src), n))
		}
	}
	op.token.senderTag = uint64(msg.tag)
	op.token.hasSender = true
	op.token.complete()
	if msg.token != nil {
		msg.token.complete()
	}
}

func copyOut(buffer unsafe.Pointer, length int) []byte {
	if length == 0 {
		return nil
	}
	out := make([]byte, length)
	copy(out, unsafe.Slice((*byte)(buffer), length))
	return out
}
