package ucx

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/rocketbitz/ucx-go/internal/capi"
)

// Entry points resolved at bind time. Each one is a hard requirement; there
// is no functional fallback for a missing symbol.
const (
	symTagSend      = "ucp_tag_send_nb"
	symTagRecv      = "ucp_tag_recv_nb"
	symRequestFree  = "ucp_request_free"
	symEndpointInfo = "ucp_ep_print_info"
	symProgress     = "ucp_worker_progress"
)

// Token is the transport's opaque completion token. It stays owned jointly
// with the transport runtime until the request is released.
type Token interface {
	// Done reports whether the transport's completion callback has run.
	Done() bool
	// Reset clears the completion flag before the token returns to the
	// transport.
	Reset()
	// SenderTag returns the wire tag recorded when a receive matched; ok is
	// false for sends and for receives without completion metadata.
	SenderTag() (uint64, bool)
}

// FunctionTable holds the typed function handles resolved from the transport
// runtime. It is immutable after Bind and shared process-wide.
type FunctionTable struct {
	// SendAsync posts an asynchronous tagged send on an endpoint. A nil
	// token with StatusOK means the send completed synchronously.
	SendAsync func(ep Endpoint, buffer unsafe.Pointer, length int, tag WireTag) (Token, Status)
	// RecvAsync posts an asynchronous tagged receive on a worker, matching
	// tag under mask.
	RecvAsync func(w Worker, buffer unsafe.Pointer, length int, tag WireTag, mask TagMask) (Token, Status)
	// FreeRequest hands a token back to the transport.
	FreeRequest func(tok Token)
	// Progress drives the worker's event loop once.
	Progress func(w Worker) uint
	// EndpointInfo prints the transport's diagnostic endpoint description.
	EndpointInfo func(ep Endpoint)
}

// symbolSource abstracts the dynamically loaded runtime for bind-time symbol
// resolution.
type symbolSource interface {
	Lookup(name string) (unsafe.Pointer, error)
	Close() error
}

var (
	bindMu      sync.Mutex
	boundTable  *FunctionTable
	boundSource symbolSource

	openRuntime = func() (symbolSource, error) { return capi.OpenRuntime() }
)

// Bind resolves the transport's entry points into the process-wide function
// table. The first call loads the runtime and resolves every symbol; later
// calls return the same table. A missing runtime or symbol is fatal: the
// process cannot continue without the transport.
func Bind(logger *zap.Logger) *FunctionTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	bindMu.Lock()
	defer bindMu.Unlock()
	if boundTable != nil {
		return boundTable
	}
	src, err := openRuntime()
	if err != nil {
		logger.Fatal("ucx: loading transport runtime", zap.Error(err))
	}
	boundSource = src
	boundTable = bindTable(src, logger)
	return boundTable
}

// Shutdown unbinds the transport runtime at process teardown. Requests must
// not be issued afterwards; there is no re-initialization path.
func Shutdown() error {
	bindMu.Lock()
	defer bindMu.Unlock()
	boundTable = nil
	if boundSource == nil {
		return nil
	}
	err := boundSource.Close()
	boundSource = nil
	return err
}

func bindTable(src symbolSource, logger *zap.Logger) *FunctionTable {
	lookup := func(name string) unsafe.Pointer {
		ptr, err := src.Lookup(name)
		if err != nil {
			logger.Fatal("ucx: required transport symbol missing",
				zap.String("symbol", name),
				zap.Error(err),
			)
		}
		return ptr
	}

	sendFn := lookup(symTagSend)
	recvFn := lookup(symTagRecv)
	freeFn := lookup(symRequestFree)
	infoFn := lookup(symEndpointInfo)
	progressFn := lookup(symProgress)

	return &FunctionTable{
		SendAsync: func(ep Endpoint, buffer unsafe.Pointer, length int, tag WireTag) (Token, Status) {
			return classifyStatusPointer(capi.TagSendNB(sendFn, ep.Pointer(), buffer, uintptr(length), uint64(tag)))
		},
		RecvAsync: func(w Worker, buffer unsafe.Pointer, length int, tag WireTag, mask TagMask) (Token, Status) {
			return classifyStatusPointer(capi.TagRecvNB(recvFn, w.Pointer(), buffer, uintptr(length), uint64(tag), uint64(mask)))
		},
		FreeRequest: func(tok Token) {
			if rt, ok := tok.(*capi.RequestToken); ok && rt != nil {
				capi.RequestFree(freeFn, rt.Pointer())
			}
		},
		Progress: func(w Worker) uint {
			return capi.WorkerProgress(progressFn, w.Pointer())
		},
		EndpointInfo: func(ep Endpoint) {
			capi.EndpointPrintInfo(infoFn, ep.Pointer())
		},
	}
}

// classifyStatusPointer translates the transport's status-pointer return
// convention: nil is synchronous success, the error range encodes a status
// code, anything else is an in-flight request token.
func classifyStatusPointer(p unsafe.Pointer) (Token, Status) {
	switch {
	case p == nil:
		return nil, capi.StatusOK
	case capi.PtrIsErr(p):
		return nil, capi.PtrStatus(p)
	default:
		return capi.TokenFromPointer(p), capi.StatusInProgress
	}
}
