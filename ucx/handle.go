package ucx

import "unsafe"

// Rank is the integer identity of a participant in the distributed
// computation. Ranks must fit in 32 bits; see EncodeTag.
type Rank int32

// AnyRank is the wildcard source sentinel. It is valid only for receives
// issued with RankWildcardMask and never identifies a concrete peer.
const AnyRank Rank = -1

// Endpoint is the transport handle for a connection to one peer. Endpoints
// are created and destroyed by the external topology layer; this package
// only carries them through to the transport.
type Endpoint struct {
	ptr unsafe.Pointer
}

// EndpointFromPointer wraps a raw endpoint handle obtained from the topology
// layer.
func EndpointFromPointer(p unsafe.Pointer) Endpoint {
	return Endpoint{ptr: p}
}

// Pointer returns the raw handle passed to the transport.
func (e Endpoint) Pointer() unsafe.Pointer {
	return e.ptr
}

// Worker is the transport's local progress context. All endpoints hang off a
// worker, and no request completes unless the worker is driven through
// Channel.Progress on the thread that owns it.
type Worker struct {
	ptr unsafe.Pointer
}

// WorkerFromPointer wraps a raw worker handle obtained from the topology
// layer.
func WorkerFromPointer(p unsafe.Pointer) Worker {
	return Worker{ptr: p}
}

// Pointer returns the raw handle passed to the transport.
func (w Worker) Pointer() unsafe.Pointer {
	return w.ptr
}
