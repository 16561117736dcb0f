//go:build cgo

package capi

import "unsafe"

/*
#include <stddef.h>
#include <stdint.h>
#include <stdio.h>

// Minimal mirror of the transport ABI. The transport runtime is dlopen'ed, so
// its headers are not a build dependency; only the types crossing the five
// resolved entry points are declared here.

typedef void    *ucxgo_ep_h;
typedef void    *ucxgo_worker_h;
typedef uint64_t ucxgo_tag_t;
typedef uint64_t ucxgo_datatype_t;
typedef int      ucxgo_status_t;

// Layout of the per-request reservation the completion callbacks write into.
// The external bootstrap layer must configure the transport with at least
// this much request space and zero it in the request-init hook.
typedef struct ucxgo_context {
	int      completed;
	int      has_sender;
	uint64_t sender_tag;
} ucxgo_context_t;

typedef struct ucxgo_recv_info {
	ucxgo_tag_t sender_tag;
	size_t      length;
} ucxgo_recv_info_t;

typedef void (*ucxgo_send_cb_t)(void *request, ucxgo_status_t status);
typedef void (*ucxgo_recv_cb_t)(void *request, ucxgo_status_t status,
                                ucxgo_recv_info_t *info);

// Single contiguous element datatype descriptor: class CONTIG (0) with the
// element size above the class bits.
#define UCXGO_DATATYPE_SHIFT 3

static ucxgo_datatype_t ucxgo_dt_contig(size_t elem_size) {
	return (ucxgo_datatype_t)elem_size << UCXGO_DATATYPE_SHIFT;
}

// The callbacks run on the thread driving progress and may only flip the
// completed flag, capturing the matched sender tag for receives.
static void ucxgo_send_handle(void *request, ucxgo_status_t status) {
	((ucxgo_context_t *)request)->completed = 1;
}

static void ucxgo_recv_handle(void *request, ucxgo_status_t status,
                              ucxgo_recv_info_t *info) {
	ucxgo_context_t *ctx = (ucxgo_context_t *)request;
	if (info != NULL) {
		ctx->sender_tag = info->sender_tag;
		ctx->has_sender = 1;
	}
	ctx->completed = 1;
}

typedef void *(*ucxgo_tag_send_fn)(ucxgo_ep_h ep, const void *buffer,
                                   size_t count, ucxgo_datatype_t datatype,
                                   ucxgo_tag_t tag, ucxgo_send_cb_t cb);
typedef void *(*ucxgo_tag_recv_fn)(ucxgo_worker_h worker, void *buffer,
                                   size_t count, ucxgo_datatype_t datatype,
                                   ucxgo_tag_t tag, ucxgo_tag_t tag_mask,
                                   ucxgo_recv_cb_t cb);
typedef void     (*ucxgo_request_free_fn)(void *request);
typedef unsigned (*ucxgo_worker_progress_fn)(ucxgo_worker_h worker);
typedef void     (*ucxgo_ep_print_info_fn)(ucxgo_ep_h ep, FILE *stream);

static void *ucxgo_call_tag_send(void *fn, void *ep, const void *buffer,
                                 size_t length, ucxgo_tag_t tag) {
	return ((ucxgo_tag_send_fn)fn)(ep, buffer, length, ucxgo_dt_contig(1),
	                               tag, ucxgo_send_handle);
}

static void *ucxgo_call_tag_recv(void *fn, void *worker, void *buffer,
                                 size_t length, ucxgo_tag_t tag,
                                 ucxgo_tag_t tag_mask) {
	return ((ucxgo_tag_recv_fn)fn)(worker, buffer, length, ucxgo_dt_contig(1),
	                               tag, tag_mask, ucxgo_recv_handle);
}

static void ucxgo_call_request_free(void *fn, void *request) {
	((ucxgo_request_free_fn)fn)(request);
}

static unsigned ucxgo_call_worker_progress(void *fn, void *worker) {
	return ((ucxgo_worker_progress_fn)fn)(worker);
}

static void ucxgo_call_ep_print_info(void *fn, void *ep) {
	((ucxgo_ep_print_info_fn)fn)(ep, stdout);
}
*/
import "C"

// TagSendNB invokes the resolved async-send entry point with the fixed
// single-contiguous-element datatype. The returned pointer follows the
// transport's status-pointer convention: nil means the send completed
// synchronously, the error range encodes a status code, anything else is an
// in-flight request token.
func TagSendNB(fn, ep, buffer unsafe.Pointer, length uintptr, tag uint64) unsafe.Pointer {
	return C.ucxgo_call_tag_send(fn, ep, buffer, C.size_t(length), C.ucxgo_tag_t(tag))
}

// TagRecvNB invokes the resolved async-receive entry point. Matching applies
// mask to the wire tag; bits cleared in the mask are ignored.
func TagRecvNB(fn, worker, buffer unsafe.Pointer, length uintptr, tag, mask uint64) unsafe.Pointer {
	return C.ucxgo_call_tag_recv(fn, worker, buffer, C.size_t(length), C.ucxgo_tag_t(tag), C.ucxgo_tag_t(mask))
}

// RequestFree hands a request token back to the transport.
func RequestFree(fn, request unsafe.Pointer) {
	C.ucxgo_call_request_free(fn, request)
}

// WorkerProgress drives the transport's event loop once on the calling
// thread and reports how many events were progressed.
func WorkerProgress(fn, worker unsafe.Pointer) uint {
	return uint(C.ucxgo_call_worker_progress(fn, worker))
}

// EndpointPrintInfo dumps the transport's diagnostic description of an
// endpoint to stdout.
func EndpointPrintInfo(fn, ep unsafe.Pointer) {
	C.ucxgo_call_ep_print_info(fn, ep)
}

// RequestToken exposes the completion flag and metadata the transport's
// callbacks write into the per-request reservation. The token is owned
// jointly with the transport until it is handed back through RequestFree.
type RequestToken struct {
	ptr unsafe.Pointer
}

// TokenFromPointer wraps an in-flight request pointer returned by the
// transport.
func TokenFromPointer(p unsafe.Pointer) *RequestToken {
	if p == nil {
		return nil
	}
	return &RequestToken{ptr: p}
}

// Pointer returns the raw request pointer for RequestFree.
func (t *RequestToken) Pointer() unsafe.Pointer {
	return t.ptr
}

// Done reports whether the completion callback has run.
func (t *RequestToken) Done() bool {
	return (*C.ucxgo_context_t)(t.ptr).completed != 0
}

// Reset clears the completion flag and metadata so the reservation is clean
// when the token returns to the transport.
func (t *RequestToken) Reset() {
	ctx := (*C.ucxgo_context_t)(t.ptr)
	ctx.completed = 0
	ctx.has_sender = 0
	ctx.sender_tag = 0
}

// SenderTag returns the wire tag the transport recorded when a receive
// matched. ok is false for sends and for receives that have not completed.
func (t *RequestToken) SenderTag() (uint64, bool) {
	ctx := (*C.ucxgo_context_t)(t.ptr)
	if ctx.has_sender == 0 {
		return 0, false
	}
	return uint64(ctx.sender_tag), true
}
