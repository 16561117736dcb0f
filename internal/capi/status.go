package capi

import (
	"fmt"
	"unsafe"
)

// Status mirrors the transport's status-code namespace. Zero is success,
// positive values indicate an operation still in flight, negative values are
// errors.
type Status int32

// Status codes mirrored from the transport's status enum. The list covers
// the values we expect to surface through the bindings; unknown codes are
// still representable and render numerically.
const (
	StatusOK         Status = 0
	StatusInProgress Status = 1

	StatusNoMessage          Status = -1
	StatusNoResource         Status = -2
	StatusIOError            Status = -3
	StatusNoMemory           Status = -4
	StatusInvalidParam       Status = -5
	StatusUnreachable        Status = -6
	StatusInvalidAddr        Status = -7
	StatusNotImplemented     Status = -8
	StatusMessageTruncated   Status = -9
	StatusNoProgress         Status = -10
	StatusBufferTooSmall     Status = -11
	StatusNoElem             Status = -12
	StatusSomeConnectsFailed Status = -13
	StatusNoDevice           Status = -14
	StatusBusy               Status = -15
	StatusCanceled           Status = -16
	StatusShmemSegment       Status = -17
	StatusAlreadyExists      Status = -18
	StatusOutOfRange         Status = -19
	StatusTimedOut           Status = -20
	StatusExceedsLimit       Status = -21
	StatusUnsupported        Status = -22
	StatusRejected           Status = -23
	StatusNotConnected       Status = -24
	StatusConnectionReset    Status = -25

	statusErrLast Status = -100
)

var statusNames = map[Status]string{
	StatusOK:                 "success",
	StatusInProgress:         "operation in progress",
	StatusNoMessage:          "no pending message",
	StatusNoResource:         "no resources available",
	StatusIOError:            "input/output error",
	StatusNoMemory:           "out of memory",
	StatusInvalidParam:       "invalid parameter",
	StatusUnreachable:        "destination is unreachable",
	StatusInvalidAddr:        "address not valid",
	StatusNotImplemented:     "function not implemented",
	StatusMessageTruncated:   "message truncated",
	StatusNoProgress:         "no progress",
	StatusBufferTooSmall:     "provided buffer too small",
	StatusNoElem:             "no such element",
	StatusSomeConnectsFailed: "failed to connect some of the requested endpoints",
	StatusNoDevice:           "no such device",
	StatusBusy:               "device is busy",
	StatusCanceled:           "request canceled",
	StatusShmemSegment:       "shared memory error",
	StatusAlreadyExists:      "element already exists",
	StatusOutOfRange:         "index out of range",
	StatusTimedOut:           "operation timed out",
	StatusExceedsLimit:       "user-defined limit was reached",
	StatusUnsupported:        "unsupported operation",
	StatusRejected:           "operation rejected by remote peer",
	StatusNotConnected:       "endpoint is not connected",
	StatusConnectionReset:    "connection reset by remote peer",
}

// IsErr reports whether the status represents an error.
func (s Status) IsErr() bool {
	return s < StatusOK
}

// Error makes error statuses usable as Go errors.
func (s Status) Error() string {
	return s.String()
}

// String returns the transport's message for the status code.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown status %d", int32(s))
}

// WithOp adds operation context to an error status.
func (s Status) WithOp(op string) error {
	if op == "" {
		return s
	}
	return fmt.Errorf("%s: %w", op, s)
}

// The transport packs negative status codes into status pointers, so error
// pointers occupy the top of the address space from the last error code up.
const ptrErrFloor = ^uintptr(0) - uintptr(-statusErrLast) + 1

// PtrIsErr reports whether a status pointer encodes an error code.
func PtrIsErr(p unsafe.Pointer) bool {
	return ptrIsErr(uintptr(p))
}

// PtrStatus extracts the status code packed into a status pointer.
func PtrStatus(p unsafe.Pointer) Status {
	return statusFromPtr(uintptr(p))
}

func ptrIsErr(p uintptr) bool {
	return p >= ptrErrFloor
}

func statusFromPtr(p uintptr) Status {
	return Status(int64(p))
}
