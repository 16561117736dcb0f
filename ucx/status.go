package ucx

import "github.com/rocketbitz/ucx-go/internal/capi"

// Status re-exports the transport status-code type for consumers of the ucx
// package.
type Status = capi.Status

const (
	StatusOK           = capi.StatusOK
	StatusInProgress   = capi.StatusInProgress
	StatusNoResource   = capi.StatusNoResource
	StatusInvalidParam = capi.StatusInvalidParam
	StatusUnreachable  = capi.StatusUnreachable
	StatusUnsupported  = capi.StatusUnsupported
)
