//go:build cgo

package capi

import (
	"fmt"
	"unsafe"
)

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"

// RuntimeName is the shared object the transport ships its entry points in.
const RuntimeName = "libucp.so"

// Runtime owns a handle to the transport's dynamically loaded runtime. The
// transport is deliberately not a build-time dependency; all entry points are
// resolved by name from this handle.
type Runtime struct {
	handle unsafe.Pointer
}

// OpenRuntime locates the transport runtime. A non-loading lookup runs first
// so that a runtime already initialized by the surrounding process is never
// loaded twice; only when that fails is the library loaded fresh. The handle
// is opened RTLD_NODELETE, so resolved symbols stay valid for the process
// lifetime even after Close.
func OpenRuntime() (*Runtime, error) {
	name := C.CString(RuntimeName)
	defer C.free(unsafe.Pointer(name))

	handle := C.dlopen(name, C.RTLD_LAZY|C.RTLD_NOLOAD|C.RTLD_NODELETE)
	if handle == nil {
		handle = C.dlopen(name, C.RTLD_LAZY|C.RTLD_NODELETE)
	}
	if handle == nil {
		return nil, fmt.Errorf("dlopen %s: %s", RuntimeName, dlError())
	}
	C.dlerror() // clear any sticky error before symbol lookups
	return &Runtime{handle: handle}, nil
}

// Lookup resolves a named entry point from the runtime.
func (r *Runtime) Lookup(name string) (unsafe.Pointer, error) {
	if r == nil || r.handle == nil {
		return nil, fmt.Errorf("dlsym %s: runtime not loaded", name)
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	sym := C.dlsym(r.handle, cname)
	if msg := dlError(); msg != "" {
		return nil, fmt.Errorf("dlsym %s: %s", name, msg)
	}
	if sym == nil {
		return nil, fmt.Errorf("dlsym %s: symbol resolved to nil", name)
	}
	return sym, nil
}

// Close releases the runtime handle at process teardown. Entry points
// resolved earlier remain callable because the library was opened with
// RTLD_NODELETE.
func (r *Runtime) Close() error {
	if r == nil || r.handle == nil {
		return nil
	}
	if C.dlclose(r.handle) != 0 {
		return fmt.Errorf("dlclose %s: %s", RuntimeName, dlError())
	}
	r.handle = nil
	return nil
}

func dlError() string {
	if msg := C.dlerror(); msg != nil {
		return C.GoString(msg)
	}
	return ""
}
