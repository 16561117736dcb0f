package ucx

import (
	"fmt"
	"strings"
	"testing"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fakeSymbol byte

type fakeSymbolSource struct {
	missing map[string]bool
	looked  []string
	closed  bool
}

func (s *fakeSymbolSource) Lookup(name string) (unsafe.Pointer, error) {
	s.looked = append(s.looked, name)
	if s.missing[name] {
		return nil, fmt.Errorf("dlsym %s: undefined symbol", name)
	}
	return unsafe.Pointer(&fakeSymbol), nil
}

func (s *fakeSymbolSource) Close() error {
	s.closed = true
	return nil
}

func newFatalObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)), logs
}

func expectFatal(t *testing.T, fn func()) (panicked bool) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			panicked = true
		}
	}()
	fn()
	return false
}

func TestBindTableResolvesAllSymbols(t *testing.T) {
	src := &fakeSymbolSource{}
	logger, _ := newFatalObservedLogger()

	table := bindTable(src, logger)
	if table == nil {
		t.Fatalf("bindTable returned nil table")
	}
	if table.SendAsync == nil || table.RecvAsync == nil || table.FreeRequest == nil ||
		table.Progress == nil || table.EndpointInfo == nil {
		t.Fatalf("resolved table has nil entry points: %+v", table)
	}

	want := []string{symTagSend, symTagRecv, symRequestFree, symEndpointInfo, symProgress}
	if len(src.looked) != len(want) {
		t.Fatalf("resolved %d symbols, want %d (%v)", len(src.looked), len(want), src.looked)
	}
	for _, name := range want {
		found := false
		for _, got := range src.looked {
			if got == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("symbol %s was never resolved (got %v)", name, src.looked)
		}
	}
}

func TestBindTableMissingSymbolIsFatal(t *testing.T) {
	for _, name := range []string{symTagSend, symTagRecv, symRequestFree, symEndpointInfo, symProgress} {
		t.Run(name, func(t *testing.T) {
			src := &fakeSymbolSource{missing: map[string]bool{name: true}}
			logger, logs := newFatalObservedLogger()

			if !expectFatal(t, func() { bindTable(src, logger) }) {
				t.Fatalf("expected fatal abort for missing symbol %s", name)
			}

			entries := logs.FilterLevelExact(zapcore.FatalLevel).All()
			if len(entries) != 1 {
				t.Fatalf("expected one fatal log entry, got %d", len(entries))
			}
			if sym, _ := entries[0].ContextMap()["symbol"].(string); sym != name {
				t.Fatalf("fatal entry names symbol %q, want %q", sym, name)
			}
			if !strings.Contains(entries[0].Message, "transport symbol missing") {
				t.Fatalf("unexpected fatal message: %q", entries[0].Message)
			}
		})
	}
}

func TestBindIsIdempotent(t *testing.T) {
	src := &fakeSymbolSource{}
	restore := openRuntime
	openRuntime = func() (symbolSource, error) { return src, nil }
	t.Cleanup(func() {
		openRuntime = restore
		_ = Shutdown()
	})
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown before bind: %v", err)
	}

	logger, _ := newFatalObservedLogger()
	first := Bind(logger)
	second := Bind(logger)
	if first != second {
		t.Fatalf("re-binding produced a new table")
	}
	if got := len(src.looked); got != 5 {
		t.Fatalf("symbols resolved %d times, want exactly one pass of 5", got)
	}

	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !src.closed {
		t.Fatalf("Shutdown did not close the runtime handle")
	}
}

func TestBindFailsFastWhenRuntimeMissing(t *testing.T) {
	restore := openRuntime
	openRuntime = func() (symbolSource, error) { return nil, fmt.Errorf("dlopen libucp.so: not found") }
	t.Cleanup(func() {
		openRuntime = restore
		_ = Shutdown()
	})
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown before bind: %v", err)
	}

	logger, logs := newFatalObservedLogger()
	if !expectFatal(t, func() { Bind(logger) }) {
		t.Fatalf("expected fatal abort when the runtime cannot be loaded")
	}
	entries := logs.FilterLevelExact(zapcore.FatalLevel).All()
	if len(entries) != 1 || !strings.Contains(entries[0].Message, "loading transport runtime") {
		t.Fatalf("unexpected fatal entries: %+v", entries)
	}
}
