package bridge

import (
	"errors"

	"github.com/titi-lang/titi/engine"
)

// ---------------------------------------------------------------------------
// Evaluator: drive the engine from the host and lift results out
// ---------------------------------------------------------------------------

// Handle is a host-observable, engine-resident evaluation result. The
// engine value stays pinned while the handle has external holders; the
// GC liveness bridge retires the pin once the handle is released.
type Handle struct {
	Ref   *HostRef
	Value engine.Value
}

// Release drops the caller's hold on the handle. After the engine's next
// collection cycle the underlying value returns to ordinary collection.
func (h *Handle) Release() {
	h.Ref.Release()
}

// Evaluator evaluates source on an engine context and converts results
// for the host, registering liveness roots for results that remain
// engine-resident.
type Evaluator struct {
	vm       *engine.VM
	liveness *Liveness
}

// NewEvaluator creates an Evaluator. The liveness registry's sweep should
// already be installed on vm (see Liveness.Install). The engine's Bytes
// constructor is rebound to produce bridged proxies.
func NewEvaluator(vm *engine.VM, liveness *Liveness) *Evaluator {
	InstallBytesConstructor(vm, liveness)
	return &Evaluator{vm: vm, liveness: liveness}
}

// VM returns the underlying engine context.
func (e *Evaluator) VM() *engine.VM { return e.vm }

// Liveness returns the underlying liveness registry.
func (e *Evaluator) Liveness() *Liveness { return e.liveness }

// Eval evaluates source and returns the result as a host value:
// nil, bool, int64, float64 and string results convert directly;
// engine-resident results (proxies, buffers, functions, objects) are
// returned as a *Handle pinned via the liveness registry.
//
// On failure a read-only violation is returned as-is; every other
// failure goes through the exception translator.
func (e *Evaluator) Eval(source, filename string) (any, error) {
	v, err := e.vm.Eval(source, filename)
	if err != nil {
		var ro *ReadOnlyError
		if errors.As(err, &ro) {
			return nil, ro
		}
		return nil, Translate(e.vm)
	}

	defer e.vm.MaybeCollect()
	return e.lift(v), nil
}

// lift converts an engine value to its host representation.
func (e *Evaluator) lift(v engine.Value) any {
	switch {
	case v.IsNil():
		return nil
	case v.IsBool():
		return v.Bool()
	case v.IsSmallInt():
		return v.SmallInt()
	case v.IsFloat():
		return v.Float64()
	case v.IsString():
		return e.vm.Registry().StringContent(v)
	}

	// Engine-resident result: pin it and track the pin under a fresh
	// host identity so the GC liveness bridge can retire it later.
	h := &Handle{Value: v}
	h.Ref = NewHostRef(h)
	h.Ref.Retain() // the caller's hold
	e.liveness.Record(h.Ref, e.vm.NewRoot(v))
	return h
}
