package engine

import (
	"fmt"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// VM: one engine execution context
// ---------------------------------------------------------------------------

// VM is a Titi engine execution context. One context is driven from one
// controlling thread at a time; the registry tables use internal locks but
// globals, roots and the pending error state are owner-thread only.
type VM struct {
	// Globals maps global names to values. Mutated by evaluation.
	Globals map[string]Value

	registry *Registry
	roots    map[*Root]struct{}
	gcHooks  []GCHook

	gcThreshold int
	cycleCount  atomic.Uint64
	lastGC      *GCStats

	pending   *ErrorState
	callStack []StackFrame
}

// New creates and bootstraps a new engine context.
func New() *VM {
	vm := &VM{
		Globals:  make(map[string]Value),
		registry: NewRegistry(),
		roots:    make(map[*Root]struct{}),
	}
	vm.bootstrapGlobals()
	return vm
}

// Registry returns the context's object registry.
func (vm *VM) Registry() *Registry {
	return vm.registry
}

// SetGCThreshold configures the live-object count that triggers automatic
// collection in MaybeCollect. Zero disables automatic collection.
func (vm *VM) SetGCThreshold(n int) {
	vm.gcThreshold = n
}

// Shutdown releases all roots and drops the context's state.
func (vm *VM) Shutdown() {
	for r := range vm.roots {
		r.Release()
	}
	vm.Globals = make(map[string]Value)
	vm.Collect()
}

// bootstrapGlobals installs the engine's native globals.
func (vm *VM) bootstrapGlobals() {
	// Bytes is the engine's native byte-array constructor. Proxies report
	// it as their constructor so instanceof-style checks succeed.
	vm.Globals["Bytes"] = vm.registry.NewFuncValue(&FuncObject{
		Name:  "Bytes",
		Bound: Nil,
		Fn: func(vm *VM, recv Value, args []Value) (Value, error) {
			data := make([]byte, len(args))
			for i, a := range args {
				if !a.IsSmallInt() || a.SmallInt() < 0 || a.SmallInt() > 255 {
					return Nil, fmt.Errorf("Bytes: argument %d is not a byte", i)
				}
				data[i] = byte(a.SmallInt())
			}
			return vm.registry.NewBufferValue(data), nil
		},
	})
}

// BytesConstructor returns the engine's native byte-array constructor value.
func (vm *VM) BytesConstructor() Value {
	return vm.Globals["Bytes"]
}

// CallFunc invokes a function value with the given arguments.
func (vm *VM) CallFunc(fv Value, args []Value) (Value, error) {
	f := vm.registry.GetFunc(fv)
	if f == nil {
		return Nil, fmt.Errorf("not a function value")
	}
	return f.Fn(vm, f.Bound, args)
}
