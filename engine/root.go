package engine

import "sync/atomic"

// ---------------------------------------------------------------------------
// Root: persistent value roots
// ---------------------------------------------------------------------------

// Root pins one engine value for as long as the root is held, independent
// of the engine's own reachability scan. A Root is released at most once;
// further Release calls are no-ops.
type Root struct {
	vm       *VM
	value    Value
	released atomic.Bool
}

// NewRoot pins v and returns the root keeping it alive.
func (vm *VM) NewRoot(v Value) *Root {
	r := &Root{vm: vm, value: v}
	vm.roots[r] = struct{}{}
	return r
}

// Value returns the pinned value. Valid only while the root is unreleased.
func (r *Root) Value() Value {
	return r.value
}

// Release unpins the value, returning it to ordinary collection.
// Returns true on the first call, false if the root was already released.
func (r *Root) Release() bool {
	if !r.released.CompareAndSwap(false, true) {
		return false
	}
	delete(r.vm.roots, r)
	return true
}

// Released reports whether the root has been released.
func (r *Root) Released() bool {
	return r.released.Load()
}

// RootCount returns the number of live persistent roots.
func (vm *VM) RootCount() int {
	return len(vm.roots)
}
