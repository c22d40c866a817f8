package engine

import "fmt"

// ---------------------------------------------------------------------------
// ProxyObject: engine objects whose behavior lives on the host side
// ---------------------------------------------------------------------------

// ProxyHandler implements the behavior of a proxy object. The engine
// consults the handler for every property read and write, and invokes
// Finalize exactly once when the proxy is collected.
type ProxyHandler interface {
	// Get resolves a property. found reports whether the handler claims
	// the property; when false the engine yields nil.
	Get(vm *VM, p *ProxyObject, name string) (v Value, found bool, err error)

	// Set stores a property. A non-nil error rejects the write and is
	// propagated to the caller unchanged.
	Set(vm *VM, p *ProxyObject, name string, v Value) error

	// Finalize releases handler-owned resources. Called by the collector
	// when the proxy is swept; never called twice for the same proxy.
	Finalize(vm *VM, p *ProxyObject)

	// TypeName reports the proxy's type name for diagnostics.
	TypeName(p *ProxyObject) string
}

// ProxyObject pairs a handler with its host-side data. Children holds
// engine values the proxy keeps alive (the collector traces them). Self
// is the proxy's own handle value, filled in at registration so handlers
// can bind methods to their receiver.
type ProxyObject struct {
	Handler  ProxyHandler
	Host     any
	Children []Value
	Self     Value

	finalized bool
}

// ProxyGet resolves a property on a proxy value via its handler.
// An unclaimed property yields Nil.
func (vm *VM) ProxyGet(v Value, name string) (Value, error) {
	p := vm.registry.GetProxy(v)
	if p == nil {
		return Nil, fmt.Errorf("not a proxy value")
	}
	val, found, err := p.Handler.Get(vm, p, name)
	if err != nil {
		return Nil, err
	}
	if !found {
		return Nil, nil
	}
	return val, nil
}

// ProxySet stores a property on a proxy value via its handler.
func (vm *VM) ProxySet(v Value, name string, val Value) error {
	p := vm.registry.GetProxy(v)
	if p == nil {
		return fmt.Errorf("not a proxy value")
	}
	return p.Handler.Set(vm, p, name, val)
}

// finalizeProxy runs the handler's Finalize hook at most once.
func (vm *VM) finalizeProxy(p *ProxyObject) {
	if p.finalized {
		return
	}
	p.finalized = true
	p.Handler.Finalize(vm, p)
}
