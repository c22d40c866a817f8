package bridge

import (
	"fmt"

	"github.com/titi-lang/titi/engine"
)

// ---------------------------------------------------------------------------
// BytesIterator: sequence iteration over a bytes proxy
// ---------------------------------------------------------------------------

// Item kinds for the iteration protocol.
const (
	itemKindKey = iota
	itemKindValue
	itemKindKeyAndValue
)

// iterTypeName is the type name iterators report in diagnostics.
const iterTypeName = "bytes iterator"

// bytesIterState is a single iteration pass: active while the cursor is
// below the view length, exhausted (terminally) once it reaches it. Not
// restartable and not safe for concurrent use; a fresh iterator must be
// requested to iterate again.
type bytesIterState struct {
	kind int
	next int64
}

// newBytesIterator constructs an iterator over the receiver proxy's
// buffer view via the engine-global BytesIterator constructor, which is
// installed into the global scope the first time iteration is requested.
func newBytesIterator(vm *engine.VM, recv engine.Value, kind int) (engine.Value, error) {
	p := vm.Registry().GetProxy(recv)
	if p == nil {
		return engine.Nil, fmt.Errorf("iterator: receiver is not a bytes proxy")
	}

	ctor, ok := vm.Globals["BytesIterator"]
	if !ok || !ctor.IsFunc() {
		defineBytesIterator(vm)
		ctor = vm.Globals["BytesIterator"]
	}

	iter, err := vm.CallFunc(ctor, nil)
	if err != nil {
		return engine.Nil, err
	}

	ip := vm.Registry().GetProxy(iter)
	if ip == nil {
		return engine.Nil, fmt.Errorf("BytesIterator is not a constructor")
	}
	ip.Host.(*bytesIterState).kind = kind
	ip.Children = append(ip.Children, bytesView(p))
	return iter, nil
}

// defineBytesIterator installs the BytesIterator constructor into the
// engine's global scope.
func defineBytesIterator(vm *engine.VM) {
	vm.Globals["BytesIterator"] = vm.Registry().NewFuncValue(&engine.FuncObject{
		Name:  "BytesIterator",
		Bound: engine.Nil,
		Fn: func(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
			v := vm.Registry().NewProxyValue(&engine.ProxyObject{
				Handler: iterHandler{},
				Host:    &bytesIterState{},
			})
			return v, nil
		},
	})
}

// iterHandler implements the proxy protocol for iterator objects. The
// only claimed property is next; everything else yields nil.
type iterHandler struct{}

func (iterHandler) Get(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool, error) {
	if name != "next" {
		return engine.Nil, false, nil
	}
	return vm.Registry().NewFuncValue(&engine.FuncObject{
		Name:  "next",
		Fn:    iterNext,
		Bound: p.Self,
	}), true, nil
}

func (iterHandler) Set(vm *engine.VM, p *engine.ProxyObject, name string, v engine.Value) error {
	return &ReadOnlyError{Attr: name, TypeName: iterTypeName}
}

func (iterHandler) Finalize(vm *engine.VM, p *engine.ProxyObject) {}

func (iterHandler) TypeName(p *engine.ProxyObject) string { return iterTypeName }

// iterNext advances the iterator one step. An exhausted iterator keeps
// returning done results with no value.
func iterNext(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
	p := vm.Registry().GetProxy(recv)
	if p == nil {
		return engine.Nil, fmt.Errorf("next: receiver is not an iterator")
	}
	st, ok := p.Host.(*bytesIterState)
	if !ok || len(p.Children) == 0 {
		return engine.Nil, fmt.Errorf("next: iterator has no target")
	}

	var data []byte
	if b := vm.Registry().GetBuffer(p.Children[0]); b != nil {
		data = b.Data
	}

	result := engine.NewPlainObject()
	if st.next >= int64(len(data)) {
		result.Set("done", engine.True)
		return vm.Registry().NewObjectValue(result), nil
	}

	i := st.next
	st.next++

	result.Set("done", engine.False)
	switch st.kind {
	case itemKindValue:
		result.Set("value", engine.FromSmallInt(int64(data[i])))
	case itemKindKeyAndValue:
		pair := engine.NewPlainObject()
		pair.Set("0", engine.FromSmallInt(i))
		pair.Set("1", engine.FromSmallInt(int64(data[i])))
		result.Set("value", vm.Registry().NewObjectValue(pair))
	default: // itemKindKey
		result.Set("value", engine.FromSmallInt(i))
	}
	return vm.Registry().NewObjectValue(result), nil
}
