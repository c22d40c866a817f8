package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/titi-lang/titi/engine"
)

// ---------------------------------------------------------------------------
// BytesProxy: a host byte sequence as a read-only engine byte array
// ---------------------------------------------------------------------------

// IterSymbol is the engine's well-known iteration-protocol property name.
const IterSymbol = "@@iterator"

// bytesTypeName is the type name bytes proxies report in diagnostics.
const bytesTypeName = "bytes"

// NewBytesProxy wraps the host byte sequence held by ref as a read-only,
// array-like object inside the engine. The proxy exclusively owns its raw
// buffer view; the view is released exactly once when the proxy is
// collected. The proxy value is pinned by a new root recorded in the
// liveness registry under ref, so it stays alive while the host object
// has external holders.
func NewBytesProxy(vm *engine.VM, liveness *Liveness, ref *HostRef) (engine.Value, error) {
	var data []byte
	switch host := ref.Value().(type) {
	case []byte:
		data = host
	case ByteSource:
		data = host.Bytes()
	default:
		return engine.Nil, fmt.Errorf("bytes proxy: host object is not a byte sequence")
	}

	view := vm.Registry().NewBufferValue(data)
	proxy := vm.Registry().NewProxyValue(&engine.ProxyObject{
		Handler:  bytesHandler{},
		Host:     ref,
		Children: []engine.Value{view},
	})

	liveness.Record(ref, vm.NewRoot(proxy))
	return proxy, nil
}

// InstallBytesConstructor replaces the engine's native byte-array
// constructor with one producing bridged bytes proxies, so byte arrays
// created from script code carry the full method table and iteration
// protocol rather than the raw buffer surface.
func InstallBytesConstructor(vm *engine.VM, liveness *Liveness) {
	vm.Globals["Bytes"] = vm.Registry().NewFuncValue(&engine.FuncObject{
		Name:  "Bytes",
		Bound: engine.Nil,
		Fn: func(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
			data := make([]byte, len(args))
			for i, a := range args {
				if !a.IsSmallInt() || a.SmallInt() < 0 || a.SmallInt() > 255 {
					return engine.Nil, fmt.Errorf("Bytes: argument %d is not a byte", i)
				}
				data[i] = byte(a.SmallInt())
			}
			return NewBytesProxy(vm, liveness, NewHostRef(data))
		},
	})
}

// bytesHandler implements the proxy protocol for byte sequences. All
// state lives on the ProxyObject: Host is the *HostRef, Children[0] the
// owned buffer view.
type bytesHandler struct{}

// bytesResolver is one step of the property resolution chain. It either
// claims the name and produces a descriptor value, or passes.
type bytesResolver func(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool)

// bytesResolvers is the fixed resolution order: method table, reserved
// names, iteration symbol, numeric index. Host-attribute fallback runs
// after the chain.
var bytesResolvers = []bytesResolver{
	resolveMethod,
	resolveReserved,
	resolveIterSymbol,
	resolveIndex,
}

func (bytesHandler) Get(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool, error) {
	for _, resolve := range bytesResolvers {
		if v, ok := resolve(vm, p, name); ok {
			return v, true, nil
		}
	}
	return resolveHostAttr(vm, p, name)
}

// Set denies every write: the proxy never permits structural or value
// mutation.
func (bytesHandler) Set(vm *engine.VM, p *engine.ProxyObject, name string, v engine.Value) error {
	return &ReadOnlyError{Attr: name, TypeName: bytesTypeName}
}

// Finalize releases the owned buffer view. The engine guarantees at most
// one call per proxy; ReleaseBuffer additionally tolerates a view the
// collector already swept.
func (bytesHandler) Finalize(vm *engine.VM, p *engine.ProxyObject) {
	vm.Registry().ReleaseBuffer(bytesView(p))
}

func (bytesHandler) TypeName(p *engine.ProxyObject) string {
	return bytesTypeName
}

// bytesView returns the proxy's owned buffer view value.
func bytesView(p *engine.ProxyObject) engine.Value {
	return p.Children[0]
}

func bytesData(vm *engine.VM, p *engine.ProxyObject) []byte {
	if b := vm.Registry().GetBuffer(bytesView(p)); b != nil {
		return b.Data
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolver chain
// ---------------------------------------------------------------------------

// bytesMethods is the fixed method table. Each entry returns a function
// bound to the proxy it was resolved on.
var bytesMethods = map[string]engine.NativeFunc{
	"toString": bytesToString,
	"valueOf":  bytesToString,
	"entries":  bytesEntries,
	"keys":     bytesKeys,
	"values":   bytesValues,
}

func resolveMethod(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool) {
	fn, ok := bytesMethods[name]
	if !ok {
		return engine.Nil, false
	}
	return vm.Registry().NewFuncValue(&engine.FuncObject{
		Name:  name,
		Fn:    fn,
		Bound: p.Self,
	}), true
}

func resolveReserved(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool) {
	switch name {
	case "length", "byteLength":
		return engine.FromSmallInt(int64(len(bytesData(vm, p)))), true
	case "buffer":
		return bytesView(p), true
	case "BYTES_PER_ELEMENT":
		return engine.FromSmallInt(1), true
	case "byteOffset":
		return engine.FromSmallInt(0), true
	case "constructor":
		return vm.BytesConstructor(), true
	}
	return engine.Nil, false
}

func resolveIterSymbol(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool) {
	if name != IterSymbol {
		return engine.Nil, false
	}
	return vm.Registry().NewFuncValue(&engine.FuncObject{
		Name:  "values",
		Fn:    bytesValues,
		Bound: p.Self,
	}), true
}

// resolveIndex claims canonical decimal indices within [0, length).
// Sign-prefixed or zero-padded spellings are not index names; they fall
// through to non-indexed resolution like everything else.
func resolveIndex(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool) {
	i, err := strconv.ParseInt(name, 10, 64)
	if err != nil || strconv.FormatInt(i, 10) != name {
		return engine.Nil, false
	}
	data := bytesData(vm, p)
	if i < 0 || i >= int64(len(data)) {
		return engine.Nil, false
	}
	return engine.FromSmallInt(int64(data[i])), true
}

// resolveHostAttr delegates to the wrapped host object's own attribute
// lookup when it provides one.
func resolveHostAttr(vm *engine.VM, p *engine.ProxyObject, name string) (engine.Value, bool, error) {
	ref, ok := p.Host.(*HostRef)
	if !ok {
		return engine.Nil, false, nil
	}
	provider, ok := ref.Value().(AttrProvider)
	if !ok {
		return engine.Nil, false, nil
	}
	attr, ok := provider.Attr(name)
	if !ok {
		return engine.Nil, false, nil
	}
	v, err := hostToValue(vm, attr)
	if err != nil {
		return engine.Nil, false, err
	}
	return v, true, nil
}

// ---------------------------------------------------------------------------
// Protocol methods
// ---------------------------------------------------------------------------

// bytesToString renders each byte as decimal, comma separated, in index
// order.
func bytesToString(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
	p := vm.Registry().GetProxy(recv)
	if p == nil {
		return engine.Nil, fmt.Errorf("toString: receiver is not a bytes proxy")
	}
	data := bytesData(vm, p)

	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	return vm.Registry().NewStringValue(sb.String()), nil
}

func bytesEntries(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
	return newBytesIterator(vm, recv, itemKindKeyAndValue)
}

func bytesKeys(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
	return newBytesIterator(vm, recv, itemKindKey)
}

func bytesValues(vm *engine.VM, recv engine.Value, args []engine.Value) (engine.Value, error) {
	return newBytesIterator(vm, recv, itemKindValue)
}

// hostToValue converts a host attribute value to an engine value.
func hostToValue(vm *engine.VM, v any) (engine.Value, error) {
	switch v := v.(type) {
	case nil:
		return engine.Nil, nil
	case bool:
		return engine.FromBool(v), nil
	case int:
		return engine.FromSmallInt(int64(v)), nil
	case int64:
		return engine.FromSmallInt(v), nil
	case float64:
		return engine.FromFloat64(v), nil
	case string:
		return vm.Registry().NewStringValue(v), nil
	}
	return engine.Nil, fmt.Errorf("unsupported host attribute type %T", v)
}
