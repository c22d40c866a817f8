package engine

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Registry: ID-keyed tables for all heap-resident engine objects
// ---------------------------------------------------------------------------

// StringObject holds the content of an engine string.
type StringObject struct {
	Content string
}

// BufferObject is a raw byte buffer view. The engine treats the data as
// immutable; buffers created for host byte sequences share the host slice.
type BufferObject struct {
	Data     []byte
	released bool
}

// NativeFunc is the signature of native function implementations. recv is
// the bound receiver (Nil for unbound functions).
type NativeFunc func(vm *VM, recv Value, args []Value) (Value, error)

// FuncObject is a callable native function, optionally bound to a receiver.
type FuncObject struct {
	Name  string
	Fn    NativeFunc
	Bound Value // receiver the function was bound to, or Nil
}

// PlainObject is a small ordered property bag (iteration results and other
// engine-internal composites).
type PlainObject struct {
	Names []string
	Props map[string]Value
}

// NewPlainObject creates an empty PlainObject.
func NewPlainObject() *PlainObject {
	return &PlainObject{Props: make(map[string]Value)}
}

// Set stores a property, preserving first-insertion order.
func (o *PlainObject) Set(name string, v Value) {
	if _, ok := o.Props[name]; !ok {
		o.Names = append(o.Names, name)
	}
	o.Props[name] = v
}

// Get returns a property value and whether it exists.
func (o *PlainObject) Get(name string) (Value, bool) {
	v, ok := o.Props[name]
	return v, ok
}

// Registry manages all engine-local object tables. IDs are dense counters
// starting at 1 (0 could be confused with nil/uninitialized), with the
// table selected by the handle marker in the Value encoding.
type Registry struct {
	strings   map[uint32]*StringObject
	stringsMu sync.RWMutex
	stringID  atomic.Uint32

	buffers   map[uint32]*BufferObject
	buffersMu sync.RWMutex
	bufferID  atomic.Uint32

	proxies   map[uint32]*ProxyObject
	proxiesMu sync.RWMutex
	proxyID   atomic.Uint32

	funcs   map[uint32]*FuncObject
	funcsMu sync.RWMutex
	funcID  atomic.Uint32

	objects   map[uint32]*PlainObject
	objectsMu sync.RWMutex
	objectID  atomic.Uint32
}

// NewRegistry creates a Registry with all tables initialized.
func NewRegistry() *Registry {
	return &Registry{
		strings: make(map[uint32]*StringObject),
		buffers: make(map[uint32]*BufferObject),
		proxies: make(map[uint32]*ProxyObject),
		funcs:   make(map[uint32]*FuncObject),
		objects: make(map[uint32]*PlainObject),
	}
}

// ---------------------------------------------------------------------------
// String table
// ---------------------------------------------------------------------------

// NewStringValue registers a string and returns its handle Value.
func (r *Registry) NewStringValue(s string) Value {
	id := r.stringID.Add(1)
	r.stringsMu.Lock()
	r.strings[id] = &StringObject{Content: s}
	r.stringsMu.Unlock()
	return fromHandle(stringMarker, id)
}

// GetString returns the StringObject for a string handle, or nil.
func (r *Registry) GetString(v Value) *StringObject {
	if !v.IsString() {
		return nil
	}
	r.stringsMu.RLock()
	defer r.stringsMu.RUnlock()
	return r.strings[v.HandleID()]
}

// StringContent returns the Go string behind a string handle, or "".
func (r *Registry) StringContent(v Value) string {
	if s := r.GetString(v); s != nil {
		return s.Content
	}
	return ""
}

// StringCount returns the number of registered strings.
func (r *Registry) StringCount() int {
	r.stringsMu.RLock()
	defer r.stringsMu.RUnlock()
	return len(r.strings)
}

// ---------------------------------------------------------------------------
// Buffer table
// ---------------------------------------------------------------------------

// NewBufferValue registers a byte buffer view and returns its handle Value.
// The slice is shared, not copied; callers must treat it as immutable.
func (r *Registry) NewBufferValue(data []byte) Value {
	id := r.bufferID.Add(1)
	r.buffersMu.Lock()
	r.buffers[id] = &BufferObject{Data: data}
	r.buffersMu.Unlock()
	return fromHandle(bufferMarker, id)
}

// GetBuffer returns the BufferObject for a buffer handle, or nil.
func (r *Registry) GetBuffer(v Value) *BufferObject {
	if !v.IsBuffer() {
		return nil
	}
	r.buffersMu.RLock()
	defer r.buffersMu.RUnlock()
	return r.buffers[v.HandleID()]
}

// ReleaseBuffer removes a buffer from the table. Returns true if the
// buffer was present and is now released; false if it was already gone.
func (r *Registry) ReleaseBuffer(v Value) bool {
	if !v.IsBuffer() {
		return false
	}
	r.buffersMu.Lock()
	defer r.buffersMu.Unlock()
	id := v.HandleID()
	b, ok := r.buffers[id]
	if !ok || b.released {
		return false
	}
	b.released = true
	delete(r.buffers, id)
	return true
}

// BufferCount returns the number of registered buffers.
func (r *Registry) BufferCount() int {
	r.buffersMu.RLock()
	defer r.buffersMu.RUnlock()
	return len(r.buffers)
}

// ---------------------------------------------------------------------------
// Proxy table
// ---------------------------------------------------------------------------

// NewProxyValue registers a proxy object, fills in its Self handle, and
// returns the handle Value.
func (r *Registry) NewProxyValue(p *ProxyObject) Value {
	id := r.proxyID.Add(1)
	v := fromHandle(proxyMarker, id)
	p.Self = v
	r.proxiesMu.Lock()
	r.proxies[id] = p
	r.proxiesMu.Unlock()
	return v
}

// GetProxy returns the ProxyObject for a proxy handle, or nil.
func (r *Registry) GetProxy(v Value) *ProxyObject {
	if !v.IsProxy() {
		return nil
	}
	r.proxiesMu.RLock()
	defer r.proxiesMu.RUnlock()
	return r.proxies[v.HandleID()]
}

// ProxyCount returns the number of registered proxies.
func (r *Registry) ProxyCount() int {
	r.proxiesMu.RLock()
	defer r.proxiesMu.RUnlock()
	return len(r.proxies)
}

// ---------------------------------------------------------------------------
// Function table
// ---------------------------------------------------------------------------

// NewFuncValue registers a native function and returns its handle Value.
func (r *Registry) NewFuncValue(f *FuncObject) Value {
	id := r.funcID.Add(1)
	r.funcsMu.Lock()
	r.funcs[id] = f
	r.funcsMu.Unlock()
	return fromHandle(funcMarker, id)
}

// GetFunc returns the FuncObject for a function handle, or nil.
func (r *Registry) GetFunc(v Value) *FuncObject {
	if !v.IsFunc() {
		return nil
	}
	r.funcsMu.RLock()
	defer r.funcsMu.RUnlock()
	return r.funcs[v.HandleID()]
}

// FuncCount returns the number of registered functions.
func (r *Registry) FuncCount() int {
	r.funcsMu.RLock()
	defer r.funcsMu.RUnlock()
	return len(r.funcs)
}

// ---------------------------------------------------------------------------
// Plain object table
// ---------------------------------------------------------------------------

// NewObjectValue registers a plain object and returns its handle Value.
func (r *Registry) NewObjectValue(o *PlainObject) Value {
	id := r.objectID.Add(1)
	r.objectsMu.Lock()
	r.objects[id] = o
	r.objectsMu.Unlock()
	return fromHandle(objectMarker, id)
}

// GetObject returns the PlainObject for an object handle, or nil.
func (r *Registry) GetObject(v Value) *PlainObject {
	if !v.IsObject() {
		return nil
	}
	r.objectsMu.RLock()
	defer r.objectsMu.RUnlock()
	return r.objects[v.HandleID()]
}

// ObjectCount returns the number of registered plain objects.
func (r *Registry) ObjectCount() int {
	r.objectsMu.RLock()
	defer r.objectsMu.RUnlock()
	return len(r.objects)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// TotalCount returns the number of live objects across all tables.
func (r *Registry) TotalCount() int {
	return r.StringCount() + r.BufferCount() + r.ProxyCount() +
		r.FuncCount() + r.ObjectCount()
}

// Stats returns per-table live-object counts.
func (r *Registry) Stats() map[string]int {
	return map[string]int{
		"strings": r.StringCount(),
		"buffers": r.BufferCount(),
		"proxies": r.ProxyCount(),
		"funcs":   r.FuncCount(),
		"objects": r.ObjectCount(),
	}
}
