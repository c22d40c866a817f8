package bridge

import "sync/atomic"

// ---------------------------------------------------------------------------
// HostRef: reference-counted host object identity
// ---------------------------------------------------------------------------

// HostRef is a reference-counted handle to a host object. The pointer is
// the object's identity for liveness tracking; the count tracks external
// holders. The liveness registry itself never retains, so a count of
// exactly one means no holder remains beyond the bridge's bookkeeping.
type HostRef struct {
	value     any
	refs      atomic.Int64
	finalized atomic.Bool
}

// NewHostRef wraps a host value with an initial reference count of one.
func NewHostRef(value any) *HostRef {
	r := &HostRef{value: value}
	r.refs.Store(1)
	return r
}

// Value returns the wrapped host value.
func (r *HostRef) Value() any {
	return r.value
}

// Retain increments the reference count and returns the new count.
func (r *HostRef) Retain() int64 {
	return r.refs.Add(1)
}

// Release decrements the reference count and returns the new count.
func (r *HostRef) Release() int64 {
	return r.refs.Add(-1)
}

// RefCount returns the current reference count.
func (r *HostRef) RefCount() int64 {
	return r.refs.Load()
}

// Finalize marks the host object as finalized by its own runtime. A
// finalized ref is collectible regardless of its count.
func (r *HostRef) Finalize() {
	r.finalized.Store(true)
}

// Finalized reports whether Finalize has been called.
func (r *HostRef) Finalized() bool {
	return r.finalized.Load()
}

// AttrProvider is the optional host-attribute lookup interface. Proxy
// property resolution falls back to it for names the proxy itself does
// not claim.
type AttrProvider interface {
	Attr(name string) (any, bool)
}

// ByteSource is implemented by host objects that expose a byte sequence
// without being a raw []byte, typically to also provide attributes.
type ByteSource interface {
	Bytes() []byte
}
