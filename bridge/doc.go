// Package bridge keeps objects alive correctly across the boundary
// between a reference-counted host and the tracing-collected Titi engine.
//
// This package contains:
//   - Reference-counted host object identities (HostRef)
//   - The liveness registry and its GC pre-cycle sweep
//   - Read-only byte-buffer proxies and their iteration protocol
//   - Translation of engine failure state into host errors
//   - A host-facing evaluator with result-type dispatch
package bridge
