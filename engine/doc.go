// Package engine implements the Titi execution context.
//
// This package contains:
//   - NaN-boxed value representation
//   - ID-keyed object registry tables
//   - Mark-sweep collection with persistent roots and pre-cycle hooks
//   - Host-backed proxy objects
//   - A small expression evaluator with positioned diagnostics
package engine
