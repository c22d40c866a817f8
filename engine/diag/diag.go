// Package diag captures engine diagnostics snapshots and serializes them
// in a canonical CBOR wire format for tooling.
package diag

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/titi-lang/titi/engine"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("diag: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a point-in-time view of an engine context's memory state.
type Snapshot struct {
	Cycle      uint64         `cbor:"cycle"`
	Roots      int            `cbor:"roots"`
	Counts     map[string]int `cbor:"counts"`
	LastSwept  int            `cbor:"lastSwept"`
	CapturedAt time.Time      `cbor:"capturedAt"`
}

// Capture builds a snapshot of the given engine context.
func Capture(vm *engine.VM) *Snapshot {
	s := &Snapshot{
		Cycle:      vm.CycleCount(),
		Roots:      vm.RootCount(),
		Counts:     vm.Registry().Stats(),
		CapturedAt: time.Now().UTC(),
	}
	if last := vm.LastGCStats(); last != nil {
		s.LastSwept = last.TotalSwept
	}
	return s
}

// Marshal serializes a Snapshot to CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("diag: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
