package bridge

import (
	"github.com/tliron/commonlog"

	"github.com/titi-lang/titi/engine"
)

var log = commonlog.GetLogger("titi.bridge")

// ---------------------------------------------------------------------------
// Liveness: the cross-runtime liveness registry and its GC hook
// ---------------------------------------------------------------------------

// Liveness maps host object identities to the persistent value roots they
// caused to be created. A root may appear under several identities when
// more than one host object produced references to the same engine value.
//
// The registry is pure bookkeeping: entries are added by Record and
// removed only by the sweep. It is mutated only from the thread driving
// the engine context; no internal lock protects the map.
type Liveness struct {
	entries map[*HostRef][]*engine.Root
}

// NewLiveness creates an empty liveness registry.
func NewLiveness() *Liveness {
	return &Liveness{entries: make(map[*HostRef][]*engine.Root)}
}

// Record appends root to the set for ref, creating the entry if absent.
// A host identity has at most one entry; re-registration extends it.
func (l *Liveness) Record(ref *HostRef, root *engine.Root) {
	l.entries[ref] = append(l.entries[ref], root)
}

// Roots returns the recorded root set for ref, or nil.
func (l *Liveness) Roots(ref *HostRef) []*engine.Root {
	return l.entries[ref]
}

// Len returns the number of tracked host identities.
func (l *Liveness) Len() int {
	return len(l.entries)
}

// Install registers the sweep as a pre-cycle hook on the engine context,
// so it runs synchronously at the start of every collection cycle.
func (l *Liveness) Install(vm *engine.VM) {
	vm.AddGCHook(func(*engine.VM) {
		l.Sweep()
	})
}

// Sweep retires entries whose host object is collectible: its runtime
// already finalized it, or its reference count is exactly one (only the
// bridge's bookkeeping remains). A root is released only when no other
// entry still claims it; a shared root survives until its last claimant
// goes. Non-collectible entries are left for a later cycle. The sweep
// never fails; at worst a root is retained one extra cycle.
//
// Returns the number of roots released and entries retired.
func (l *Liveness) Sweep() (released, retired int) {
	for ref, roots := range l.entries {
		if !collectible(ref) {
			continue
		}
		for _, root := range roots {
			if l.claimedElsewhere(ref, root) {
				continue
			}
			if root.Release() {
				released++
			}
		}
		delete(l.entries, ref)
		retired++
	}
	if released > 0 || retired > 0 {
		log.Debugf("liveness sweep: released %d roots, retired %d entries", released, retired)
	}
	return released, retired
}

// collectible reports whether no external holder of ref remains.
func collectible(ref *HostRef) bool {
	return ref.Finalized() || ref.RefCount() == 1
}

// claimedElsewhere reports whether any entry other than ref's still lists
// root.
func (l *Liveness) claimedElsewhere(ref *HostRef, root *engine.Root) bool {
	for other, roots := range l.entries {
		if other == ref {
			continue
		}
		for _, r := range roots {
			if r == root {
				return true
			}
		}
	}
	return false
}
