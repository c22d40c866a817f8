package engine

import (
	"time"
)

// ---------------------------------------------------------------------------
// Garbage collection: mark-sweep over the registry tables
// ---------------------------------------------------------------------------

// GCHook is invoked at the start of every collection cycle, before the
// engine scans its own roots. Hooks run synchronously on the collecting
// thread in registration order.
type GCHook func(vm *VM)

// GCStats holds statistics from a single collection cycle.
type GCStats struct {
	Strings    int
	Buffers    int
	Proxies    int
	Funcs      int
	Objects    int
	TotalSwept int
	Cycle      uint64
	Duration   time.Duration
	Timestamp  time.Time
}

// AddGCHook registers a pre-cycle hook.
func (vm *VM) AddGCHook(h GCHook) {
	vm.gcHooks = append(vm.gcHooks, h)
}

// Collect performs a mark-sweep garbage collection. It first runs the
// registered pre-cycle hooks, then marks everything reachable from the
// globals and the persistent root set, and finally sweeps unmarked
// objects from the registry tables. Proxy finalizers run during the sweep.
func (vm *VM) Collect() *GCStats {
	start := time.Now()
	stats := &GCStats{
		Cycle:     vm.cycleCount.Add(1),
		Timestamp: start,
	}

	for _, hook := range vm.gcHooks {
		hook(vm)
	}

	// Mark phase
	marked := make(map[Value]struct{})
	for _, v := range vm.Globals {
		vm.markValue(v, marked)
	}
	for r := range vm.roots {
		vm.markValue(r.value, marked)
	}

	// Sweep phase
	stats.Proxies = vm.sweepProxies(marked)
	stats.Buffers = vm.sweepBuffers(marked)
	stats.Funcs = vm.sweepFuncs(marked)
	stats.Objects = vm.sweepObjects(marked)
	stats.Strings = vm.sweepStrings(marked)

	stats.TotalSwept = stats.Strings + stats.Buffers + stats.Proxies +
		stats.Funcs + stats.Objects
	stats.Duration = time.Since(start)

	vm.lastGC = stats
	return stats
}

// LastGCStats returns statistics from the most recent collection, or nil
// if no collection has run yet.
func (vm *VM) LastGCStats() *GCStats {
	return vm.lastGC
}

// CycleCount returns the total number of collection cycles performed.
func (vm *VM) CycleCount() uint64 {
	return vm.cycleCount.Load()
}

// MaybeCollect runs a collection if the live-object count has reached the
// configured threshold. A threshold of zero disables automatic collection.
func (vm *VM) MaybeCollect() *GCStats {
	if vm.gcThreshold <= 0 {
		return nil
	}
	if vm.registry.TotalCount() < vm.gcThreshold {
		return nil
	}
	return vm.Collect()
}

// markValue recursively marks a value and everything it references.
func (vm *VM) markValue(v Value, marked map[Value]struct{}) {
	if !v.IsHandle() {
		return
	}
	if _, exists := marked[v]; exists {
		return
	}
	marked[v] = struct{}{}

	switch {
	case v.IsProxy():
		if p := vm.registry.GetProxy(v); p != nil {
			for _, child := range p.Children {
				vm.markValue(child, marked)
			}
		}
	case v.IsFunc():
		if f := vm.registry.GetFunc(v); f != nil {
			vm.markValue(f.Bound, marked)
		}
	case v.IsObject():
		if o := vm.registry.GetObject(v); o != nil {
			for _, name := range o.Names {
				vm.markValue(o.Props[name], marked)
			}
		}
	}
	// Strings and buffers are leaves.
}

func (vm *VM) sweepProxies(marked map[Value]struct{}) int {
	r := vm.registry

	// Collect the victims under the lock, finalize outside it: finalizers
	// may call back into the registry (releasing owned buffer views).
	r.proxiesMu.Lock()
	var victims []*ProxyObject
	for id, p := range r.proxies {
		if _, ok := marked[fromHandle(proxyMarker, id)]; !ok {
			victims = append(victims, p)
			delete(r.proxies, id)
		}
	}
	r.proxiesMu.Unlock()

	for _, p := range victims {
		vm.finalizeProxy(p)
	}
	return len(victims)
}

func (vm *VM) sweepBuffers(marked map[Value]struct{}) int {
	r := vm.registry
	r.buffersMu.Lock()
	defer r.buffersMu.Unlock()

	swept := 0
	for id, b := range r.buffers {
		if _, ok := marked[fromHandle(bufferMarker, id)]; !ok {
			b.released = true
			delete(r.buffers, id)
			swept++
		}
	}
	return swept
}

func (vm *VM) sweepFuncs(marked map[Value]struct{}) int {
	r := vm.registry
	r.funcsMu.Lock()
	defer r.funcsMu.Unlock()

	swept := 0
	for id := range r.funcs {
		if _, ok := marked[fromHandle(funcMarker, id)]; !ok {
			delete(r.funcs, id)
			swept++
		}
	}
	return swept
}

func (vm *VM) sweepObjects(marked map[Value]struct{}) int {
	r := vm.registry
	r.objectsMu.Lock()
	defer r.objectsMu.Unlock()

	swept := 0
	for id := range r.objects {
		if _, ok := marked[fromHandle(objectMarker, id)]; !ok {
			delete(r.objects, id)
			swept++
		}
	}
	return swept
}

func (vm *VM) sweepStrings(marked map[Value]struct{}) int {
	r := vm.registry
	r.stringsMu.Lock()
	defer r.stringsMu.Unlock()

	swept := 0
	for id := range r.strings {
		if _, ok := marked[fromHandle(stringMarker, id)]; !ok {
			delete(r.strings, id)
			swept++
		}
	}
	return swept
}
