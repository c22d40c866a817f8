package bridge

import (
	"testing"

	"github.com/titi-lang/titi/engine"
)

// iterResult pulls one step out of an iterator and decodes the result
// object.
func iterResult(t *testing.T, vm *engine.VM, iter engine.Value) (done bool, value engine.Value) {
	t.Helper()

	next, err := vm.ProxyGet(iter, "next")
	if err != nil {
		t.Fatalf("ProxyGet(next): %v", err)
	}
	r, err := vm.CallFunc(next, nil)
	if err != nil {
		t.Fatalf("next(): %v", err)
	}

	o := vm.Registry().GetObject(r)
	if o == nil {
		t.Fatalf("next() did not return a result object")
	}
	d, ok := o.Get("done")
	if !ok {
		t.Fatalf("result has no done property")
	}
	v, ok := o.Get("value")
	if !ok {
		v = engine.Nil
	}
	return d.Bool(), v
}

func makeIterator(t *testing.T, vm *engine.VM, proxy engine.Value, method string) engine.Value {
	t.Helper()
	fn, err := vm.ProxyGet(proxy, method)
	if err != nil {
		t.Fatalf("ProxyGet(%s): %v", method, err)
	}
	iter, err := vm.CallFunc(fn, nil)
	if err != nil {
		t.Fatalf("%s(): %v", method, err)
	}
	return iter
}

func TestIteratorValues(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{10, 20, 30})
	iter := makeIterator(t, vm, proxy, "values")

	for i, want := range []int64{10, 20, 30} {
		done, v := iterResult(t, vm, iter)
		if done {
			t.Fatalf("step %d: done early", i)
		}
		if v.SmallInt() != want {
			t.Errorf("step %d: value = %d, want %d", i, v.SmallInt(), want)
		}
	}

	done, v := iterResult(t, vm, iter)
	if !done {
		t.Errorf("iterator not done after last element")
	}
	if !v.IsNil() {
		t.Errorf("done result carries a value: %v", v)
	}
}

func TestIteratorKeys(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{10, 20})
	iter := makeIterator(t, vm, proxy, "keys")

	for _, want := range []int64{0, 1} {
		done, v := iterResult(t, vm, iter)
		if done || v.SmallInt() != want {
			t.Errorf("key = %v (done=%v), want %d", v, done, want)
		}
	}
	if done, _ := iterResult(t, vm, iter); !done {
		t.Errorf("keys iterator not exhausted")
	}
}

func TestIteratorEntries(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{10, 20})
	iter := makeIterator(t, vm, proxy, "entries")

	wants := [][2]int64{{0, 10}, {1, 20}}
	for i, want := range wants {
		done, v := iterResult(t, vm, iter)
		if done {
			t.Fatalf("entry %d: done early", i)
		}
		pair := vm.Registry().GetObject(v)
		if pair == nil {
			t.Fatalf("entry %d is not a pair object", i)
		}
		k, _ := pair.Get("0")
		b, _ := pair.Get("1")
		if k.SmallInt() != want[0] || b.SmallInt() != want[1] {
			t.Errorf("entry %d = (%d, %d), want (%d, %d)",
				i, k.SmallInt(), b.SmallInt(), want[0], want[1])
		}
	}
}

func TestIteratorEntriesIndexable(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{7, 8})
	vm.Globals["b"] = proxy

	v, err := vm.Eval("b.entries().next().value[1]", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 7 {
		t.Errorf("first entry value = %d, want 7", v.SmallInt())
	}
}

func TestIteratorExhaustedStaysDone(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{1})
	iter := makeIterator(t, vm, proxy, "values")

	iterResult(t, vm, iter) // the one element
	for i := 0; i < 3; i++ {
		done, v := iterResult(t, vm, iter)
		if !done || !v.IsNil() {
			t.Errorf("exhausted next() #%d: done=%v value=%v", i, done, v)
		}
	}
}

func TestIteratorNotRestartable(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{1, 2})

	first := makeIterator(t, vm, proxy, "values")
	iterResult(t, vm, first)
	iterResult(t, vm, first)
	if done, _ := iterResult(t, vm, first); !done {
		t.Fatalf("first iterator not exhausted")
	}

	// A fresh iterator starts over; the exhausted one never does.
	second := makeIterator(t, vm, proxy, "values")
	done, v := iterResult(t, vm, second)
	if done || v.SmallInt() != 1 {
		t.Errorf("fresh iterator did not start from the beginning")
	}
	if done, _ := iterResult(t, vm, first); !done {
		t.Errorf("exhausted iterator restarted")
	}
}

func TestIteratorEmptySequence(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{})
	iter := makeIterator(t, vm, proxy, "values")

	done, v := iterResult(t, vm, iter)
	if !done || !v.IsNil() {
		t.Errorf("empty sequence first next(): done=%v value=%v", done, v)
	}
}

func TestIteratorConstructorInstalledLazily(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{1})

	if _, ok := vm.Globals["BytesIterator"]; ok {
		t.Fatalf("BytesIterator installed before first iteration request")
	}
	makeIterator(t, vm, proxy, "values")
	if ctor, ok := vm.Globals["BytesIterator"]; !ok || !ctor.IsFunc() {
		t.Errorf("BytesIterator not installed after iteration request")
	}
}

func TestIteratorWritesDenied(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{1})
	iter := makeIterator(t, vm, proxy, "values")

	err := vm.ProxySet(iter, "next", engine.Nil)
	if err == nil {
		t.Fatalf("iterator write accepted")
	}
	ro, ok := err.(*ReadOnlyError)
	if !ok {
		t.Fatalf("error %T, want *ReadOnlyError", err)
	}
	if ro.TypeName != "bytes iterator" {
		t.Errorf("TypeName = %q, want %q", ro.TypeName, "bytes iterator")
	}
}

func TestIteratorUnknownPropertyYieldsNil(t *testing.T) {
	vm, _, _, proxy := newTestBytes(t, []byte{1})
	iter := makeIterator(t, vm, proxy, "values")

	v, err := vm.ProxyGet(iter, "rewind")
	if err != nil || !v.IsNil() {
		t.Errorf("unknown property = %v, %v; want nil", v, err)
	}
}
