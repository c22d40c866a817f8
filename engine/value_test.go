package engine

import (
	"math"
	"testing"
)

func TestSmallIntRoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, 42, -42, 1 << 30, -(1 << 30), MaxSmallInt, MinSmallInt}

	for _, n := range tests {
		v := FromSmallInt(n)
		if !v.IsSmallInt() {
			t.Errorf("FromSmallInt(%d): IsSmallInt = false", n)
		}
		if v.IsFloat() || v.IsHandle() || v.IsSpecial() {
			t.Errorf("FromSmallInt(%d): wrong type predicates", n)
		}
		if got := v.SmallInt(); got != n {
			t.Errorf("SmallInt roundtrip: got %d, want %d", got, n)
		}
	}
}

func TestSmallIntOutOfRange(t *testing.T) {
	for _, n := range []int64{MaxSmallInt + 1, MinSmallInt - 1, math.MaxInt64, math.MinInt64} {
		if _, ok := TryFromSmallInt(n); ok {
			t.Errorf("TryFromSmallInt(%d): ok = true, want false", n)
		}
	}
	if v, ok := TryFromSmallInt(MaxSmallInt); !ok || v.SmallInt() != MaxSmallInt {
		t.Errorf("TryFromSmallInt(MaxSmallInt) failed")
	}
}

func TestFloatRoundTrip(t *testing.T) {
	tests := []float64{0, 1.5, -1.5, 3.141592653589793, 1e300, -1e-300,
		math.Inf(1), math.Inf(-1)}

	for _, f := range tests {
		v := FromFloat64(f)
		if !v.IsFloat() {
			t.Errorf("FromFloat64(%v): IsFloat = false", f)
		}
		if got := v.Float64(); got != f {
			t.Errorf("Float64 roundtrip: got %v, want %v", got, f)
		}
	}

	// NaN is a float too, just not comparable to itself.
	v := FromFloat64(math.NaN())
	if !v.IsFloat() {
		t.Errorf("FromFloat64(NaN): IsFloat = false")
	}
	if !math.IsNaN(v.Float64()) {
		t.Errorf("FromFloat64(NaN): roundtrip is not NaN")
	}
}

func TestSpecialValues(t *testing.T) {
	if !Nil.IsNil() || !Nil.IsSpecial() {
		t.Errorf("Nil predicates wrong")
	}
	if !True.IsBool() || !False.IsBool() {
		t.Errorf("bool predicates wrong")
	}
	if True.Bool() != true || False.Bool() != false {
		t.Errorf("Bool() values wrong")
	}
	if Nil.IsBool() || True.IsNil() {
		t.Errorf("special values overlap")
	}
	if FromBool(true) != True || FromBool(false) != False {
		t.Errorf("FromBool wrong")
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Nil, false},
		{False, false},
		{True, true},
		{FromSmallInt(0), true},
		{FromFloat64(0), true},
	}

	for _, tc := range tests {
		if got := tc.v.IsTruthy(); got != tc.want {
			t.Errorf("IsTruthy(%v) = %v, want %v", uint64(tc.v), got, tc.want)
		}
	}
}

func TestHandleMarkers(t *testing.T) {
	r := NewRegistry()

	s := r.NewStringValue("hello")
	b := r.NewBufferValue([]byte{1, 2, 3})
	f := r.NewFuncValue(&FuncObject{Name: "f", Bound: Nil})
	o := r.NewObjectValue(NewPlainObject())

	checks := []struct {
		name string
		v    Value
		pred func(Value) bool
	}{
		{"string", s, Value.IsString},
		{"buffer", b, Value.IsBuffer},
		{"func", f, Value.IsFunc},
		{"object", o, Value.IsObject},
	}

	for _, c := range checks {
		if !c.v.IsHandle() {
			t.Errorf("%s: IsHandle = false", c.name)
		}
		if !c.pred(c.v) {
			t.Errorf("%s: marker predicate = false", c.name)
		}
		if c.v.IsFloat() || c.v.IsSmallInt() || c.v.IsSpecial() {
			t.Errorf("%s: overlaps non-handle predicates", c.name)
		}
	}

	// Different tables may reuse the same raw ID; the marker disambiguates.
	if s.IsBuffer() || b.IsString() || f.IsObject() || o.IsFunc() {
		t.Errorf("markers not disjoint")
	}
	if s.HandleID() != 1 || b.HandleID() != 1 {
		t.Errorf("HandleID: got %d/%d, want 1/1", s.HandleID(), b.HandleID())
	}
}
