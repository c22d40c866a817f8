package engine

import (
	"fmt"
	"strings"
	"testing"
)

func TestEvalIntLiteral(t *testing.T) {
	vm := New()
	v, err := vm.Eval("42", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsSmallInt() || v.SmallInt() != 42 {
		t.Errorf("result = %v, want 42", v)
	}
}

func TestEvalFloatLiteral(t *testing.T) {
	vm := New()
	v, err := vm.Eval("3.5", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsFloat() || v.Float64() != 3.5 {
		t.Errorf("result = %v, want 3.5", v)
	}
}

func TestEvalKeywordLiterals(t *testing.T) {
	tests := []struct {
		source string
		want   Value
	}{
		{"true", True},
		{"false", False},
		{"nil", Nil},
	}

	vm := New()
	for _, tc := range tests {
		v, err := vm.Eval(tc.source, "test.titi")
		if err != nil {
			t.Fatalf("Eval(%q): %v", tc.source, err)
		}
		if v != tc.want {
			t.Errorf("Eval(%q) = %v, want %v", tc.source, v, tc.want)
		}
	}
}

func TestEvalStringLiteral(t *testing.T) {
	vm := New()
	v, err := vm.Eval(`"hello\nworld"`, "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsString() {
		t.Fatalf("result is not a string")
	}
	if got := vm.Registry().StringContent(v); got != "hello\nworld" {
		t.Errorf("content = %q, want %q", got, "hello\nworld")
	}
}

func TestEvalStringLength(t *testing.T) {
	vm := New()
	v, err := vm.Eval(`"abc".length`, "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 3 {
		t.Errorf("length = %d, want 3", v.SmallInt())
	}
}

func TestEvalAssignment(t *testing.T) {
	vm := New()
	v, err := vm.Eval("x = 41; x", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 41 {
		t.Errorf("result = %d, want 41", v.SmallInt())
	}

	// Globals persist across evaluations on the same context.
	v, err = vm.Eval("x", "test.titi")
	if err != nil {
		t.Fatalf("second Eval: %v", err)
	}
	if v.SmallInt() != 41 {
		t.Errorf("persisted global = %d, want 41", v.SmallInt())
	}
}

func TestEvalNewlinesAndComments(t *testing.T) {
	vm := New()
	source := "# setup\nx = 10\n\n# result\nx"
	v, err := vm.Eval(source, "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 10 {
		t.Errorf("result = %d, want 10", v.SmallInt())
	}
}

func TestEvalBytesConstructor(t *testing.T) {
	vm := New()
	v, err := vm.Eval("b = Bytes(7, 8, 9); b", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsBuffer() {
		t.Fatalf("Bytes() did not produce a buffer")
	}

	length, err := vm.Eval("b.length", "test.titi")
	if err != nil {
		t.Fatalf("Eval length: %v", err)
	}
	if length.SmallInt() != 3 {
		t.Errorf("length = %d, want 3", length.SmallInt())
	}

	elem, err := vm.Eval("b[1]", "test.titi")
	if err != nil {
		t.Fatalf("Eval index: %v", err)
	}
	if elem.SmallInt() != 8 {
		t.Errorf("b[1] = %d, want 8", elem.SmallInt())
	}
}

func TestEvalBytesConstructorRejectsNonBytes(t *testing.T) {
	vm := New()
	if _, err := vm.Eval("Bytes(256)", "test.titi"); err == nil {
		t.Errorf("Bytes(256) should fail")
	}
	if _, err := vm.Eval(`Bytes("x")`, "test.titi"); err == nil {
		t.Errorf("Bytes(string) should fail")
	}
}

func TestEvalBufferIndexOutOfBounds(t *testing.T) {
	vm := New()
	if _, err := vm.Eval("b = Bytes(1, 2, 3)", "test.titi"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := vm.Eval("b[5]", "test.titi")
	if err == nil {
		t.Fatalf("out-of-bounds index should fail")
	}

	st := vm.PendingError()
	if st == nil {
		t.Fatalf("no pending error state")
	}
	if !strings.Contains(st.Message, "out of bounds") {
		t.Errorf("Message = %q", st.Message)
	}
	if st.Filename != "test.titi" || st.Line != 1 {
		t.Errorf("position = %s:%d, want test.titi:1", st.Filename, st.Line)
	}
	if st.SourceLine != "b[5]" {
		t.Errorf("SourceLine = %q, want %q", st.SourceLine, "b[5]")
	}
}

func TestEvalUndefinedGlobal(t *testing.T) {
	vm := New()
	_, err := vm.Eval("nope", "test.titi")
	if err == nil {
		t.Fatalf("undefined global should fail")
	}

	st := vm.PendingError()
	if st == nil {
		t.Fatalf("no pending error state")
	}
	if st.Message != `undefined global "nope"` {
		t.Errorf("Message = %q", st.Message)
	}
	if st.Line != 1 || st.Column != 0 {
		t.Errorf("position = %d:%d, want 1:0", st.Line, st.Column)
	}
}

func TestEvalErrorLineNumbers(t *testing.T) {
	vm := New()
	_, err := vm.Eval("x = 1\ny = 2\nnope", "test.titi")
	if err == nil {
		t.Fatalf("expected error")
	}
	if st := vm.PendingError(); st.Line != 3 || st.SourceLine != "nope" {
		t.Errorf("Line = %d, SourceLine = %q, want 3, %q", st.Line, st.SourceLine, "nope")
	}
}

func TestEvalClearsPreviousError(t *testing.T) {
	vm := New()
	vm.Eval("nope", "test.titi")
	if vm.PendingError() == nil {
		t.Fatalf("no pending error after failure")
	}

	if _, err := vm.Eval("1", "test.titi"); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if vm.PendingError() != nil {
		t.Errorf("pending error not cleared on next evaluation")
	}
}

func TestEvalParseError(t *testing.T) {
	vm := New()
	_, err := vm.Eval("b[", "test.titi")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if vm.PendingError() == nil {
		t.Errorf("parse failure did not set error state")
	}
}

func TestEvalInvalidAssignmentTarget(t *testing.T) {
	vm := New()
	if _, err := vm.Eval("3 = 4", "test.titi"); err == nil {
		t.Errorf("assignment to literal should fail")
	}
}

func TestEvalCallErrorCapturesStack(t *testing.T) {
	vm := New()
	vm.Globals["boom"] = vm.Registry().NewFuncValue(&FuncObject{
		Name:  "boom",
		Bound: Nil,
		Fn: func(vm *VM, recv Value, args []Value) (Value, error) {
			return Nil, fmt.Errorf("kaboom")
		},
	})

	_, err := vm.Eval("boom()", "test.titi")
	if err == nil {
		t.Fatalf("expected error")
	}

	st := vm.PendingError()
	if st == nil || st.Message != "kaboom" {
		t.Fatalf("pending error = %+v", st)
	}
	if len(st.Stack) != 1 {
		t.Fatalf("stack depth = %d, want 1", len(st.Stack))
	}
	if f := st.Stack[0]; f.Func != "boom" || f.File != "test.titi" || f.Line != 1 {
		t.Errorf("frame = %+v", f)
	}
}

func TestEvalNativeCall(t *testing.T) {
	vm := New()
	vm.Globals["add"] = vm.Registry().NewFuncValue(&FuncObject{
		Name:  "add",
		Bound: Nil,
		Fn: func(vm *VM, recv Value, args []Value) (Value, error) {
			var sum int64
			for _, a := range args {
				sum += a.SmallInt()
			}
			return FromSmallInt(sum), nil
		},
	})

	v, err := vm.Eval("add(1, 2, 3)", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 6 {
		t.Errorf("add(1,2,3) = %d, want 6", v.SmallInt())
	}
}

func TestEvalCallNonCallable(t *testing.T) {
	vm := New()
	if _, err := vm.Eval("x = 1; x()", "test.titi"); err == nil {
		t.Errorf("calling an integer should fail")
	}
}

func TestEvalObjectProperties(t *testing.T) {
	vm := New()
	o := NewPlainObject()
	o.Set("x", FromSmallInt(5))
	vm.Globals["o"] = vm.Registry().NewObjectValue(o)

	v, err := vm.Eval("o.x", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 5 {
		t.Errorf("o.x = %d, want 5", v.SmallInt())
	}

	// Missing properties yield nil rather than failing.
	v, err = vm.Eval("o.missing", "test.titi")
	if err != nil {
		t.Fatalf("Eval missing: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("o.missing = %v, want nil", v)
	}

	// Plain objects accept property writes.
	if _, err := vm.Eval("o.y = 7; o.y", "test.titi"); err != nil {
		t.Fatalf("Eval write: %v", err)
	}
	if got, _ := o.Get("y"); got.SmallInt() != 7 {
		t.Errorf("o.y = %v, want 7", got)
	}
}

func TestEvalResultIsLastStatement(t *testing.T) {
	vm := New()
	v, err := vm.Eval("1; 2; 3", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.SmallInt() != 3 {
		t.Errorf("result = %d, want 3", v.SmallInt())
	}
}

func TestEvalEmptyProgram(t *testing.T) {
	vm := New()
	v, err := vm.Eval("", "test.titi")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("empty program = %v, want nil", v)
	}
}
