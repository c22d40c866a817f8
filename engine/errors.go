package engine

import "fmt"

// ---------------------------------------------------------------------------
// Pending error state
// ---------------------------------------------------------------------------

// StackFrame is one entry of an evaluation call stack.
type StackFrame struct {
	Func string
	File string
	Line int
}

// ErrorState captures the engine's pending error after a failed
// evaluation. SourceLine is empty for synthetic/internal errors; Stack may
// be nil when no call stack was recorded.
type ErrorState struct {
	Message    string
	Filename   string
	Line       int
	Column     int
	SourceLine string
	Stack      []StackFrame
}

// evalError is the error returned by a failed evaluation. The diagnostic
// detail lives in the VM's pending error state.
type evalError struct {
	msg string
}

func (e *evalError) Error() string { return e.msg }

// setError records st as the pending error state and returns a matching
// evaluation error.
func (vm *VM) setError(st *ErrorState) error {
	vm.pending = st
	return &evalError{msg: st.Message}
}

// setErrorf records a positioned error against the current evaluation
// source and returns a matching evaluation error.
func (vm *VM) setErrorf(file string, line, col int, sourceLine string, format string, args ...any) error {
	return vm.setError(&ErrorState{
		Message:    fmt.Sprintf(format, args...),
		Filename:   file,
		Line:       line,
		Column:     col,
		SourceLine: sourceLine,
		Stack:      vm.captureStack(),
	})
}

// SetPendingError installs st as the pending error state. Hosts use it
// to report failures raised outside an evaluation.
func (vm *VM) SetPendingError(st *ErrorState) {
	vm.pending = st
}

// PendingError returns the pending error state from the last failed
// evaluation, or nil if none was recorded.
func (vm *VM) PendingError() *ErrorState {
	return vm.pending
}

// ClearError discards the pending error state.
func (vm *VM) ClearError() {
	vm.pending = nil
}

// captureStack snapshots the current call stack, outermost first.
// Returns nil when no calls are active.
func (vm *VM) captureStack() []StackFrame {
	if len(vm.callStack) == 0 {
		return nil
	}
	st := make([]StackFrame, len(vm.callStack))
	copy(st, vm.callStack)
	return st
}
