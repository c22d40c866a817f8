package bridge

import (
	"fmt"
	"strings"

	"github.com/titi-lang/titi/engine"
)

// ---------------------------------------------------------------------------
// Exception translation: engine failure state -> host error
// ---------------------------------------------------------------------------

// EngineError is the host-side rendering of an engine failure. Its Error
// string is the composed diagnostic:
//
//	Error in file <filename>, on line <lineno>:
//	<offending line of code if relevant, nothing if not>
//	<if offending line is present, then a '^' pointing to the relevant token>
//	<engine error message>
//	Stack Trace:
//	<stack trace>
type EngineError struct {
	Filename   string
	Line       int
	Column     int
	SourceLine string
	Message    string
	StackTrace string

	diagnostic string
}

func (e *EngineError) Error() string { return e.diagnostic }

// ReadOnlyError reports an attempted mutation of a read-only proxy.
type ReadOnlyError struct {
	Attr     string
	TypeName string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%q object has only read-only attributes (cannot set %q)", e.TypeName, e.Attr)
}

// Translate converts the engine's pending error state into a host error.
// Call it whenever an engine call reports failure. Every extraction step
// that can fail independently degrades to its own narrower diagnostic
// instead of propagating a garbage message.
func Translate(vm *engine.VM) error {
	st := vm.PendingError()
	if st == nil {
		return &EngineError{diagnostic: "engine failed, but the engine did not set an error"}
	}
	if st.Message == "" {
		log.Errorf("engine error state has no message (file %s, line %d)", st.Filename, st.Line)
		return &EngineError{diagnostic: "engine set an error, but it could not be retrieved"}
	}

	report, err := renderReport(st)
	if err != nil {
		log.Errorf("engine error report failed: %s", err.Error())
		return &EngineError{
			Message:    st.Message,
			diagnostic: "engine set an error, but the error report could not be built",
		}
	}

	return &EngineError{
		Filename:   st.Filename,
		Line:       st.Line,
		Column:     st.Column,
		SourceLine: st.SourceLine,
		Message:    st.Message,
		StackTrace: renderStack(st.Stack),
		diagnostic: report,
	}
}

// renderReport composes the diagnostic string from a complete error state.
func renderReport(st *engine.ErrorState) (string, error) {
	if st.Filename == "" || st.Line < 1 {
		return "", fmt.Errorf("error state has no source position")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error in file %s, on line %d:\n", st.Filename, st.Line)

	if st.SourceLine != "" {
		col := st.Column
		if col < 0 || col > len(st.SourceLine) {
			col = 0
		}
		sb.WriteString(st.SourceLine)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", col))
		sb.WriteString("^\n")
	}

	sb.WriteString(st.Message)
	sb.WriteByte('\n')

	if stack := renderStack(st.Stack); stack != "" {
		sb.WriteString("Stack Trace:\n")
		sb.WriteString(stack)
	}
	return sb.String(), nil
}

// renderStack formats a call stack innermost first, or "" for a nil stack.
func renderStack(frames []engine.StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(&sb, "  at %s (%s:%d)\n", f.Func, f.File, f.Line)
	}
	return sb.String()
}
