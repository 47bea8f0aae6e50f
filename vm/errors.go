package vm

import (
	"errors"
	"fmt"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
)

// ErrPropertyNotFound is returned by GetProperty and SetProperty when the
// named property is not exported by the loaded unit.
var ErrPropertyNotFound = errors.New("property not found")

// RuntimeError is a script execution failure: division by zero, stack
// overflow, host integration faults. It carries the stable diagnostic code
// and the source span of the failing expression.
type RuntimeError struct {
	Code    string
	Message string
	Span    compiler.Span
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Diagnostic converts the error into a renderable diagnostic.
func (e *RuntimeError) Diagnostic() compiler.Diagnostic {
	return compiler.Diagnostic{
		Code:    e.Code,
		Phase:   compiler.PhaseRuntime,
		Message: e.Message,
		Span:    e.Span,
	}
}

func runtimeErrorf(code string, span compiler.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}
