package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Diagnostics: structured compile and runtime messages
// ---------------------------------------------------------------------------

// Phase identifies which pipeline stage produced a diagnostic.
type Phase int

const (
	PhaseLexical Phase = iota
	PhaseSyntax
	PhaseType
	PhaseExport
	PhaseRuntime
)

var phaseNames = map[Phase]string{
	PhaseLexical: "lexical",
	PhaseSyntax:  "syntax",
	PhaseType:    "type",
	PhaseExport:  "export",
	PhaseRuntime: "runtime",
}

func (p Phase) String() string { return phaseNames[p] }

// Diagnostic error codes, grouped by phase. Codes are stable across
// versions so external tooling can link to documentation.
//
//	E001–E099  lexical
//	E100–E199  syntax
//	E200–E299  type
//	E300–E399  export / property metadata
//	E400–E499  runtime
const (
	CodeUnexpectedChar     = "E001"
	CodeUnterminatedString = "E002"
	CodeUnterminatedBlock  = "E003"
	CodeMalformedNumber    = "E004"
	CodeInvalidEscape      = "E005"

	CodeUnexpectedToken  = "E100"
	CodeExpectedToken    = "E101"
	CodeBadAnnotation    = "E102"
	CodeTooManyErrors    = "E103"
	CodeBadAssignTarget  = "E104"

	CodeUndefinedVariable = "E200"
	CodeDuplicateName     = "E201"
	CodeTypeMismatch      = "E202"
	CodeUndefinedType     = "E203"
	CodeUndefinedFunction = "E204"
	CodeArityMismatch     = "E205"
	CodeImmutableAssign   = "E206"
	CodeBadCondition      = "E207"
	CodeBadOperands       = "E208"
	CodeBadReturn         = "E209"
	CodeUnknownField      = "E210"
	CodeSignalNotLiteral  = "E211"
	CodeBreakOutsideLoop  = "E212"

	CodeUnsupportedExport = "E301"
	CodeNonConstDefault   = "E302"
	CodeBadRange          = "E303"
	CodeRangeNotNumeric   = "E304"

	CodeDivisionByZero  = "E400"
	CodeStackOverflow   = "E401"
	CodeNoSuchFunction  = "E402"
	CodeBadArgument     = "E403"
	CodePropertyMissing = "E404"
	CodeNoHostCallback  = "E405"
	CodeEmptyNodePath   = "E406"
	CodePropertyType    = "E407"
)

// Diagnostic is a structured compiler or runtime message. Diagnostics are
// never mutated after creation.
type Diagnostic struct {
	Code       string
	Phase      Phase
	Message    string
	Span       Span
	Suggestion string // optional "help:" text, empty when absent
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("Error[%s]: %s (line %d, column %d)",
		d.Code, d.Message, d.Span.Start.Line, d.Span.Start.Column)
}

// HasSuggestion reports whether a help annotation is attached.
func (d Diagnostic) HasSuggestion() bool { return d.Suggestion != "" }

// ---------------------------------------------------------------------------
// Rendering: the wire format consumed by host consoles and editor tools
// ---------------------------------------------------------------------------

// Render formats a diagnostic with a source-context block:
//
//	Error[E202]: type mismatch: expected i32, found String
//	  --> player.ferris:1:25
//	   |
//	 1 | fn main() { let x: i32 = "s"; }
//	   |                          ^^^ expected i32
//	   |
//	help: ...
func Render(d Diagnostic, filename, source string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Error[%s]: %s\n", d.Code, d.Message)
	fmt.Fprintf(&sb, "  --> %s:%d:%d\n", filename, d.Span.Start.Line, d.Span.Start.Column)

	line := sourceLine(source, d.Span.Start.Line)
	if line != "" || d.Span.Start.Line >= 1 {
		num := fmt.Sprintf("%d", d.Span.Start.Line)
		gutter := strings.Repeat(" ", len(num)+1)

		fmt.Fprintf(&sb, "%s|\n", gutter)
		fmt.Fprintf(&sb, " %s | %s\n", num, line)

		// Caret underline from start column to end column (same-line spans
		// only; multi-line spans underline to end of line).
		width := 1
		if d.Span.End.Line == d.Span.Start.Line && d.Span.End.Column > d.Span.Start.Column {
			width = d.Span.End.Column - d.Span.Start.Column
		} else if d.Span.End.Line > d.Span.Start.Line {
			width = len(line) - d.Span.Start.Column + 1
			if width < 1 {
				width = 1
			}
		}
		pad := strings.Repeat(" ", d.Span.Start.Column-1)
		fmt.Fprintf(&sb, "%s| %s%s\n", gutter, pad, strings.Repeat("^", width))
		fmt.Fprintf(&sb, "%s|\n", gutter)
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "help: %s\n", d.Suggestion)
	}

	return sb.String()
}

// RenderAll formats every diagnostic, separated by blank lines.
func RenderAll(diags []Diagnostic, filename, source string) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, Render(d, filename, source))
	}
	return strings.Join(parts, "\n")
}

// sourceLine returns the 1-based line from source, without its newline.
func sourceLine(source string, line int) string {
	if line < 1 {
		return ""
	}
	cur := 1
	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			if cur == line {
				return strings.TrimSuffix(source[start:i], "\r")
			}
			cur++
			start = i + 1
		}
	}
	if cur == line {
		return source[start:]
	}
	return ""
}

// HasErrors reports whether any diagnostic is present. All diagnostics in
// this compiler are error severity; clamping and other defined corrections
// are silent by policy.
func HasErrors(diags []Diagnostic) bool { return len(diags) > 0 }
