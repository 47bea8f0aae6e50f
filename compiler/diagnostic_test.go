package compiler

import (
	"strings"
	"testing"
)

func TestRenderDiagnostic(t *testing.T) {
	source := `fn main() { let x: i32 = "s"; }`
	_, diags := Compile("player.ferris", source)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want 1", diagCodes(diags))
	}

	got := Render(diags[0], "player.ferris", source)
	want := `Error[E202]: type mismatch: "x" declared as i32 but initialized with String
  --> player.ferris:1:26
  |
 1 | fn main() { let x: i32 = "s"; }
  |                          ^^^
  |
`
	if got != want {
		t.Errorf("rendered:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderWithSuggestion(t *testing.T) {
	source := "fn f() {\n    let mut velocity: f32 = 0.0;\n    velocty = 1.0;\n}"
	_, diags := Compile("move.ferris", source)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want 1", diagCodes(diags))
	}

	got := Render(diags[0], "move.ferris", source)
	if !strings.HasPrefix(got, "Error[E200]: undefined variable \"velocty\"\n") {
		t.Errorf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "--> move.ferris:3:5\n") {
		t.Errorf("missing location line:\n%s", got)
	}
	if !strings.Contains(got, " 3 |     velocty = 1.0;\n") {
		t.Errorf("missing source context:\n%s", got)
	}
	if !strings.Contains(got, "^^^^^^^") {
		t.Errorf("caret should cover all 7 characters of velocty:\n%s", got)
	}
	if !strings.HasSuffix(got, "help: did you mean \"velocity\"?\n") {
		t.Errorf("missing help line:\n%s", got)
	}
}

func TestRenderAllSeparatesWithBlankLine(t *testing.T) {
	source := "fn f() {\n    let a: i32 = true;\n    let b: bool = 1;\n}"
	_, diags := Compile("two.ferris", source)
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v, want 2", diagCodes(diags))
	}

	out := RenderAll(diags, "two.ferris", source)
	if strings.Count(out, "Error[") != 2 {
		t.Errorf("expected two error blocks:\n%s", out)
	}
	if !strings.Contains(out, "\n\nError[") {
		t.Errorf("blocks should be blank-line separated:\n%s", out)
	}
}

func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{
		Code:    CodeDivisionByZero,
		Phase:   PhaseRuntime,
		Message: "division by zero",
		Span:    MakeSpan(Position{Line: 4, Column: 9}, Position{Line: 4, Column: 10}),
	}
	got := d.Error()
	if !strings.Contains(got, "E400") || !strings.Contains(got, "line 4") {
		t.Errorf("Error() = %q, want code and position", got)
	}
}
