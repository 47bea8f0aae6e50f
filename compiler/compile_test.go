package compiler

import (
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestCompileClean(t *testing.T) {
	unit, diags := Compile("main.ferris", "fn main() {}")
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if unit == nil {
		t.Fatal("unit is nil")
	}
	if unit.Filename != "main.ferris" {
		t.Errorf("filename = %q, want main.ferris", unit.Filename)
	}
	if unit.Program.FindFunction("main") == nil {
		t.Error("compiled unit lost function main")
	}
}

func TestCompileNoUnitOnAnyError(t *testing.T) {
	sources := []string{
		"let $ = 1;",                        // lexical
		"fn f( {}",                          // syntax
		`fn f() { let x: i32 = "s"; }`,      // type
		"@export\nlet mut speed: f32 = 1.0 + 2.0;", // export extraction
	}
	for _, src := range sources {
		unit, diags := Compile("bad.ferris", src)
		if unit != nil {
			t.Errorf("Compile(%q): unit produced despite diagnostics", src)
		}
		if len(diags) == 0 {
			t.Errorf("Compile(%q): no diagnostics", src)
		}
	}
}

func TestCompilePhaseOrdering(t *testing.T) {
	// A file with both syntax and type errors reports only the syntax
	// phase: later phases never see a broken tree.
	_, diags := Compile("bad.ferris", `
fn f( {
}
fn g() { let x: i32 = "s"; }
`)
	for _, d := range diags {
		if d.Phase != PhaseSyntax {
			t.Errorf("phase = %v for %s, want syntax only", d.Phase, d.Code)
		}
	}
}

func TestCompileExtractsProperties(t *testing.T) {
	unit, diags := Compile("player.ferris", `
@export_range(0, 100)
let mut health: i32 = 100;

fn heal(amount: i32) {
    health = health + amount;
}
`)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(unit.Properties) != 1 {
		t.Fatalf("property count = %d, want 1", len(unit.Properties))
	}
	p := unit.Properties[0]
	if p.Name != "health" || p.Type != TypeI32 {
		t.Errorf("property = %s %s, want health i32", p.Name, p.Type)
	}
	if p.Range == nil || p.Range.Max != 100 {
		t.Errorf("range = %v, want max 100", p.Range)
	}
}

func TestUnitWireRoundTrip(t *testing.T) {
	source := `
@export_range(0.0, 10.0, 0.5)
let mut speed: f32 = 2.5;

@export
let mut spawn: Vector2 = Vector2(1.0, -2.0);

fn update(delta: f32) {
    let mut i: i32 = 0;
    while i < 3 {
        if speed > 5.0 {
            speed = speed - delta;
        } else if speed < 1.0 {
            break;
        } else {
            spawn.x = spawn.x + delta;
        }
        i = i + 1;
    }
    emit_signal("moved", spawn.x);
}

fn reset() -> f32 {
    return -speed * 2.0;
}
`
	unit, diags := Compile("motion.ferris", source)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}

	data, err := MarshalUnit(unit)
	if err != nil {
		t.Fatalf("MarshalUnit failed: %v", err)
	}
	decoded, err := UnmarshalUnit(data)
	if err != nil {
		t.Fatalf("UnmarshalUnit failed: %v", err)
	}

	if decoded.Filename != unit.Filename {
		t.Errorf("filename = %q, want %q", decoded.Filename, unit.Filename)
	}
	if len(decoded.Properties) != len(unit.Properties) {
		t.Fatalf("property count = %d, want %d", len(decoded.Properties), len(unit.Properties))
	}
	if decoded.Properties[0].Range == nil || decoded.Properties[0].Range.Step != 0.5 {
		t.Errorf("round-tripped range = %v, want step 0.5", decoded.Properties[0].Range)
	}

	// The decoded tree must print identically to the original: printing is
	// the canonical form, so equality there is structural equality.
	before := PrintProgram(unit.Program)
	after := PrintProgram(decoded.Program)
	if before != after {
		t.Errorf("decoded unit prints differently:\nbefore:\n%s\nafter:\n%s", before, after)
	}

	// Spans survive so runtime errors in a loaded unit still point at
	// source positions.
	fn := decoded.Program.FindFunction("update")
	if fn == nil {
		t.Fatal("decoded unit lost function update")
	}
	if fn.Span().Start.Line != unit.Program.FindFunction("update").Span().Start.Line {
		t.Error("function span lost in round trip")
	}

	// Deterministic encoding: canonical CBOR produces identical bytes.
	again, err := MarshalUnit(decoded)
	if err != nil {
		t.Fatalf("re-marshal failed: %v", err)
	}
	if string(again) != string(data) {
		t.Error("canonical encoding is not deterministic")
	}
}

func TestUnmarshalUnitRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalUnit([]byte("not cbor at all")); err == nil {
		t.Error("garbage input should fail")
	}
}

func TestUnmarshalUnitRejectsWrongVersion(t *testing.T) {
	unit, _ := Compile("v.ferris", "fn main() {}")
	data, err := MarshalUnit(unit)
	if err != nil {
		t.Fatal(err)
	}
	// Bump the version field and re-encode.
	var raw map[string]any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	raw["v"] = int64(99)
	bad, err := cborEncMode.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalUnit(bad); err == nil {
		t.Error("wrong version should fail")
	} else if !strings.Contains(err.Error(), "version") {
		t.Errorf("error = %v, want a version complaint", err)
	}
}
