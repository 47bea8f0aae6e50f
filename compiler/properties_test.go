package compiler

import (
	"testing"
)

func extract(t *testing.T, source string) ([]PropertyMetadata, []Diagnostic) {
	t.Helper()
	return ExtractProperties(mustParse(t, source))
}

func TestExtractSkipsUnexported(t *testing.T) {
	props, diags := extract(t, `
let internal: i32 = 1;
@export
let mut visible: i32 = 2;
`)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(props) != 1 {
		t.Fatalf("property count = %d, want 1", len(props))
	}
	if props[0].Name != "visible" {
		t.Errorf("property name = %q, want visible", props[0].Name)
	}
}

func TestExtractDeclarationOrder(t *testing.T) {
	props, _ := extract(t, `
@export
let mut b: i32 = 1;
@export
let mut a: i32 = 2;
@export
let mut c: i32 = 3;
`)
	want := []string{"b", "a", "c"}
	for i, name := range want {
		if props[i].Name != name {
			t.Errorf("props[%d] = %q, want %q (declaration order)", i, props[i].Name, name)
		}
	}
}

func TestExtractScalarDefaults(t *testing.T) {
	props, diags := extract(t, `
@export
let mut health: i32 = 100;
@export
let mut speed: f32 = 2.5;
@export
let mut armed: bool = true;
@export
let mut label: String = "Player";
@export
let mut offset: f32 = -1.5;
@export
let mut scale: f32 = 2;
`)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(props) != 6 {
		t.Fatalf("property count = %d, want 6", len(props))
	}

	if props[0].Default.I != 100 {
		t.Errorf("health default = %d, want 100", props[0].Default.I)
	}
	if props[1].Default.F != 2.5 {
		t.Errorf("speed default = %g, want 2.5", props[1].Default.F)
	}
	if !props[2].Default.B {
		t.Error("armed default = false, want true")
	}
	if props[3].Default.S != "Player" {
		t.Errorf("label default = %q, want Player", props[3].Default.S)
	}
	if props[4].Default.F != -1.5 {
		t.Errorf("offset default = %g, want -1.5", props[4].Default.F)
	}
	// An i32 literal seeding an f32 property widens at extraction time.
	if props[5].Default.Kind != ConstF32 || props[5].Default.F != 2 {
		t.Errorf("scale default = %v, want f32 2", props[5].Default)
	}
}

func TestExtractCompositeDefaults(t *testing.T) {
	props, diags := extract(t, `
@export
let mut spawn: Vector2 = Vector2(10.0, -20.0);
@export
let mut tint: Color = Color(1.0, 0.5, 0.25, 1.0);
@export
let mut bounds: Rect2 = Rect2(Vector2(0.0, 0.0), Vector2(64.0, 48.0));
`)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(props) != 3 {
		t.Fatalf("property count = %d, want 3", len(props))
	}

	spawn := props[0].Default
	if spawn.Kind != ConstVector2 || spawn.F != 10.0 || spawn.F2 != -20.0 {
		t.Errorf("spawn default = %v, want Vector2(10, -20)", spawn)
	}
	tint := props[1].Default
	if tint.Kind != ConstColor || tint.F2 != 0.5 || tint.F4 != 1.0 {
		t.Errorf("tint default = %v, want Color(1, 0.5, 0.25, 1)", tint)
	}
	bounds := props[2].Default
	if bounds.Kind != ConstRect2 || bounds.F3 != 64.0 || bounds.F4 != 48.0 {
		t.Errorf("bounds default = %v, want size (64, 48)", bounds)
	}
}

func TestExtractRangeHint(t *testing.T) {
	props, diags := extract(t, `
@export_range(0, 100, 5)
let mut health: i32 = 100;
@export
let mut speed: f32 = 1.0;
`)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	r := props[0].Range
	if r == nil {
		t.Fatal("health range is nil")
	}
	if r.Min != 0 || r.Max != 100 || r.Step != 5 {
		t.Errorf("range = (%g, %g, %g), want (0, 100, 5)", r.Min, r.Max, r.Step)
	}
	if props[1].Range != nil {
		t.Errorf("speed range = %v, want nil", props[1].Range)
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{
			"node export",
			"@export\nlet mut target: Node = get_node(\"Player\");",
			CodeUnsupportedExport,
		},
		{
			"computed default",
			"@export\nlet mut speed: f32 = 1.0 + 2.0;",
			CodeNonConstDefault,
		},
		{
			"call default",
			"@export\nlet mut speed: f32 = compute();",
			CodeNonConstDefault,
		},
		{
			"inverted range",
			"@export_range(100, 0)\nlet mut health: i32 = 50;",
			CodeBadRange,
		},
		{
			"negative step",
			"@export_range(0, 100, -5)\nlet mut health: i32 = 50;",
			CodeBadRange,
		},
		{
			"range on string",
			"@export_range(0, 10)\nlet mut label: String = \"x\";",
			CodeRangeNotNumeric,
		},
	}

	for _, tc := range tests {
		props, diags := extract(t, tc.source)
		if len(diags) != 1 {
			t.Errorf("%s: diagnostics = %v, want 1", tc.name, diagCodes(diags))
			continue
		}
		if diags[0].Code != tc.code {
			t.Errorf("%s: code = %s, want %s", tc.name, diags[0].Code, tc.code)
		}
		if diags[0].Phase != PhaseExport {
			t.Errorf("%s: phase = %v, want export", tc.name, diags[0].Phase)
		}
		if len(props) != 0 {
			t.Errorf("%s: faulty property still extracted: %v", tc.name, props)
		}
	}
}

func TestExtractSkipsUndefinedType(t *testing.T) {
	// The type checker owns the undefined-type diagnostic; extraction must
	// not duplicate it.
	props, diags := extract(t, "@export\nlet mut x: Flaot = 1.0;")
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none here", diags)
	}
	if len(props) != 0 {
		t.Errorf("props = %v, want none", props)
	}
}
