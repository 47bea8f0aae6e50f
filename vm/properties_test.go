package vm

import (
	"errors"
	"math"
	"testing"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
)

func TestGetPropertyReadsExportedGlobals(t *testing.T) {
	env := newEnv(t, `
@export
let mut speed: f32 = 100.0;

let mut hidden: i32 = 1;
`)

	v, err := env.GetProperty("speed")
	if err != nil {
		t.Fatalf("GetProperty(speed) failed: %v", err)
	}
	if v.Kind != KindFloat || v.F != 100 {
		t.Errorf("speed = %v, want 100.0", v)
	}

	// Unexported globals are not reachable through the property interface,
	// even though they live in the same storage.
	_, err = env.GetProperty("hidden")
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("GetProperty(hidden) error = %v, want ErrPropertyNotFound", err)
	}

	_, err = env.GetProperty("bogus")
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("GetProperty(bogus) error = %v, want ErrPropertyNotFound", err)
	}
}

func TestSetPropertyVisibleToScript(t *testing.T) {
	env := newEnv(t, `
@export
let mut health: i32 = 100;

fn read_health() -> i32 { return health; }
fn take_damage(n: i32) { health = health - n; }
`)

	if err := env.SetProperty("health", IntValue(50), false); err != nil {
		t.Fatalf("SetProperty failed: %v", err)
	}
	if got := callInt(t, env, "read_health"); got != 50 {
		t.Errorf("read_health() = %d, want 50", got)
	}

	// Script writes flow back out through GetProperty.
	if _, err := env.CallFunction("take_damage", IntValue(20)); err != nil {
		t.Fatalf("take_damage failed: %v", err)
	}
	v, err := env.GetProperty("health")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if v.I != 30 {
		t.Errorf("health = %d, want 30", v.I)
	}
}

func TestSetPropertyInspectorClamps(t *testing.T) {
	env := newEnv(t, `
@export_range(0, 100)
let mut health: i32 = 100;

@export_range(0.0, 1.0, 0.25)
let mut volume: f32 = 0.5;
`)

	tests := []struct {
		name string
		prop string
		val  Value
		want Value
	}{
		{"above max", "health", IntValue(150), IntValue(100)},
		{"below min", "health", IntValue(-10), IntValue(0)},
		{"in range", "health", IntValue(42), IntValue(42)},
		{"step snaps down", "volume", FloatValue(0.3), FloatValue(0.25)},
		{"step snaps up", "volume", FloatValue(0.45), FloatValue(0.5)},
		{"step then clamp", "volume", FloatValue(1.4), FloatValue(1.0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := env.SetProperty(tc.prop, tc.val, true); err != nil {
				t.Fatalf("SetProperty failed: %v", err)
			}
			got, err := env.GetProperty(tc.prop)
			if err != nil {
				t.Fatalf("GetProperty failed: %v", err)
			}
			if !got.Equals(tc.want) {
				t.Errorf("%s = %v, want %v", tc.prop, got, tc.want)
			}
		})
	}
}

func TestSetPropertyProgrammaticSkipsClamp(t *testing.T) {
	env := newEnv(t, `
@export_range(0, 100)
let mut health: i32 = 100;
`)
	if err := env.SetProperty("health", IntValue(150), false); err != nil {
		t.Fatalf("SetProperty failed: %v", err)
	}
	v, err := env.GetProperty("health")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if v.I != 150 {
		t.Errorf("health = %d, want 150 (programmatic writes bypass the range)", v.I)
	}
}

func TestSetPropertyConversion(t *testing.T) {
	env := newEnv(t, `
@export
let mut speed: f32 = 1.0;

@export
let mut count: i32 = 0;
`)

	// i32 widens to f32 losslessly.
	if err := env.SetProperty("speed", IntValue(3), false); err != nil {
		t.Fatalf("SetProperty(speed, 3) failed: %v", err)
	}
	v, _ := env.GetProperty("speed")
	if v.Kind != KindFloat || v.F != 3 {
		t.Errorf("speed = %v, want f32 3.0", v)
	}

	// An exactly integral f32 narrows to i32.
	if err := env.SetProperty("count", FloatValue(7), false); err != nil {
		t.Fatalf("SetProperty(count, 7.0) failed: %v", err)
	}
	v, _ = env.GetProperty("count")
	if v.Kind != KindInt || v.I != 7 {
		t.Errorf("count = %v, want i32 7", v)
	}

	// A fractional f32 does not.
	err := env.SetProperty("count", FloatValue(7.5), false)
	wantRuntimeError(t, err, compiler.CodePropertyType)
}

func TestSetPropertyNonFiniteFloats(t *testing.T) {
	env := newEnv(t, `
@export
let mut speed: f32 = 1.0;
`)

	// NaN and infinity are ordinary f32 values: identity conversion must
	// carry them through the store unchanged.
	if err := env.SetProperty("speed", FloatValue(float32(math.NaN())), false); err != nil {
		t.Fatalf("SetProperty(NaN) failed: %v", err)
	}
	v, err := env.GetProperty("speed")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if !math.IsNaN(float64(v.F)) {
		t.Errorf("speed = %v, want NaN", v.F)
	}

	if err := env.SetProperty("speed", FloatValue(float32(math.Inf(-1))), false); err != nil {
		t.Fatalf("SetProperty(-Inf) failed: %v", err)
	}
	v, _ = env.GetProperty("speed")
	if !math.IsInf(float64(v.F), -1) {
		t.Errorf("speed = %v, want -Inf", v.F)
	}
}

func TestSetPropertyTypeMismatch(t *testing.T) {
	env := newEnv(t, `
@export
let mut speed: f32 = 1.0;
`)
	err := env.SetProperty("speed", StringValue("fast"), false)
	rerr := wantRuntimeError(t, err, compiler.CodePropertyType)
	if rerr.Message == "" {
		t.Error("type mismatch error has no message")
	}

	err = env.SetProperty("nope", IntValue(1), false)
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("SetProperty(nope) error = %v, want ErrPropertyNotFound", err)
	}
}

func TestCompositePropertyRoundTrip(t *testing.T) {
	env := newEnv(t, `
@export
let mut tint: Color = Color(1.0, 0.5, 0.0, 1.0);
`)

	v, err := env.GetProperty("tint")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if c := v.Color(); c.R != 1 || c.G != 0.5 || c.B != 0 || c.A != 1 {
		t.Errorf("tint = %v, want (1, 0.5, 0, 1)", c)
	}

	if err := env.SetProperty("tint", ColorValue(Color{R: 0, G: 1, B: 0, A: 1}), true); err != nil {
		t.Fatalf("SetProperty failed: %v", err)
	}
	v, _ = env.GetProperty("tint")
	if c := v.Color(); c.G != 1 {
		t.Errorf("tint after set = %v, want green", c)
	}
}
