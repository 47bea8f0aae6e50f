package integration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
	"github.com/dev-parkins/FerrisScript-sub007/manifest"
	"github.com/dev-parkins/FerrisScript-sub007/vm"
)

// ---------------------------------------------------------------------------
// Integration test helpers
// ---------------------------------------------------------------------------

// load compiles source and spins up an environment, replicating the
// cmd/ferris run pipeline including the wire round trip through a build
// artifact.
func load(t *testing.T, source string) *vm.Environment {
	t.Helper()
	unit, diags := compiler.Compile("test.ferris", source)
	if len(diags) > 0 {
		t.Fatalf("compile errors:\n%s", compiler.RenderAll(diags, "test.ferris", source))
	}

	data, err := compiler.MarshalUnit(unit)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	decoded, err := compiler.UnmarshalUnit(data)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	env, err := vm.NewEnvironment(decoded)
	if err != nil {
		t.Fatalf("environment error: %v", err)
	}
	return env
}

func callInt(t *testing.T, env *vm.Environment, fn string, args ...vm.Value) int32 {
	t.Helper()
	result, err := env.CallFunction(fn, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", fn, err)
	}
	if result.Kind != vm.KindInt {
		t.Fatalf("%s = %v, want an i32", fn, result)
	}
	return result.I
}

// ---------------------------------------------------------------------------
// 1. Arithmetic: factorial
// ---------------------------------------------------------------------------

func TestIntegrationE2E_Factorial(t *testing.T) {
	env := load(t, `
fn factorial(n: i32) -> i32 {
    if n == 0 {
        return 1;
    }
    return n * factorial(n - 1);
}
`)

	tests := []struct {
		n, expected int32
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{10, 3628800},
	}

	for _, tc := range tests {
		if got := callInt(t, env, "factorial", vm.IntValue(tc.n)); got != tc.expected {
			t.Errorf("factorial(%d) = %v, want %d", tc.n, got, tc.expected)
		}
	}
}

// ---------------------------------------------------------------------------
// 2. Arithmetic: recursive GCD
// ---------------------------------------------------------------------------

func TestIntegrationE2E_RecursiveGCD(t *testing.T) {
	env := load(t, `
fn gcd(a: i32, b: i32) -> i32 {
    if b == 0 {
        return a;
    }
    return gcd(b, a % b);
}
`)

	tests := []struct {
		a, b, expected int32
	}{
		{12, 8, 4},
		{15, 5, 5},
		{17, 13, 1},
		{100, 75, 25},
	}

	for _, tc := range tests {
		if got := callInt(t, env, "gcd", vm.IntValue(tc.a), vm.IntValue(tc.b)); got != tc.expected {
			t.Errorf("gcd(%d, %d) = %v, want %d", tc.a, tc.b, got, tc.expected)
		}
	}
}

// ---------------------------------------------------------------------------
// 3. Iteration: Collatz steps
// ---------------------------------------------------------------------------

func TestIntegrationE2E_Collatz(t *testing.T) {
	env := load(t, `
fn collatz_steps(start: i32) -> i32 {
    let mut n: i32 = start;
    let mut steps: i32 = 0;
    while n > 1 {
        if n % 2 == 0 {
            n = n / 2;
        } else {
            n = n * 3 + 1;
        }
        steps = steps + 1;
    }
    return steps;
}
`)

	tests := []struct {
		n, expected int32
	}{
		{1, 0},
		{2, 1},
		{3, 7},
		{6, 8},
		{27, 111},
	}

	for _, tc := range tests {
		if got := callInt(t, env, "collatz_steps", vm.IntValue(tc.n)); got != tc.expected {
			t.Errorf("collatz_steps(%d) = %v, want %d", tc.n, got, tc.expected)
		}
	}
}

// ---------------------------------------------------------------------------
// 4. Mutual recursion: is_even / is_odd
// ---------------------------------------------------------------------------

func TestIntegrationE2E_MutualRecursion(t *testing.T) {
	env := load(t, `
fn is_even(n: i32) -> bool {
    if n == 0 {
        return true;
    }
    return is_odd(n - 1);
}

fn is_odd(n: i32) -> bool {
    if n == 0 {
        return false;
    }
    return is_even(n - 1);
}
`)

	tests := []struct {
		n    int32
		even bool
	}{
		{0, true},
		{1, false},
		{4, true},
		{7, false},
	}

	for _, tc := range tests {
		result, err := env.CallFunction("is_even", vm.IntValue(tc.n))
		if err != nil {
			t.Fatalf("is_even(%d) failed: %v", tc.n, err)
		}
		if result.B != tc.even {
			t.Errorf("is_even(%d) = %v, want %v", tc.n, result.B, tc.even)
		}
	}
}

// ---------------------------------------------------------------------------
// 5. Script state: a counter living in exported globals
// ---------------------------------------------------------------------------

func TestIntegrationE2E_StatefulCounter(t *testing.T) {
	env := load(t, `
@export
let mut count: i32 = 0;

fn increment() { count = count + 1; }
fn decrement() { count = count - 1; }
fn reset()     { count = 0; }
fn current() -> i32 { return count; }
`)

	for i := 0; i < 3; i++ {
		if _, err := env.CallFunction("increment"); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}
	if got := callInt(t, env, "current"); got != 3 {
		t.Errorf("count after 3 increments = %d, want 3", got)
	}

	if _, err := env.CallFunction("decrement"); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if got := callInt(t, env, "current"); got != 2 {
		t.Errorf("count after decrement = %d, want 2", got)
	}

	// The host sees script state through the property interface.
	v, err := env.GetProperty("count")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if v.I != 2 {
		t.Errorf("count property = %d, want 2", v.I)
	}

	if _, err := env.CallFunction("reset"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if got := callInt(t, env, "current"); got != 0 {
		t.Errorf("count after reset = %d, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// 6. A movement script: properties, composites, and host callbacks
// ---------------------------------------------------------------------------

func TestIntegrationE2E_MovementScript(t *testing.T) {
	env := load(t, `
@export_range(0.0, 500.0)
let mut speed: f32 = 100.0;

let mut position: Vector2 = Vector2(0.0, 0.0);

fn update(delta: f32) {
    position.x = position.x + speed * delta;
}

fn position_x() -> f32 {
    return position.x;
}

fn hit_wall() {
    speed = 0.0;
    emit_signal("stopped", position.x);
}
`)

	var signals []string
	env.SetCallbacks(vm.HostCallbacks{
		EmitSignal: func(name string, args []vm.Value) error {
			signals = append(signals, name)
			return nil
		},
	})

	// The inspector turns the speed up past the range; the write clamps.
	if err := env.SetProperty("speed", vm.FloatValue(1000), true); err != nil {
		t.Fatalf("SetProperty failed: %v", err)
	}
	v, _ := env.GetProperty("speed")
	if v.F != 500 {
		t.Errorf("speed = %v, want 500 (clamped)", v.F)
	}

	// Two quarter-second frames move the position by speed * 0.5.
	for i := 0; i < 2; i++ {
		if _, err := env.CallFunction("update", vm.FloatValue(0.25)); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}
	result, err := env.CallFunction("position_x")
	if err != nil {
		t.Fatalf("position_x failed: %v", err)
	}
	if result.F != 250 {
		t.Errorf("position.x = %v, want 250", result.F)
	}

	if _, err := env.CallFunction("hit_wall"); err != nil {
		t.Fatalf("hit_wall failed: %v", err)
	}
	if len(signals) != 1 || signals[0] != "stopped" {
		t.Errorf("signals = %v, want [stopped]", signals)
	}
}

// ---------------------------------------------------------------------------
// 7. Hot reload: edits survive with state preserved
// ---------------------------------------------------------------------------

func TestIntegrationE2E_HotReload(t *testing.T) {
	env := load(t, `
@export
let mut health: i32 = 100;

fn heal(n: i32) { health = health + n; }
`)

	if err := env.SetProperty("health", vm.IntValue(40), false); err != nil {
		t.Fatalf("SetProperty failed: %v", err)
	}

	// The edited script gains a function and keeps the property.
	next, diags := compiler.Compile("test.ferris", `
@export
let mut health: i32 = 100;

fn heal(n: i32) { health = health + n; }
fn hurt(n: i32) { health = health - n; }
`)
	if len(diags) > 0 {
		t.Fatalf("compile errors: %v", diags)
	}
	if err := env.Reload(next, true); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	v, err := env.GetProperty("health")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if v.I != 40 {
		t.Errorf("health after reload = %d, want the preserved 40", v.I)
	}

	if _, err := env.CallFunction("hurt", vm.IntValue(15)); err != nil {
		t.Fatalf("hurt failed: %v", err)
	}
	v, _ = env.GetProperty("health")
	if v.I != 25 {
		t.Errorf("health after hurt = %d, want 25", v.I)
	}
}

// ---------------------------------------------------------------------------
// 8. Project build: manifest-driven compile to build artifacts
// ---------------------------------------------------------------------------

func TestIntegrationE2E_ProjectBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ferris.toml"), `
[project]
name = "demo"

[source]
dirs = ["scripts"]
`)
	writeFile(t, filepath.Join(dir, "scripts", "hello.ferris"), `
fn answer() -> i32 { return 42; }
`)

	m, err := manifest.FindAndLoad(filepath.Join(dir, "scripts"))
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	files, err := m.ScriptFiles()
	if err != nil {
		t.Fatalf("ScriptFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("ScriptFiles = %v, want one script", files)
	}

	source, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	unit, diags := compiler.Compile(files[0], string(source))
	if len(diags) > 0 {
		t.Fatalf("compile errors: %v", diags)
	}

	data, err := compiler.MarshalUnit(unit)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	artifact := filepath.Join(m.OutputDir(), "hello.fsc")
	if err := os.MkdirAll(m.OutputDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(artifact, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	// A separate load of the artifact runs without the source around.
	loaded, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	decoded, err := compiler.UnmarshalUnit(loaded)
	if err != nil {
		t.Fatalf("unmarshal artifact: %v", err)
	}
	env, err := vm.NewEnvironment(decoded)
	if err != nil {
		t.Fatalf("environment: %v", err)
	}
	if got := callInt(t, env, "answer"); got != 42 {
		t.Errorf("answer() = %d, want 42", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
