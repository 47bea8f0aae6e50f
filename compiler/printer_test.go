package compiler

import (
	"testing"
)

// reprint parses source and prints it back.
func reprint(t *testing.T, source string) string {
	t.Helper()
	return PrintProgram(mustParse(t, source))
}

func TestPrintEmptyProgram(t *testing.T) {
	if got := PrintProgram(&Program{}); got != "" {
		t.Errorf("PrintProgram(empty) = %q, want empty", got)
	}
}

func TestPrintFunction(t *testing.T) {
	got := reprint(t, "fn add(a: i32, b: i32) -> i32 { return a + b; }")
	want := `fn add(a: i32, b: i32) -> i32 {
    return a + b;
}
`
	if got != want {
		t.Errorf("printed:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintGlobals(t *testing.T) {
	source := `@export_range(0.0, 100.0, 1.0)
let mut health: i32 = 100;

@export
let mut speed: f32 = 2.5;

let gravity: f32 = 9.8;
`
	got := reprint(t, source)
	if got != source {
		t.Errorf("printed:\n%s\nwant:\n%s", got, source)
	}
}

func TestPrintNestedExpressionsParenthesized(t *testing.T) {
	got := reprint(t, "fn f() -> i32 { return 1 + 2 * 3; }")
	want := `fn f() -> i32 {
    return 1 + (2 * 3);
}
`
	if got != want {
		t.Errorf("printed:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintElseIfChain(t *testing.T) {
	source := `fn classify(n: i32) {
    if n < 0 {
        print("negative");
    } else if n == 0 {
        print("zero");
    } else {
        print("positive");
    }
}
`
	got := reprint(t, source)
	if got != source {
		t.Errorf("printed:\n%s\nwant:\n%s", got, source)
	}
}

func TestPrintStatements(t *testing.T) {
	source := `fn f() {
    let mut i: i32 = 0;
    while i < 10 {
        i = i + 1;
        if i == 5 {
            break;
        }
    }
    let v: Vector2 = Vector2(1.0, 2.0);
    print(v.x);
    return;
}
`
	got := reprint(t, source)
	if got != source {
		t.Errorf("printed:\n%s\nwant:\n%s", got, source)
	}
}

func TestPrintFloatsKeepDecimalPoint(t *testing.T) {
	got := reprint(t, "let x: f32 = 2.0;\nlet y: f32 = 1.5e10;")
	want := "let x: f32 = 2.0;\n\nlet y: f32 = 1.5e+10;\n"
	if got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

func TestPrintStringEscapes(t *testing.T) {
	got := reprint(t, `fn f() { print("line\nbreak\t\"q\""); }`)
	want := "fn f() {\n    print(\"line\\nbreak\\t\\\"q\\\"\");\n}\n"
	if got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

// Printing is a fixpoint: print(parse(print(parse(s)))) == print(parse(s)).
func TestPrintRoundTripFixpoint(t *testing.T) {
	sources := []string{
		"fn main() {}",
		"fn f(a: f32) -> f32 { return -a * (a + 1.0); }",
		"@export_range(-10.0, 10.0, 0.5)\nlet mut offset: f32 = 0.0;",
		`fn g() { if true { } else { } }`,
		"fn h() { let t: Transform2D = Transform2D(Vector2(0.0, 0.0), Vector2(1.0, 0.0), Vector2(0.0, 1.0)); }",
		"fn l() { while !false { break; } }",
		`fn s() { emit_signal("hit", 1, 2.0, "x"); }`,
	}

	for _, src := range sources {
		first := reprint(t, src)
		second := reprint(t, first)
		if first != second {
			t.Errorf("not a fixpoint for %q:\nfirst:\n%s\nsecond:\n%s", src, first, second)
		}
	}
}
