package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Property Metadata Extractor: exported declarations -> host metadata
// ---------------------------------------------------------------------------

// ConstKind tags a compile-time constant value.
type ConstKind int

const (
	ConstI32 ConstKind = iota
	ConstF32
	ConstBool
	ConstString
	ConstVector2
	ConstColor
	ConstRect2
	ConstTransform2D
)

// ConstValue is a compile-time constant: the default of an exported
// property. Composite kinds store their components flattened in F2 through
// F6 (Vector2 uses F..F2, Color F..F4, Rect2 F..F4, Transform2D F..F6).
type ConstValue struct {
	Kind ConstKind
	I    int32
	F    float32
	B    bool
	S    string
	F2   float32
	F3   float32
	F4   float32
	F5   float32
	F6   float32
}

func (v ConstValue) String() string {
	switch v.Kind {
	case ConstI32:
		return fmt.Sprintf("%d", v.I)
	case ConstF32:
		return fmt.Sprintf("%g", v.F)
	case ConstBool:
		return fmt.Sprintf("%t", v.B)
	case ConstString:
		return fmt.Sprintf("%q", v.S)
	case ConstVector2:
		return fmt.Sprintf("Vector2(%g, %g)", v.F, v.F2)
	case ConstColor:
		return fmt.Sprintf("Color(%g, %g, %g, %g)", v.F, v.F2, v.F3, v.F4)
	case ConstRect2:
		return fmt.Sprintf("Rect2(Vector2(%g, %g), Vector2(%g, %g))", v.F, v.F2, v.F3, v.F4)
	case ConstTransform2D:
		return fmt.Sprintf("Transform2D(Vector2(%g, %g), Vector2(%g, %g), Vector2(%g, %g))",
			v.F, v.F2, v.F3, v.F4, v.F5, v.F6)
	}
	return "<const>"
}

// RangeHint constrains a numeric exported property in the inspector.
type RangeHint struct {
	Min  float64
	Max  float64
	Step float64
}

// PropertyMetadata describes one exported property for the host's
// reflection system. Extracted once at compile time, owned by the compiled
// unit, read-only afterwards.
type PropertyMetadata struct {
	Name    string
	Type    Type
	Default ConstValue
	Range   *RangeHint // nil when no @export_range hint is present
}

// ExtractProperties collects exported global declarations into metadata
// records, validating that the declared type is host-representable, that
// defaults are compile-time constants, and that range hints are sane.
func ExtractProperties(prog *Program) ([]PropertyMetadata, []Diagnostic) {
	var props []PropertyMetadata
	var diags []Diagnostic

	report := func(code string, span Span, format string, args ...interface{}) {
		diags = append(diags, Diagnostic{
			Code:    code,
			Phase:   PhaseExport,
			Message: fmt.Sprintf(format, args...),
			Span:    span,
		})
	}

	for _, g := range prog.Globals {
		if !g.Exported {
			continue
		}

		typ, ok := TypeByName(g.Type.Name)
		if !ok {
			// Undefined type is the type checker's diagnostic; skip here.
			continue
		}
		if !typ.Exportable() {
			report(CodeUnsupportedExport, g.SpanVal,
				"type %s cannot be exported: only primitive and composite value types are host-representable", typ)
			continue
		}

		def, ok := constEval(g.Init, typ)
		if !ok {
			report(CodeNonConstDefault, g.Init.Span(),
				"default value of exported property %q must be a compile-time constant", g.Name)
			continue
		}

		meta := PropertyMetadata{Name: g.Name, Type: typ, Default: def}

		if g.Range != nil {
			if !typ.IsNumeric() {
				report(CodeRangeNotNumeric, g.Range.SpanVal,
					"@export_range requires a numeric property, %q is %s", g.Name, typ)
				continue
			}
			if g.Range.Min > g.Range.Max {
				report(CodeBadRange, g.Range.SpanVal,
					"invalid range: min %g exceeds max %g", g.Range.Min, g.Range.Max)
				continue
			}
			if g.Range.Step < 0 {
				report(CodeBadRange, g.Range.SpanVal,
					"invalid range: step %g must not be negative", g.Range.Step)
				continue
			}
			meta.Range = &RangeHint{Min: g.Range.Min, Max: g.Range.Max, Step: g.Range.Step}
		}

		props = append(props, meta)
	}

	return props, diags
}

// constEval evaluates an exported default: literals, negated numeric
// literals, and composite constructors over constant arguments.
func constEval(expr Expr, want Type) (ConstValue, bool) {
	switch e := expr.(type) {
	case *IntLiteral:
		// An i32 literal may seed an f32 property (lossless widening).
		if want == TypeF32 {
			return ConstValue{Kind: ConstF32, F: float32(e.Value)}, true
		}
		return ConstValue{Kind: ConstI32, I: e.Value}, want == TypeI32

	case *FloatLiteral:
		return ConstValue{Kind: ConstF32, F: e.Value}, want == TypeF32

	case *BoolLiteral:
		return ConstValue{Kind: ConstBool, B: e.Value}, want == TypeBool

	case *StringLiteral:
		return ConstValue{Kind: ConstString, S: e.Value}, want == TypeString

	case *UnaryExpr:
		if e.Op != OpNeg {
			return ConstValue{}, false
		}
		inner, ok := constEval(e.Operand, want)
		if !ok {
			return ConstValue{}, false
		}
		switch inner.Kind {
		case ConstI32:
			inner.I = -inner.I
			return inner, true
		case ConstF32:
			inner.F = -inner.F
			return inner, true
		}
		return ConstValue{}, false

	case *CallExpr:
		return constEvalConstructor(e, want)
	}
	return ConstValue{}, false
}

// constEvalConstructor folds Vector2/Color/Rect2/Transform2D constructor
// calls with constant arguments.
func constEvalConstructor(e *CallExpr, want Type) (ConstValue, bool) {
	scalars := func(n int) ([]float32, bool) {
		if len(e.Args) != n {
			return nil, false
		}
		out := make([]float32, n)
		for i, arg := range e.Args {
			cv, ok := constEval(arg, TypeF32)
			if !ok || cv.Kind != ConstF32 {
				return nil, false
			}
			out[i] = cv.F
		}
		return out, true
	}
	vectors := func(n int) ([]float32, bool) {
		if len(e.Args) != n {
			return nil, false
		}
		out := make([]float32, 0, n*2)
		for _, arg := range e.Args {
			cv, ok := constEval(arg, TypeVector2)
			if !ok || cv.Kind != ConstVector2 {
				return nil, false
			}
			out = append(out, cv.F, cv.F2)
		}
		return out, true
	}

	switch {
	case e.Callee == "Vector2" && want == TypeVector2:
		fs, ok := scalars(2)
		if !ok {
			return ConstValue{}, false
		}
		return ConstValue{Kind: ConstVector2, F: fs[0], F2: fs[1]}, true

	case e.Callee == "Color" && want == TypeColor:
		fs, ok := scalars(4)
		if !ok {
			return ConstValue{}, false
		}
		return ConstValue{Kind: ConstColor, F: fs[0], F2: fs[1], F3: fs[2], F4: fs[3]}, true

	case e.Callee == "Rect2" && want == TypeRect2:
		fs, ok := vectors(2)
		if !ok {
			return ConstValue{}, false
		}
		return ConstValue{Kind: ConstRect2, F: fs[0], F2: fs[1], F3: fs[2], F4: fs[3]}, true

	case e.Callee == "Transform2D" && want == TypeTransform2D:
		fs, ok := vectors(3)
		if !ok {
			return ConstValue{}, false
		}
		return ConstValue{
			Kind: ConstTransform2D,
			F:    fs[0], F2: fs[1], F3: fs[2], F4: fs[3], F5: fs[4], F6: fs[5],
		}, true
	}
	return ConstValue{}, false
}
