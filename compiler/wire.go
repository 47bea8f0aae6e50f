package compiler

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire format: CBOR serialization of compiled units (.fsc files)
//
// AST nodes are interfaces, so the tree is flattened to kind-tagged wire
// structs before encoding. Canonical mode keeps the encoding deterministic
// for a given unit.
// ---------------------------------------------------------------------------

// wireVersion is bumped on any incompatible layout change.
const wireVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CompiledUnit is the shareable output of a successful compilation: the
// validated Program plus its extracted property metadata. Immutable; many
// runtime instances may execute one unit concurrently.
type CompiledUnit struct {
	Filename   string
	Program    *Program
	Properties []PropertyMetadata
}

// MarshalUnit serializes a compiled unit to CBOR bytes.
func MarshalUnit(u *CompiledUnit) ([]byte, error) {
	w := wireUnit{
		Version:  wireVersion,
		Filename: u.Filename,
	}
	for _, g := range u.Program.Globals {
		w.Globals = append(w.Globals, encodeGlobal(g))
	}
	for _, fn := range u.Program.Functions {
		w.Functions = append(w.Functions, encodeFunction(fn))
	}
	for _, p := range u.Properties {
		w.Properties = append(w.Properties, encodeProperty(p))
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalUnit deserializes a compiled unit from CBOR bytes.
func UnmarshalUnit(data []byte) (*CompiledUnit, error) {
	var w wireUnit
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("compiler: unmarshal unit: %w", err)
	}
	if w.Version != wireVersion {
		return nil, fmt.Errorf("compiler: unsupported unit version %d (want %d)",
			w.Version, wireVersion)
	}

	u := &CompiledUnit{Filename: w.Filename, Program: &Program{}}
	for _, g := range w.Globals {
		decoded, err := decodeGlobal(g)
		if err != nil {
			return nil, err
		}
		u.Program.Globals = append(u.Program.Globals, decoded)
	}
	for _, fn := range w.Functions {
		decoded, err := decodeFunction(fn)
		if err != nil {
			return nil, err
		}
		u.Program.Functions = append(u.Program.Functions, decoded)
	}
	for _, p := range w.Properties {
		u.Properties = append(u.Properties, decodeProperty(p))
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Wire structs
// ---------------------------------------------------------------------------

type wireUnit struct {
	Version    int            `cbor:"v"`
	Filename   string         `cbor:"file"`
	Globals    []wireGlobal   `cbor:"globals,omitempty"`
	Functions  []wireFunction `cbor:"funcs,omitempty"`
	Properties []wireProperty `cbor:"props,omitempty"`
}

type wireSpan struct {
	StartOffset int `cbor:"so"`
	StartLine   int `cbor:"sl"`
	StartCol    int `cbor:"sc"`
	EndOffset   int `cbor:"eo"`
	EndLine     int `cbor:"el"`
	EndCol      int `cbor:"ec"`
}

type wireGlobal struct {
	Name     string     `cbor:"name"`
	Type     string     `cbor:"type"`
	Mutable  bool       `cbor:"mut,omitempty"`
	Exported bool       `cbor:"exp,omitempty"`
	Range    []float64  `cbor:"range,omitempty"` // [min, max, step]
	Init     *wireExpr  `cbor:"init"`
	Span     wireSpan   `cbor:"span"`
}

type wireFunction struct {
	Name       string      `cbor:"name"`
	ParamNames []string    `cbor:"pnames,omitempty"`
	ParamTypes []string    `cbor:"ptypes,omitempty"`
	ReturnType string      `cbor:"ret,omitempty"` // empty means void
	Body       []wireStmt  `cbor:"body,omitempty"`
	Span       wireSpan    `cbor:"span"`
}

type wireProperty struct {
	Name    string     `cbor:"name"`
	Type    int        `cbor:"type"`
	Default ConstValue `cbor:"def"`
	Range   []float64  `cbor:"range,omitempty"`
}

// wireStmt is the kind-tagged flattening of Stmt variants.
type wireStmt struct {
	Kind    string     `cbor:"k"`
	Name    string     `cbor:"name,omitempty"`
	Type    string     `cbor:"type,omitempty"`
	Mutable bool       `cbor:"mut,omitempty"`
	Expr    *wireExpr  `cbor:"expr,omitempty"`   // let init, assign value, return value, expr stmt
	Target  *wireExpr  `cbor:"target,omitempty"` // assign target
	Cond    *wireExpr  `cbor:"cond,omitempty"`
	Body    []wireStmt `cbor:"body,omitempty"` // then branch / while body
	Else    []wireStmt `cbor:"else,omitempty"`
	HasElse bool       `cbor:"haselse,omitempty"` // distinguishes absent vs empty else
	Span    wireSpan   `cbor:"span"`
}

// wireExpr is the kind-tagged flattening of Expr variants. Children live in
// Args: binary (lhs, rhs), unary (operand), call (arguments), field (base).
type wireExpr struct {
	Kind string     `cbor:"k"`
	I    int32      `cbor:"i,omitempty"`
	F    float32    `cbor:"f,omitempty"`
	B    bool       `cbor:"b,omitempty"`
	S    string     `cbor:"s,omitempty"` // string value, variable name, callee, field
	Op   int        `cbor:"op,omitempty"`
	Args []wireExpr `cbor:"args,omitempty"`
	Span wireSpan   `cbor:"span"`
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func encodeSpan(s Span) wireSpan {
	return wireSpan{
		StartOffset: s.Start.Offset, StartLine: s.Start.Line, StartCol: s.Start.Column,
		EndOffset: s.End.Offset, EndLine: s.End.Line, EndCol: s.End.Column,
	}
}

func decodeSpan(w wireSpan) Span {
	return Span{
		Start: Position{Offset: w.StartOffset, Line: w.StartLine, Column: w.StartCol},
		End:   Position{Offset: w.EndOffset, Line: w.EndLine, Column: w.EndCol},
	}
}

func encodeGlobal(g *GlobalVar) wireGlobal {
	w := wireGlobal{
		Name:     g.Name,
		Type:     g.Type.Name,
		Mutable:  g.Mutable,
		Exported: g.Exported,
		Init:     encodeExpr(g.Init),
		Span:     encodeSpan(g.SpanVal),
	}
	if g.Range != nil {
		w.Range = []float64{g.Range.Min, g.Range.Max, g.Range.Step}
	}
	return w
}

func decodeGlobal(w wireGlobal) (*GlobalVar, error) {
	init, err := decodeExpr(w.Init)
	if err != nil {
		return nil, err
	}
	g := &GlobalVar{
		SpanVal:  decodeSpan(w.Span),
		Name:     w.Name,
		Type:     &TypeRef{Name: w.Type},
		Mutable:  w.Mutable,
		Exported: w.Exported,
		Init:     init,
	}
	if len(w.Range) == 3 {
		g.Range = &RangeAnnotation{Min: w.Range[0], Max: w.Range[1], Step: w.Range[2]}
	}
	return g, nil
}

func encodeFunction(fn *Function) wireFunction {
	w := wireFunction{
		Name: fn.Name,
		Span: encodeSpan(fn.SpanVal),
	}
	for _, p := range fn.Params {
		w.ParamNames = append(w.ParamNames, p.Name)
		w.ParamTypes = append(w.ParamTypes, p.Type.Name)
	}
	if fn.ReturnType != nil {
		w.ReturnType = fn.ReturnType.Name
	}
	for _, stmt := range fn.Body {
		w.Body = append(w.Body, encodeStmt(stmt))
	}
	return w
}

func decodeFunction(w wireFunction) (*Function, error) {
	fn := &Function{Name: w.Name, SpanVal: decodeSpan(w.Span)}
	for i, name := range w.ParamNames {
		fn.Params = append(fn.Params, &Param{
			Name: name,
			Type: &TypeRef{Name: w.ParamTypes[i]},
		})
	}
	if w.ReturnType != "" {
		fn.ReturnType = &TypeRef{Name: w.ReturnType}
	}
	for _, stmt := range w.Body {
		decoded, err := decodeStmt(stmt)
		if err != nil {
			return nil, err
		}
		fn.Body = append(fn.Body, decoded)
	}
	return fn, nil
}

func encodeProperty(p PropertyMetadata) wireProperty {
	w := wireProperty{Name: p.Name, Type: int(p.Type), Default: p.Default}
	if p.Range != nil {
		w.Range = []float64{p.Range.Min, p.Range.Max, p.Range.Step}
	}
	return w
}

func decodeProperty(w wireProperty) PropertyMetadata {
	p := PropertyMetadata{Name: w.Name, Type: Type(w.Type), Default: w.Default}
	if len(w.Range) == 3 {
		p.Range = &RangeHint{Min: w.Range[0], Max: w.Range[1], Step: w.Range[2]}
	}
	return p
}

func encodeStmts(stmts []Stmt) []wireStmt {
	out := make([]wireStmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, encodeStmt(s))
	}
	return out
}

func decodeStmts(stmts []wireStmt) ([]Stmt, error) {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		decoded, err := decodeStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func encodeStmt(stmt Stmt) wireStmt {
	switch st := stmt.(type) {
	case *LetStmt:
		return wireStmt{
			Kind: "let", Name: st.Name, Type: st.Type.Name, Mutable: st.Mutable,
			Expr: encodeExpr(st.Init), Span: encodeSpan(st.SpanVal),
		}
	case *AssignStmt:
		return wireStmt{
			Kind: "assign", Target: encodeExpr(st.Target), Expr: encodeExpr(st.Value),
			Span: encodeSpan(st.SpanVal),
		}
	case *IfStmt:
		w := wireStmt{
			Kind: "if", Cond: encodeExpr(st.Cond), Body: encodeStmts(st.Then),
			Span: encodeSpan(st.SpanVal),
		}
		if st.Else != nil {
			w.HasElse = true
			w.Else = encodeStmts(st.Else)
		}
		return w
	case *WhileStmt:
		return wireStmt{
			Kind: "while", Cond: encodeExpr(st.Cond), Body: encodeStmts(st.Body),
			Span: encodeSpan(st.SpanVal),
		}
	case *ReturnStmt:
		w := wireStmt{Kind: "return", Span: encodeSpan(st.SpanVal)}
		if st.Value != nil {
			w.Expr = encodeExpr(st.Value)
		}
		return w
	case *BreakStmt:
		return wireStmt{Kind: "break", Span: encodeSpan(st.SpanVal)}
	case *ExprStmt:
		return wireStmt{Kind: "expr", Expr: encodeExpr(st.Expr), Span: encodeSpan(st.SpanVal)}
	}
	return wireStmt{Kind: "invalid"}
}

func decodeStmt(w wireStmt) (Stmt, error) {
	span := decodeSpan(w.Span)
	switch w.Kind {
	case "let":
		init, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &LetStmt{
			SpanVal: span, Name: w.Name, Type: &TypeRef{Name: w.Type},
			Mutable: w.Mutable, Init: init,
		}, nil
	case "assign":
		target, err := decodeExpr(w.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{SpanVal: span, Target: target, Value: value}, nil
	case "if":
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmts(w.Body)
		if err != nil {
			return nil, err
		}
		st := &IfStmt{SpanVal: span, Cond: cond, Then: then}
		if w.HasElse {
			st.Else, err = decodeStmts(w.Else)
			if err != nil {
				return nil, err
			}
			if st.Else == nil {
				st.Else = []Stmt{}
			}
		}
		return st, nil
	case "while":
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(w.Body)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{SpanVal: span, Cond: cond, Body: body}, nil
	case "return":
		st := &ReturnStmt{SpanVal: span}
		if w.Expr != nil {
			value, err := decodeExpr(w.Expr)
			if err != nil {
				return nil, err
			}
			st.Value = value
		}
		return st, nil
	case "break":
		return &BreakStmt{SpanVal: span}, nil
	case "expr":
		expr, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{SpanVal: span, Expr: expr}, nil
	}
	return nil, fmt.Errorf("compiler: unknown statement kind %q", w.Kind)
}

func encodeExpr(expr Expr) *wireExpr {
	switch e := expr.(type) {
	case *IntLiteral:
		return &wireExpr{Kind: "int", I: e.Value, Span: encodeSpan(e.SpanVal)}
	case *FloatLiteral:
		return &wireExpr{Kind: "float", F: e.Value, Span: encodeSpan(e.SpanVal)}
	case *StringLiteral:
		return &wireExpr{Kind: "string", S: e.Value, Span: encodeSpan(e.SpanVal)}
	case *BoolLiteral:
		return &wireExpr{Kind: "bool", B: e.Value, Span: encodeSpan(e.SpanVal)}
	case *Variable:
		return &wireExpr{Kind: "var", S: e.Name, Span: encodeSpan(e.SpanVal)}
	case *UnaryExpr:
		return &wireExpr{
			Kind: "unary", Op: int(e.Op),
			Args: []wireExpr{*encodeExpr(e.Operand)},
			Span: encodeSpan(e.SpanVal),
		}
	case *BinaryExpr:
		return &wireExpr{
			Kind: "binary", Op: int(e.Op),
			Args: []wireExpr{*encodeExpr(e.LHS), *encodeExpr(e.RHS)},
			Span: encodeSpan(e.SpanVal),
		}
	case *CallExpr:
		w := &wireExpr{Kind: "call", S: e.Callee, Span: encodeSpan(e.SpanVal)}
		for _, arg := range e.Args {
			w.Args = append(w.Args, *encodeExpr(arg))
		}
		return w
	case *FieldAccess:
		return &wireExpr{
			Kind: "field", S: e.Field,
			Args: []wireExpr{*encodeExpr(e.Base)},
			Span: encodeSpan(e.SpanVal),
		}
	}
	return &wireExpr{Kind: "invalid"}
}

func decodeExpr(w *wireExpr) (Expr, error) {
	if w == nil {
		return nil, fmt.Errorf("compiler: missing expression node")
	}
	span := decodeSpan(w.Span)
	switch w.Kind {
	case "int":
		return &IntLiteral{SpanVal: span, Value: w.I}, nil
	case "float":
		return &FloatLiteral{SpanVal: span, Value: w.F}, nil
	case "string":
		return &StringLiteral{SpanVal: span, Value: w.S}, nil
	case "bool":
		return &BoolLiteral{SpanVal: span, Value: w.B}, nil
	case "var":
		return &Variable{SpanVal: span, Name: w.S}, nil
	case "unary":
		if len(w.Args) != 1 {
			return nil, fmt.Errorf("compiler: unary node needs 1 child, got %d", len(w.Args))
		}
		operand, err := decodeExpr(&w.Args[0])
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{SpanVal: span, Op: UnOp(w.Op), Operand: operand}, nil
	case "binary":
		if len(w.Args) != 2 {
			return nil, fmt.Errorf("compiler: binary node needs 2 children, got %d", len(w.Args))
		}
		lhs, err := decodeExpr(&w.Args[0])
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(&w.Args[1])
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{SpanVal: span, Op: BinOp(w.Op), LHS: lhs, RHS: rhs}, nil
	case "call":
		call := &CallExpr{SpanVal: span, Callee: w.S}
		for i := range w.Args {
			arg, err := decodeExpr(&w.Args[i])
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	case "field":
		if len(w.Args) != 1 {
			return nil, fmt.Errorf("compiler: field node needs 1 child, got %d", len(w.Args))
		}
		base, err := decodeExpr(&w.Args[0])
		if err != nil {
			return nil, err
		}
		return &FieldAccess{SpanVal: span, Base: base, Field: w.S}, nil
	}
	return nil, fmt.Errorf("compiler: unknown expression kind %q", w.Kind)
}
