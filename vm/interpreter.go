package vm

import (
	"strings"

	"github.com/dev-parkins/FerrisScript-sub007/compiler"
)

// ---------------------------------------------------------------------------
// Tree-walking interpreter
// ---------------------------------------------------------------------------

// control reports how a statement finished: normally, through return, or
// through break.
type control int

const (
	ctrlNormal control = iota
	ctrlReturn
	ctrlBreak
)

// frame is one function activation: its lexical scope stack. A nil frame
// means evaluation happens at global scope (initializers).
type frame struct {
	scopes []map[string]Value
}

func (fr *frame) push() { fr.scopes = append(fr.scopes, map[string]Value{}) }
func (fr *frame) pop()  { fr.scopes = fr.scopes[:len(fr.scopes)-1] }

func (fr *frame) lookup(name string) (Value, bool) {
	if fr == nil {
		return Value{}, false
	}
	for i := len(fr.scopes) - 1; i >= 0; i-- {
		if v, ok := fr.scopes[i][name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

func (fr *frame) set(name string, v Value) bool {
	if fr == nil {
		return false
	}
	for i := len(fr.scopes) - 1; i >= 0; i-- {
		if _, ok := fr.scopes[i][name]; ok {
			fr.scopes[i][name] = v
			return true
		}
	}
	return false
}

func (fr *frame) define(name string, v Value) {
	fr.scopes[len(fr.scopes)-1][name] = v
}

// CallFunction invokes a script function by name with already-converted host
// arguments. Argument values widen from i32 to f32 where the signature asks
// for a float; any other mismatch is an error.
func (env *Environment) CallFunction(name string, args ...Value) (Value, error) {
	fn := env.unit.Program.FindFunction(name)
	if fn == nil {
		return Value{}, runtimeErrorf(compiler.CodeNoSuchFunction, compiler.Span{},
			"script defines no function %q", name)
	}
	if len(args) != len(fn.Params) {
		return Value{}, runtimeErrorf(compiler.CodeBadArgument, fn.Span(),
			"%s expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}
	converted := make([]Value, len(args))
	for i, arg := range args {
		t, _ := compiler.TypeByName(fn.Params[i].Type.Name)
		c, ok := Convert(arg, t)
		if !ok {
			return Value{}, runtimeErrorf(compiler.CodeBadArgument, fn.Params[i].Span(),
				"argument %d of %s: got %s, want %s", i+1, name, arg.Kind, t)
		}
		converted[i] = c
	}
	result, rerr := env.call(fn, converted)
	if rerr != nil {
		return Value{}, rerr
	}
	return result, nil
}

func (env *Environment) call(fn *compiler.Function, args []Value) (Value, *RuntimeError) {
	env.depth++
	defer func() { env.depth-- }()
	if env.depth > maxCallDepth {
		return Value{}, runtimeErrorf(compiler.CodeStackOverflow, fn.Span(),
			"call depth exceeded %d in %s", maxCallDepth, fn.Name)
	}

	fr := &frame{}
	fr.push()
	for i, p := range fn.Params {
		fr.define(p.Name, args[i])
	}

	ctrl, val, err := env.execBlock(fn.Body, fr)
	if err != nil {
		return Value{}, err
	}
	if ctrl == ctrlReturn {
		return val, nil
	}
	// Fell off the end: void functions yield nil, others their zero value.
	if fn.ReturnType == nil {
		return NilValue(), nil
	}
	t, _ := compiler.TypeByName(fn.ReturnType.Name)
	return ZeroValue(t), nil
}

func (env *Environment) execBlock(stmts []compiler.Stmt, fr *frame) (control, Value, *RuntimeError) {
	for _, stmt := range stmts {
		ctrl, val, err := env.exec(stmt, fr)
		if err != nil {
			return ctrlNormal, Value{}, err
		}
		if ctrl != ctrlNormal {
			return ctrl, val, nil
		}
	}
	return ctrlNormal, Value{}, nil
}

func (env *Environment) exec(stmt compiler.Stmt, fr *frame) (control, Value, *RuntimeError) {
	switch st := stmt.(type) {
	case *compiler.LetStmt:
		val, err := env.eval(st.Init, fr)
		if err != nil {
			return ctrlNormal, Value{}, err
		}
		t, _ := compiler.TypeByName(st.Type.Name)
		converted, ok := Convert(val, t)
		if !ok {
			return ctrlNormal, Value{}, runtimeErrorf(compiler.CodeBadArgument, st.Span(),
				"let %s: got %s, want %s", st.Name, val.Kind, t)
		}
		fr.define(st.Name, converted)
		return ctrlNormal, Value{}, nil

	case *compiler.AssignStmt:
		val, err := env.eval(st.Value, fr)
		if err != nil {
			return ctrlNormal, Value{}, err
		}
		return ctrlNormal, Value{}, env.assignTo(st.Target, val, fr)

	case *compiler.IfStmt:
		cond, err := env.evalCondition(st.Cond, fr)
		if err != nil {
			return ctrlNormal, Value{}, err
		}
		fr.push()
		defer fr.pop()
		if cond {
			return env.execBlock(st.Then, fr)
		}
		if st.Else != nil {
			return env.execBlock(st.Else, fr)
		}
		return ctrlNormal, Value{}, nil

	case *compiler.WhileStmt:
		for {
			cond, err := env.evalCondition(st.Cond, fr)
			if err != nil {
				return ctrlNormal, Value{}, err
			}
			if !cond {
				return ctrlNormal, Value{}, nil
			}
			fr.push()
			ctrl, val, err := env.execBlock(st.Body, fr)
			fr.pop()
			if err != nil {
				return ctrlNormal, Value{}, err
			}
			if ctrl == ctrlBreak {
				return ctrlNormal, Value{}, nil
			}
			if ctrl == ctrlReturn {
				return ctrlReturn, val, nil
			}
		}

	case *compiler.ReturnStmt:
		if st.Value == nil {
			return ctrlReturn, NilValue(), nil
		}
		val, err := env.eval(st.Value, fr)
		if err != nil {
			return ctrlNormal, Value{}, err
		}
		return ctrlReturn, val, nil

	case *compiler.BreakStmt:
		return ctrlBreak, Value{}, nil

	case *compiler.ExprStmt:
		_, err := env.eval(st.Expr, fr)
		return ctrlNormal, Value{}, err
	}
	return ctrlNormal, Value{}, runtimeErrorf(compiler.CodeBadArgument, stmt.Span(),
		"unexecutable statement")
}

func (env *Environment) evalCondition(expr compiler.Expr, fr *frame) (bool, *RuntimeError) {
	val, err := env.eval(expr, fr)
	if err != nil {
		return false, err
	}
	if val.Kind != KindBool {
		return false, runtimeErrorf(compiler.CodeBadArgument, expr.Span(),
			"condition evaluated to %s, want bool", val.Kind)
	}
	return val.B, nil
}

// assignTo writes a value through an assignment target. Field targets are
// resolved by rebuilding the composite from the leaf outward, since composite
// values copy on read.
func (env *Environment) assignTo(target compiler.Expr, val Value, fr *frame) *RuntimeError {
	switch t := target.(type) {
	case *compiler.Variable:
		current, ok := fr.lookup(t.Name)
		if !ok {
			current, ok = env.globals[t.Name]
			if !ok {
				return runtimeErrorf(compiler.CodeBadArgument, t.Span(),
					"assignment to undefined variable %q", t.Name)
			}
			converted, cok := Convert(val, current.TypeOf())
			if !cok {
				return runtimeErrorf(compiler.CodeBadArgument, t.Span(),
					"cannot assign %s to %s %q", val.Kind, current.Kind, t.Name)
			}
			env.globals[t.Name] = converted
			return nil
		}
		converted, cok := Convert(val, current.TypeOf())
		if !cok {
			return runtimeErrorf(compiler.CodeBadArgument, t.Span(),
				"cannot assign %s to %s %q", val.Kind, current.Kind, t.Name)
		}
		fr.set(t.Name, converted)
		return nil

	case *compiler.FieldAccess:
		base, err := env.eval(t.Base, fr)
		if err != nil {
			return err
		}
		current, ok := base.Field(t.Field)
		if !ok {
			return runtimeErrorf(compiler.CodeBadArgument, t.Span(),
				"%s has no field %q", base.Kind, t.Field)
		}
		converted, cok := Convert(val, current.TypeOf())
		if !cok {
			return runtimeErrorf(compiler.CodeBadArgument, t.Span(),
				"cannot assign %s to field %q of %s", val.Kind, t.Field, base.Kind)
		}
		updated, uok := base.WithField(t.Field, converted)
		if !uok {
			return runtimeErrorf(compiler.CodeBadArgument, t.Span(),
				"%s has no field %q", base.Kind, t.Field)
		}
		return env.assignTo(t.Base, updated, fr)
	}
	return runtimeErrorf(compiler.CodeBadArgument, target.Span(),
		"invalid assignment target")
}

func (env *Environment) eval(expr compiler.Expr, fr *frame) (Value, *RuntimeError) {
	switch e := expr.(type) {
	case *compiler.IntLiteral:
		return IntValue(e.Value), nil
	case *compiler.FloatLiteral:
		return FloatValue(e.Value), nil
	case *compiler.StringLiteral:
		return StringValue(e.Value), nil
	case *compiler.BoolLiteral:
		return BoolValue(e.Value), nil

	case *compiler.Variable:
		if v, ok := fr.lookup(e.Name); ok {
			return v, nil
		}
		if v, ok := env.globals[e.Name]; ok {
			return v, nil
		}
		return Value{}, runtimeErrorf(compiler.CodeBadArgument, e.Span(),
			"undefined variable %q", e.Name)

	case *compiler.UnaryExpr:
		return env.evalUnary(e, fr)

	case *compiler.BinaryExpr:
		return env.evalBinary(e, fr)

	case *compiler.CallExpr:
		return env.evalCall(e, fr)

	case *compiler.FieldAccess:
		base, err := env.eval(e.Base, fr)
		if err != nil {
			return Value{}, err
		}
		val, ok := base.Field(e.Field)
		if !ok {
			return Value{}, runtimeErrorf(compiler.CodeBadArgument, e.Span(),
				"%s has no field %q", base.Kind, e.Field)
		}
		return val, nil
	}
	return Value{}, runtimeErrorf(compiler.CodeBadArgument, expr.Span(),
		"unevaluable expression")
}

func (env *Environment) evalUnary(e *compiler.UnaryExpr, fr *frame) (Value, *RuntimeError) {
	val, err := env.eval(e.Operand, fr)
	if err != nil {
		return Value{}, err
	}
	switch e.Op {
	case compiler.OpNeg:
		switch val.Kind {
		case KindInt:
			return IntValue(-val.I), nil
		case KindFloat:
			return FloatValue(-val.F), nil
		}
	case compiler.OpNot:
		if val.Kind == KindBool {
			return BoolValue(!val.B), nil
		}
	}
	return Value{}, runtimeErrorf(compiler.CodeBadArgument, e.Span(),
		"operator %s cannot apply to %s", e.Op, val.Kind)
}

func (env *Environment) evalBinary(e *compiler.BinaryExpr, fr *frame) (Value, *RuntimeError) {
	// Logical operators short-circuit: the right operand only evaluates
	// when the left does not decide the result.
	if e.Op == compiler.OpAnd || e.Op == compiler.OpOr {
		lhs, err := env.evalCondition(e.LHS, fr)
		if err != nil {
			return Value{}, err
		}
		if e.Op == compiler.OpAnd && !lhs {
			return BoolValue(false), nil
		}
		if e.Op == compiler.OpOr && lhs {
			return BoolValue(true), nil
		}
		rhs, err := env.evalCondition(e.RHS, fr)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(rhs), nil
	}

	lhs, err := env.eval(e.LHS, fr)
	if err != nil {
		return Value{}, err
	}
	rhs, err := env.eval(e.RHS, fr)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case compiler.OpEq:
		return BoolValue(lhs.Equals(rhs)), nil
	case compiler.OpNotEq:
		return BoolValue(!lhs.Equals(rhs)), nil
	}

	if e.Op == compiler.OpAdd && lhs.Kind == KindString && rhs.Kind == KindString {
		return StringValue(lhs.S + rhs.S), nil
	}

	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		return env.evalIntOp(e, lhs.I, rhs.I)
	}
	lf, lok := asFloat(lhs)
	rf, rok := asFloat(rhs)
	if lok && rok {
		return evalFloatOp(e.Op, lf, rf), nil
	}
	return Value{}, runtimeErrorf(compiler.CodeBadArgument, e.Span(),
		"operator %s cannot apply to %s and %s", e.Op, lhs.Kind, rhs.Kind)
}

func asFloat(v Value) (float32, bool) {
	switch v.Kind {
	case KindInt:
		return float32(v.I), true
	case KindFloat:
		return v.F, true
	}
	return 0, false
}

func (env *Environment) evalIntOp(e *compiler.BinaryExpr, a, b int32) (Value, *RuntimeError) {
	switch e.Op {
	case compiler.OpAdd:
		return IntValue(a + b), nil
	case compiler.OpSub:
		return IntValue(a - b), nil
	case compiler.OpMul:
		return IntValue(a * b), nil
	case compiler.OpDiv:
		if b == 0 {
			return Value{}, runtimeErrorf(compiler.CodeDivisionByZero, e.Span(),
				"division by zero")
		}
		return IntValue(a / b), nil
	case compiler.OpMod:
		if b == 0 {
			return Value{}, runtimeErrorf(compiler.CodeDivisionByZero, e.Span(),
				"modulo by zero")
		}
		return IntValue(a % b), nil
	case compiler.OpLess:
		return BoolValue(a < b), nil
	case compiler.OpLessEq:
		return BoolValue(a <= b), nil
	case compiler.OpGreater:
		return BoolValue(a > b), nil
	case compiler.OpGreaterEq:
		return BoolValue(a >= b), nil
	}
	return Value{}, runtimeErrorf(compiler.CodeBadArgument, e.Span(),
		"operator %s cannot apply to i32", e.Op)
}

// evalFloatOp follows IEEE semantics; float division by zero yields infinity
// or NaN rather than an error.
func evalFloatOp(op compiler.BinOp, a, b float32) Value {
	switch op {
	case compiler.OpAdd:
		return FloatValue(a + b)
	case compiler.OpSub:
		return FloatValue(a - b)
	case compiler.OpMul:
		return FloatValue(a * b)
	case compiler.OpDiv:
		return FloatValue(a / b)
	case compiler.OpLess:
		return BoolValue(a < b)
	case compiler.OpLessEq:
		return BoolValue(a <= b)
	case compiler.OpGreater:
		return BoolValue(a > b)
	case compiler.OpGreaterEq:
		return BoolValue(a >= b)
	}
	return NilValue()
}

func (env *Environment) evalCall(e *compiler.CallExpr, fr *frame) (Value, *RuntimeError) {
	if fn := env.unit.Program.FindFunction(e.Callee); fn != nil {
		args := make([]Value, len(e.Args))
		for i, argExpr := range e.Args {
			val, err := env.eval(argExpr, fr)
			if err != nil {
				return Value{}, err
			}
			t, _ := compiler.TypeByName(fn.Params[i].Type.Name)
			converted, ok := Convert(val, t)
			if !ok {
				return Value{}, runtimeErrorf(compiler.CodeBadArgument, argExpr.Span(),
					"argument %d of %s: got %s, want %s", i+1, e.Callee, val.Kind, t)
			}
			args[i] = converted
		}
		return env.call(fn, args)
	}

	args := make([]Value, len(e.Args))
	for i, argExpr := range e.Args {
		val, err := env.eval(argExpr, fr)
		if err != nil {
			return Value{}, err
		}
		args[i] = val
	}
	return env.callBuiltin(e, args)
}

func (env *Environment) callBuiltin(e *compiler.CallExpr, args []Value) (Value, *RuntimeError) {
	span := e.Span()
	switch e.Callee {
	case "print":
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		env.printLine(strings.Join(parts, " "))
		return NilValue(), nil

	case "get_node":
		// The empty path is rejected before the host is consulted.
		if args[0].S == "" {
			return Value{}, runtimeErrorf(compiler.CodeEmptyNodePath, span,
				"get_node requires a non-empty node path")
		}
		if env.host.GetNode == nil {
			return Value{}, env.noCallback("get_node", span)
		}
		handle, ok := env.host.GetNode(args[0].S)
		if !ok {
			return NodeValue(nil), nil
		}
		return NodeValue(handle), nil

	case "get_parent":
		if env.host.GetParent == nil {
			return Value{}, env.noCallback("get_parent", span)
		}
		handle, ok := env.host.GetParent()
		if !ok {
			return NodeValue(nil), nil
		}
		return NodeValue(handle), nil

	case "has_node":
		if env.host.HasNode == nil {
			return Value{}, env.noCallback("has_node", span)
		}
		return BoolValue(env.host.HasNode(args[0].S)), nil

	case "find_child":
		if env.host.FindChild == nil {
			return Value{}, env.noCallback("find_child", span)
		}
		handle, ok := env.host.FindChild(args[0].S)
		if !ok {
			return NodeValue(nil), nil
		}
		return NodeValue(handle), nil

	case "emit_signal":
		if env.host.EmitSignal == nil {
			return Value{}, env.noCallback("emit_signal", span)
		}
		if err := env.host.EmitSignal(args[0].S, args[1:]); err != nil {
			return Value{}, runtimeErrorf(compiler.CodeBadArgument, span,
				"emit_signal %q failed: %v", args[0].S, err)
		}
		return NilValue(), nil

	case "Vector2":
		return Vector2Value(Vector2{X: toF32(args[0]), Y: toF32(args[1])}), nil
	case "Color":
		return ColorValue(Color{
			R: toF32(args[0]), G: toF32(args[1]), B: toF32(args[2]), A: toF32(args[3]),
		}), nil
	case "Rect2":
		return Rect2Value(Rect2{
			Position: args[0].Vector2(), Size: args[1].Vector2(),
		}), nil
	case "Transform2D":
		return Transform2DValue(Transform2D{
			Origin: args[0].Vector2(), XAxis: args[1].Vector2(), YAxis: args[2].Vector2(),
		}), nil
	}
	return Value{}, runtimeErrorf(compiler.CodeNoSuchFunction, span,
		"unknown function %q", e.Callee)
}

func toF32(v Value) float32 {
	if v.Kind == KindInt {
		return float32(v.I)
	}
	return v.F
}

func (env *Environment) noCallback(name string, span compiler.Span) *RuntimeError {
	return runtimeErrorf(compiler.CodeNoHostCallback, span,
		"host provides no %s callback", name)
}
