package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Type Checker: scope-aware static typing with diagnostic suggestions
// ---------------------------------------------------------------------------

// Checker validates a parsed Program. It never mutates the AST, so
// re-running Check on an unchanged Program yields an identical diagnostic
// set and a checked Program can be shared read-only.
type Checker struct {
	prog  *Program
	diags []Diagnostic

	// scopes is the active scope stack; index 0 is the global scope.
	scopes []*scope

	funcs map[string]*signature

	// current function context
	returnType Type
	loopDepth  int
}

type varInfo struct {
	typ     Type
	mutable bool
}

type scope struct {
	vars map[string]varInfo
}

type signature struct {
	fn         *Function
	params     []Type
	returnType Type
}

// NewChecker creates a checker for the given program.
func NewChecker(prog *Program) *Checker {
	return &Checker{
		prog:  prog,
		funcs: make(map[string]*signature),
	}
}

// Check runs a full pass over the program and returns every diagnostic
// found. The pass never aborts early so one compile reports every
// independent type error.
func Check(prog *Program) []Diagnostic {
	c := NewChecker(prog)
	c.run()
	return c.diags
}

func (c *Checker) run() {
	c.scopes = []*scope{{vars: make(map[string]varInfo)}}

	c.declareGlobals()
	c.declareFunctions()

	for _, fn := range c.prog.Functions {
		c.checkFunction(fn)
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (c *Checker) declareGlobals() {
	global := c.scopes[0]
	for _, g := range c.prog.Globals {
		if _, exists := global.vars[g.Name]; exists {
			c.errorf(CodeDuplicateName, g.SpanVal, "", "duplicate global variable %q", g.Name)
			continue
		}

		// The initializer is inferred before the name enters scope, so a
		// global cannot reference itself, only earlier declarations.
		typ := c.resolveType(g.Type)
		if typ != TypeInvalid {
			initType := c.inferExpr(g.Init)
			if initType != TypeInvalid && !assignable(initType, typ) {
				c.errorf(CodeTypeMismatch, g.Init.Span(), "",
					"type mismatch: global %q declared as %s but initialized with %s",
					g.Name, typ, initType)
			}
		}
		global.vars[g.Name] = varInfo{typ: typ, mutable: g.Mutable}
	}
}

func (c *Checker) declareFunctions() {
	for _, fn := range c.prog.Functions {
		if _, exists := c.funcs[fn.Name]; exists {
			c.errorf(CodeDuplicateName, fn.SpanVal, "", "duplicate function %q", fn.Name)
			continue
		}
		if _, isBuiltin := Builtins[fn.Name]; isBuiltin {
			c.errorf(CodeDuplicateName, fn.SpanVal, "",
				"function %q shadows a builtin", fn.Name)
			continue
		}

		sig := &signature{fn: fn, returnType: TypeVoid}
		if fn.ReturnType != nil {
			sig.returnType = c.resolveType(fn.ReturnType)
		}
		for _, p := range fn.Params {
			sig.params = append(sig.params, c.resolveType(p.Type))
		}
		c.funcs[fn.Name] = sig
	}
}

// resolveType resolves a type name, attaching suggestions on failure. void
// is only valid as a return type, which TypeRef callers all permit.
func (c *Checker) resolveType(ref *TypeRef) Type {
	if ref == nil {
		return TypeVoid
	}
	if t, ok := TypeByName(ref.Name); ok {
		return t
	}

	suggestion := c.suggestFrom(ref.Name, TypeNames(), 0)
	c.errorf(CodeUndefinedType, ref.SpanVal, suggestion, "undefined type %q", ref.Name)
	return TypeInvalid
}

// ---------------------------------------------------------------------------
// Function bodies
// ---------------------------------------------------------------------------

func (c *Checker) checkFunction(fn *Function) {
	sig := c.funcs[fn.Name]
	if sig == nil {
		return // duplicate, already reported
	}

	c.returnType = sig.returnType
	c.loopDepth = 0

	c.pushScope()
	for i, p := range fn.Params {
		c.currentScope().vars[p.Name] = varInfo{typ: sig.params[i], mutable: false}
	}

	c.checkStatements(fn.Body)
	c.popScope()
}

func (c *Checker) checkStatements(stmts []Stmt) {
	for _, stmt := range stmts {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkStmt(stmt Stmt) {
	switch st := stmt.(type) {
	case *LetStmt:
		typ := c.resolveType(st.Type)
		initType := c.inferExpr(st.Init)
		if typ != TypeInvalid && initType != TypeInvalid && !assignable(initType, typ) {
			c.errorf(CodeTypeMismatch, st.Init.Span(), "",
				"type mismatch: %q declared as %s but initialized with %s",
				st.Name, typ, initType)
		}
		// Shadowing in inner scopes is permitted; redeclaration in the
		// same scope is not.
		if _, exists := c.currentScope().vars[st.Name]; exists {
			c.errorf(CodeDuplicateName, st.SpanVal, "",
				"%q is already declared in this scope", st.Name)
		}
		c.currentScope().vars[st.Name] = varInfo{typ: typ, mutable: st.Mutable}

	case *AssignStmt:
		c.checkAssign(st)

	case *IfStmt:
		c.checkCondition(st.Cond, "if")
		c.pushScope()
		c.checkStatements(st.Then)
		c.popScope()
		if st.Else != nil {
			c.pushScope()
			c.checkStatements(st.Else)
			c.popScope()
		}

	case *WhileStmt:
		c.checkCondition(st.Cond, "while")
		c.loopDepth++
		c.pushScope()
		c.checkStatements(st.Body)
		c.popScope()
		c.loopDepth--

	case *ReturnStmt:
		c.checkReturn(st)

	case *BreakStmt:
		if c.loopDepth == 0 {
			c.errorf(CodeBreakOutsideLoop, st.SpanVal, "", "break outside of a loop")
		}

	case *ExprStmt:
		c.inferExpr(st.Expr)
	}
}

func (c *Checker) checkCondition(cond Expr, construct string) {
	t := c.inferExpr(cond)
	if t != TypeInvalid && t != TypeBool {
		c.errorf(CodeBadCondition, cond.Span(), "",
			"%s condition must be bool, found %s", construct, t)
	}
}

// checkReturn validates one return site against the declared return type.
// Every reachable return statement is visited, not just the first.
func (c *Checker) checkReturn(st *ReturnStmt) {
	if st.Value == nil {
		if c.returnType != TypeVoid && c.returnType != TypeInvalid {
			c.errorf(CodeBadReturn, st.SpanVal, "",
				"missing return value: function returns %s", c.returnType)
		}
		return
	}

	valType := c.inferExpr(st.Value)
	if c.returnType == TypeVoid {
		c.errorf(CodeBadReturn, st.SpanVal, "",
			"unexpected return value in void function")
		return
	}
	if valType != TypeInvalid && c.returnType != TypeInvalid && !assignable(valType, c.returnType) {
		c.errorf(CodeBadReturn, st.Value.Span(), "",
			"return type mismatch: expected %s, found %s", c.returnType, valType)
	}
}

func (c *Checker) checkAssign(st *AssignStmt) {
	valType := c.inferExpr(st.Value)

	switch target := st.Target.(type) {
	case *Variable:
		info, _, ok := c.lookupVar(target.Name)
		if !ok {
			c.reportUndefinedVar(target)
			return
		}
		if !info.mutable {
			c.errorf(CodeImmutableAssign, target.SpanVal, "",
				"cannot assign to immutable variable %q (declare it with 'let mut')",
				target.Name)
		}
		if valType != TypeInvalid && info.typ != TypeInvalid && !assignable(valType, info.typ) {
			c.errorf(CodeTypeMismatch, st.Value.Span(), "",
				"type mismatch: cannot assign %s to %q of type %s",
				valType, target.Name, info.typ)
		}

	case *FieldAccess:
		fieldType := c.inferExpr(target)
		c.checkFieldAssignRoot(target)
		if valType != TypeInvalid && fieldType != TypeInvalid && !assignable(valType, fieldType) {
			c.errorf(CodeTypeMismatch, st.Value.Span(), "",
				"type mismatch: cannot assign %s to field of type %s",
				valType, fieldType)
		}

	default:
		// The parser rejects other targets already.
		c.errorf(CodeBadAssignTarget, st.Target.Span(), "", "invalid assignment target")
	}
}

// checkFieldAssignRoot requires the root variable of a field write to be
// mutable.
func (c *Checker) checkFieldAssignRoot(fa *FieldAccess) {
	base := Expr(fa)
	for {
		inner, ok := base.(*FieldAccess)
		if !ok {
			break
		}
		base = inner.Base
	}
	v, ok := base.(*Variable)
	if !ok {
		return
	}
	if info, _, found := c.lookupVar(v.Name); found && !info.mutable {
		c.errorf(CodeImmutableAssign, fa.SpanVal, "",
			"cannot assign through immutable variable %q (declare it with 'let mut')",
			v.Name)
	}
}

// ---------------------------------------------------------------------------
// Expression inference
// ---------------------------------------------------------------------------

// inferExpr resolves the type of an expression, reporting diagnostics for
// failures. TypeInvalid poisons outward so one root cause yields one error.
func (c *Checker) inferExpr(expr Expr) Type {
	switch e := expr.(type) {
	case *IntLiteral:
		return TypeI32
	case *FloatLiteral:
		return TypeF32
	case *StringLiteral:
		return TypeString
	case *BoolLiteral:
		return TypeBool

	case *Variable:
		info, _, ok := c.lookupVar(e.Name)
		if !ok {
			c.reportUndefinedVar(e)
			return TypeInvalid
		}
		return info.typ

	case *UnaryExpr:
		return c.inferUnary(e)

	case *BinaryExpr:
		return c.inferBinary(e)

	case *CallExpr:
		return c.inferCall(e)

	case *FieldAccess:
		return c.inferField(e)
	}
	return TypeInvalid
}

func (c *Checker) inferUnary(e *UnaryExpr) Type {
	t := c.inferExpr(e.Operand)
	if t == TypeInvalid {
		return TypeInvalid
	}
	switch e.Op {
	case OpNeg:
		if !t.IsNumeric() {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator - requires a numeric operand, found %s", t)
			return TypeInvalid
		}
		return t
	case OpNot:
		if t != TypeBool {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator ! requires a bool operand, found %s", t)
			return TypeInvalid
		}
		return TypeBool
	}
	return TypeInvalid
}

func (c *Checker) inferBinary(e *BinaryExpr) Type {
	lhs := c.inferExpr(e.LHS)
	rhs := c.inferExpr(e.RHS)
	if lhs == TypeInvalid || rhs == TypeInvalid {
		return TypeInvalid
	}

	switch e.Op {
	case OpAdd:
		// String + String concatenates; nothing is auto-coerced to String.
		if lhs == TypeString && rhs == TypeString {
			return TypeString
		}
		fallthrough
	case OpSub, OpMul, OpDiv, OpMod:
		if !lhs.IsNumeric() || !rhs.IsNumeric() {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator %s requires numeric operands, found %s and %s", e.Op, lhs, rhs)
			return TypeInvalid
		}
		if e.Op == OpMod && (lhs != TypeI32 || rhs != TypeI32) {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator %% requires i32 operands, found %s and %s", lhs, rhs)
			return TypeInvalid
		}
		return Promote(lhs, rhs)

	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
		if !lhs.IsNumeric() || !rhs.IsNumeric() {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator %s requires numeric operands, found %s and %s", e.Op, lhs, rhs)
			return TypeInvalid
		}
		return TypeBool

	case OpEq, OpNotEq:
		comparable := lhs == rhs || (lhs.IsNumeric() && rhs.IsNumeric())
		if !comparable {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator %s cannot compare %s with %s", e.Op, lhs, rhs)
			return TypeInvalid
		}
		return TypeBool

	case OpAnd, OpOr:
		if lhs != TypeBool || rhs != TypeBool {
			c.errorf(CodeBadOperands, e.SpanVal, "",
				"operator %s requires bool operands, found %s and %s", e.Op, lhs, rhs)
			return TypeInvalid
		}
		return TypeBool
	}
	return TypeInvalid
}

func (c *Checker) inferCall(e *CallExpr) Type {
	if sig, ok := Builtins[e.Callee]; ok {
		return c.inferBuiltinCall(e, sig)
	}

	sig, ok := c.funcs[e.Callee]
	if !ok {
		candidates := make([]string, 0, len(c.funcs)+len(Builtins))
		for name := range c.funcs {
			candidates = append(candidates, name)
		}
		candidates = append(candidates, BuiltinNames()...)
		suggestion := c.suggestFrom(e.Callee, candidates, 0)
		c.errorf(CodeUndefinedFunction, e.SpanVal, suggestion,
			"undefined function %q", e.Callee)
		return TypeInvalid
	}

	if len(e.Args) != len(sig.params) {
		c.errorf(CodeArityMismatch, e.SpanVal, "",
			"%s expects %d argument(s), found %d", e.Callee, len(sig.params), len(e.Args))
		// Still infer arguments for their own errors.
		for _, arg := range e.Args {
			c.inferExpr(arg)
		}
		return sig.returnType
	}

	for i, arg := range e.Args {
		argType := c.inferExpr(arg)
		want := sig.params[i]
		if argType != TypeInvalid && want != TypeInvalid && !assignable(argType, want) {
			c.errorf(CodeTypeMismatch, arg.Span(), "",
				"argument %d of %s: expected %s, found %s", i+1, e.Callee, want, argType)
		}
	}
	return sig.returnType
}

func (c *Checker) inferBuiltinCall(e *CallExpr, sig BuiltinSig) Type {
	minArgs := len(sig.Params)
	if sig.Variadic {
		if len(e.Args) < minArgs {
			c.errorf(CodeArityMismatch, e.SpanVal, "",
				"%s expects at least %d argument(s), found %d", e.Callee, minArgs, len(e.Args))
		}
	} else if len(e.Args) != minArgs {
		c.errorf(CodeArityMismatch, e.SpanVal, "",
			"%s expects %d argument(s), found %d", e.Callee, minArgs, len(e.Args))
	}

	for i, arg := range e.Args {
		argType := c.inferExpr(arg)
		if i < len(sig.Params) && argType != TypeInvalid && !assignable(argType, sig.Params[i]) {
			c.errorf(CodeTypeMismatch, arg.Span(), "",
				"argument %d of %s: expected %s, found %s", i+1, e.Callee, sig.Params[i], argType)
		}
	}

	// Signal names are a compile-time contract with the host: a literal,
	// never a runtime-computed value.
	if e.Callee == "emit_signal" && len(e.Args) > 0 {
		if _, isLit := e.Args[0].(*StringLiteral); !isLit {
			c.errorf(CodeSignalNotLiteral, e.Args[0].Span(), "",
				"signal name must be a string literal")
		}
	}

	return sig.Return
}

func (c *Checker) inferField(e *FieldAccess) Type {
	baseType := c.inferExpr(e.Base)
	if baseType == TypeInvalid {
		return TypeInvalid
	}

	t, ok := FieldType(baseType, e.Field)
	if !ok {
		suggestion := c.suggestFrom(e.Field, FieldNames(baseType), 0)
		c.errorf(CodeUnknownField, e.SpanVal, suggestion,
			"type %s has no field %q", baseType, e.Field)
		return TypeInvalid
	}
	return t
}

// ---------------------------------------------------------------------------
// Scope handling
// ---------------------------------------------------------------------------

func (c *Checker) pushScope() {
	c.scopes = append(c.scopes, &scope{vars: make(map[string]varInfo)})
}

func (c *Checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Checker) currentScope() *scope {
	return c.scopes[len(c.scopes)-1]
}

// lookupVar walks outward to the nearest enclosing declaration. The
// returned depth is 0 for the innermost scope.
func (c *Checker) lookupVar(name string) (varInfo, int, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if info, ok := c.scopes[i].vars[name]; ok {
			return info, len(c.scopes) - 1 - i, true
		}
	}
	return varInfo{}, 0, false
}

func (c *Checker) reportUndefinedVar(v *Variable) {
	var candidates []Candidate
	for i := len(c.scopes) - 1; i >= 0; i-- {
		depth := len(c.scopes) - 1 - i
		for name := range c.scopes[i].vars {
			candidates = append(candidates, Candidate{Name: name, Depth: depth})
		}
	}

	suggestion := formatSuggestion(Suggest(v.Name, candidates))
	c.errorf(CodeUndefinedVariable, v.SpanVal, suggestion,
		"undefined variable %q", v.Name)
}

// suggestFrom builds a suggestion string from a flat candidate list.
func (c *Checker) suggestFrom(name string, names []string, depth int) string {
	candidates := make([]Candidate, len(names))
	for i, n := range names {
		candidates[i] = Candidate{Name: n, Depth: depth}
	}
	return formatSuggestion(Suggest(name, candidates))
}

// formatSuggestion renders ranked candidates as a help annotation, empty
// when no candidate cleared the threshold.
func formatSuggestion(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("did you mean %q?", names[0])
	default:
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = fmt.Sprintf("%q", n)
		}
		return fmt.Sprintf("did you mean %s or %s?",
			strings.Join(quoted[:len(quoted)-1], ", "), quoted[len(quoted)-1])
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// assignable reports whether a value of type from may be stored where type
// to is expected. The only implicit conversion is the lossless numeric
// widening i32 -> f32.
func assignable(from, to Type) bool {
	if from == to {
		return true
	}
	return from == TypeI32 && to == TypeF32
}

func (c *Checker) errorf(code string, span Span, suggestion, format string, args ...interface{}) {
	c.diags = append(c.diags, Diagnostic{
		Code:       code,
		Phase:      PhaseType,
		Message:    fmt.Sprintf(format, args...),
		Span:       span,
		Suggestion: suggestion,
	})
}
