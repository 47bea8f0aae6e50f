package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for FerrisScript
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code. Start never follows End in
// document order.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a span from start and end positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	SpanVal Span
	Value   int32
}

func (n *IntLiteral) Span() Span { return n.SpanVal }
func (n *IntLiteral) node()      {}
func (n *IntLiteral) expr()      {}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	SpanVal Span
	Value   float32
}

func (n *FloatLiteral) Span() Span { return n.SpanVal }
func (n *FloatLiteral) node()      {}
func (n *FloatLiteral) expr()      {}

// StringLiteral represents a string literal.
type StringLiteral struct {
	SpanVal Span
	Value   string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// BoolLiteral represents a true or false literal.
type BoolLiteral struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// Variable represents a variable reference.
type Variable struct {
	SpanVal Span
	Name    string
}

func (n *Variable) Span() Span { return n.SpanVal }
func (n *Variable) node()      {}
func (n *Variable) expr()      {}

// BinOp identifies a binary operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpAnd
	OpOr
)

var binOpNames = map[BinOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "==", OpNotEq: "!=", OpLess: "<", OpLessEq: "<=",
	OpGreater: ">", OpGreaterEq: ">=", OpAnd: "&&", OpOr: "||",
}

func (op BinOp) String() string { return binOpNames[op] }

// BinaryExpr represents a binary operation (lhs op rhs).
type BinaryExpr struct {
	SpanVal Span
	Op      BinOp
	LHS     Expr
	RHS     Expr
}

func (n *BinaryExpr) Span() Span { return n.SpanVal }
func (n *BinaryExpr) node()      {}
func (n *BinaryExpr) expr()      {}

// UnOp identifies a unary operator.
type UnOp int

const (
	OpNeg UnOp = iota // -x
	OpNot             // !x
)

func (op UnOp) String() string {
	if op == OpNeg {
		return "-"
	}
	return "!"
}

// UnaryExpr represents a unary operation (op operand).
type UnaryExpr struct {
	SpanVal Span
	Op      UnOp
	Operand Expr
}

func (n *UnaryExpr) Span() Span { return n.SpanVal }
func (n *UnaryExpr) node()      {}
func (n *UnaryExpr) expr()      {}

// CallExpr represents a function call.
type CallExpr struct {
	SpanVal Span
	Callee  string
	Args    []Expr
}

func (n *CallExpr) Span() Span { return n.SpanVal }
func (n *CallExpr) node()      {}
func (n *CallExpr) expr()      {}

// FieldAccess represents a field access (base.field).
type FieldAccess struct {
	SpanVal Span
	Base    Expr
	Field   string
}

func (n *FieldAccess) Span() Span { return n.SpanVal }
func (n *FieldAccess) node()      {}
func (n *FieldAccess) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// LetStmt declares a local variable: let [mut] name: Type = expr;
type LetStmt struct {
	SpanVal Span
	Name    string
	Type    *TypeRef
	Mutable bool
	Init    Expr
}

func (n *LetStmt) Span() Span { return n.SpanVal }
func (n *LetStmt) node()      {}
func (n *LetStmt) stmt()      {}

// AssignStmt assigns to a variable or field: target = value;
type AssignStmt struct {
	SpanVal Span
	Target  Expr // *Variable or *FieldAccess
	Value   Expr
}

func (n *AssignStmt) Span() Span { return n.SpanVal }
func (n *AssignStmt) node()      {}
func (n *AssignStmt) stmt()      {}

// IfStmt represents if cond { ... } [else { ... }].
type IfStmt struct {
	SpanVal Span
	Cond    Expr
	Then    []Stmt
	Else    []Stmt // nil when there is no else branch
}

func (n *IfStmt) Span() Span { return n.SpanVal }
func (n *IfStmt) node()      {}
func (n *IfStmt) stmt()      {}

// WhileStmt represents while cond { ... }.
type WhileStmt struct {
	SpanVal Span
	Cond    Expr
	Body    []Stmt
}

func (n *WhileStmt) Span() Span { return n.SpanVal }
func (n *WhileStmt) node()      {}
func (n *WhileStmt) stmt()      {}

// ReturnStmt represents return [expr];
type ReturnStmt struct {
	SpanVal Span
	Value   Expr // nil for a bare return
}

func (n *ReturnStmt) Span() Span { return n.SpanVal }
func (n *ReturnStmt) node()      {}
func (n *ReturnStmt) stmt()      {}

// BreakStmt represents break; inside a while loop.
type BreakStmt struct {
	SpanVal Span
}

func (n *BreakStmt) Span() Span { return n.SpanVal }
func (n *BreakStmt) node()      {}
func (n *BreakStmt) stmt()      {}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	SpanVal Span
	Expr    Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}

// ---------------------------------------------------------------------------
// Declarations and top-level structure
// ---------------------------------------------------------------------------

// TypeRef is a type name as written in source, resolved by the type checker.
type TypeRef struct {
	SpanVal Span
	Name    string
}

func (n *TypeRef) Span() Span { return n.SpanVal }
func (n *TypeRef) node()      {}

// RangeAnnotation carries the arguments of @export_range(min, max, step).
type RangeAnnotation struct {
	SpanVal Span
	Min     float64
	Max     float64
	Step    float64
}

func (n *RangeAnnotation) Span() Span { return n.SpanVal }
func (n *RangeAnnotation) node()      {}

// GlobalVar is a top-level variable declaration, optionally exported.
type GlobalVar struct {
	SpanVal  Span
	Name     string
	Type     *TypeRef
	Mutable  bool
	Exported bool
	Range    *RangeAnnotation // nil unless @export_range present
	Init     Expr
}

func (n *GlobalVar) Span() Span { return n.SpanVal }
func (n *GlobalVar) node()      {}

// Param is a function parameter.
type Param struct {
	SpanVal Span
	Name    string
	Type    *TypeRef
}

func (n *Param) Span() Span { return n.SpanVal }
func (n *Param) node()      {}

// Function is a function declaration.
type Function struct {
	SpanVal    Span
	Name       string
	Params     []*Param
	ReturnType *TypeRef // nil means void
	Body       []Stmt
}

func (n *Function) Span() Span { return n.SpanVal }
func (n *Function) node()      {}

// Program is a parsed source file: globals and functions in declaration
// order. Immutable after a successful Check; shared read-only by every
// runtime instance executing it.
type Program struct {
	SpanVal   Span
	Globals   []*GlobalVar
	Functions []*Function
}

func (n *Program) Span() Span { return n.SpanVal }
func (n *Program) node()      {}

// FindFunction returns the function with the given name, or nil.
func (n *Program) FindFunction(name string) *Function {
	for _, fn := range n.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
