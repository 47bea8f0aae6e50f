package compiler

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for FerrisScript
// ---------------------------------------------------------------------------

// maxParseErrors caps diagnostic accumulation so recovery always terminates
// on pathological input.
const maxParseErrors = 25

// Parser parses a token sequence into an AST with one token of lookahead.
type Parser struct {
	tokens []Token
	pos    int
	diags  []Diagnostic
	eof    Token
}

// NewParser creates a parser over the given tokens.
func NewParser(tokens []Token) *Parser {
	p := &Parser{tokens: tokens}
	if n := len(tokens); n > 0 {
		end := tokens[n-1].Span.End
		p.eof = Token{Type: TokenEOF, Span: MakeSpan(end, end)}
	}
	return p
}

// Parse parses tokens into a Program, collecting diagnostics with panic-mode
// recovery. A token sequence that is empty (blank or comments-only source)
// parses to an empty Program with zero diagnostics.
func Parse(tokens []Token) (*Program, []Diagnostic) {
	p := NewParser(tokens)
	prog := p.parseProgram()
	return prog, p.diags
}

// cur returns the current token, or a synthetic EOF past the end.
func (p *Parser) cur() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.eof
}

// peek returns the next token without consuming it.
func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.eof
}

// next advances to the next token.
func (p *Parser) next() { p.pos++ }

// curIs checks if the current token is of the given type.
func (p *Parser) curIs(t TokenType) bool { return p.cur().Type == t }

// expect consumes the current token if it matches, otherwise records a
// diagnostic and leaves the position unchanged.
func (p *Parser) expect(t TokenType) (Token, bool) {
	if p.curIs(t) {
		tok := p.cur()
		p.next()
		return tok, true
	}
	p.errorf(CodeExpectedToken, p.cur().Span, "expected %s, found %s", t, describeToken(p.cur()))
	return p.cur(), false
}

// atErrorCap reports whether the error cap has been reached.
func (p *Parser) atErrorCap() bool { return len(p.diags) >= maxParseErrors }

// errorf records a syntax diagnostic. At the cap a final E103 is appended
// and further errors are dropped.
func (p *Parser) errorf(code string, span Span, format string, args ...interface{}) {
	if len(p.diags) == maxParseErrors {
		return
	}
	if len(p.diags) == maxParseErrors-1 {
		p.diags = append(p.diags, Diagnostic{
			Code:    CodeTooManyErrors,
			Phase:   PhaseSyntax,
			Message: fmt.Sprintf("too many syntax errors, stopping after %d", maxParseErrors),
			Span:    span,
		})
		return
	}
	p.diags = append(p.diags, Diagnostic{
		Code:    code,
		Phase:   PhaseSyntax,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

func describeToken(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of file"
	case TokenIdentifier, TokenInt, TokenFloat:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case TokenString:
		return "string literal"
	default:
		return fmt.Sprintf("%q", tok.Literal)
	}
}

// synchronize discards tokens until a statement boundary: a semicolon (which
// is consumed), a closing brace, or a keyword that can start a statement or
// declaration.
func (p *Parser) synchronize() {
	for !p.curIs(TokenEOF) {
		switch p.cur().Type {
		case TokenSemicolon:
			p.next()
			return
		case TokenRBrace, TokenLet, TokenIf, TokenWhile, TokenReturn,
			TokenBreak, TokenFn, TokenAnnotation:
			return
		}
		p.next()
	}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() *Program {
	prog := &Program{}
	start := p.cur().Span.Start

	for !p.curIs(TokenEOF) && !p.atErrorCap() {
		switch p.cur().Type {
		case TokenAnnotation, TokenLet:
			g := p.parseGlobalVar()
			if g != nil {
				prog.Globals = append(prog.Globals, g)
			} else {
				p.synchronize()
			}

		case TokenFn:
			fn := p.parseFunction()
			if fn != nil {
				prog.Functions = append(prog.Functions, fn)
			} else {
				p.synchronize()
			}

		default:
			p.errorf(CodeUnexpectedToken, p.cur().Span,
				"expected declaration, found %s", describeToken(p.cur()))
			p.next()
			p.synchronize()
		}
	}

	prog.SpanVal = MakeSpan(start, p.cur().Span.End)
	return prog
}

// parseGlobalVar parses [@export | @export_range(...)] let [mut] name: Type = expr;
func (p *Parser) parseGlobalVar() *GlobalVar {
	start := p.cur().Span.Start
	g := &GlobalVar{}

	for p.curIs(TokenAnnotation) {
		tok := p.cur()
		switch tok.Literal {
		case "export":
			g.Exported = true
			p.next()
		case "export_range":
			g.Exported = true
			p.next()
			r := p.parseRangeAnnotation(tok.Span.Start)
			if r == nil {
				return nil
			}
			g.Range = r
		default:
			p.errorf(CodeBadAnnotation, tok.Span, "unknown annotation @%s", tok.Literal)
			p.next()
		}
	}

	if _, ok := p.expect(TokenLet); !ok {
		return nil
	}

	if p.curIs(TokenMut) {
		g.Mutable = true
		p.next()
	}

	nameTok, ok := p.expect(TokenIdentifier)
	if !ok {
		return nil
	}
	g.Name = nameTok.Literal

	if _, ok := p.expect(TokenColon); !ok {
		return nil
	}
	g.Type = p.parseTypeRef()
	if g.Type == nil {
		return nil
	}

	if _, ok := p.expect(TokenAssign); !ok {
		return nil
	}
	g.Init = p.parseExpr(0)
	if g.Init == nil {
		return nil
	}

	endTok, ok := p.expect(TokenSemicolon)
	if !ok {
		return nil
	}

	g.SpanVal = MakeSpan(start, endTok.Span.End)
	return g
}

// parseRangeAnnotation parses (min, max[, step]) after @export_range.
func (p *Parser) parseRangeAnnotation(start Position) *RangeAnnotation {
	if _, ok := p.expect(TokenLParen); !ok {
		return nil
	}

	min, ok := p.parseNumberArg()
	if !ok {
		return nil
	}
	if _, ok := p.expect(TokenComma); !ok {
		return nil
	}
	max, ok := p.parseNumberArg()
	if !ok {
		return nil
	}

	step := 0.0
	if p.curIs(TokenComma) {
		p.next()
		step, ok = p.parseNumberArg()
		if !ok {
			return nil
		}
	}

	endTok, ok := p.expect(TokenRParen)
	if !ok {
		return nil
	}

	return &RangeAnnotation{
		SpanVal: MakeSpan(start, endTok.Span.End),
		Min:     min,
		Max:     max,
		Step:    step,
	}
}

// parseNumberArg parses a possibly negated numeric annotation argument.
func (p *Parser) parseNumberArg() (float64, bool) {
	neg := false
	if p.curIs(TokenMinus) {
		neg = true
		p.next()
	}
	tok := p.cur()
	if tok.Type != TokenInt && tok.Type != TokenFloat {
		p.errorf(CodeBadAnnotation, tok.Span,
			"expected numeric annotation argument, found %s", describeToken(tok))
		return 0, false
	}
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf(CodeMalformedNumber, tok.Span, "invalid number: %s", tok.Literal)
		return 0, false
	}
	p.next()
	if neg {
		v = -v
	}
	return v, true
}

// parseFunction parses fn name(params) [-> Type] { body }.
func (p *Parser) parseFunction() *Function {
	start := p.cur().Span.Start
	p.next() // consume fn

	nameTok, ok := p.expect(TokenIdentifier)
	if !ok {
		return nil
	}
	fn := &Function{Name: nameTok.Literal}

	if _, ok := p.expect(TokenLParen); !ok {
		return nil
	}
	for !p.curIs(TokenRParen) && !p.curIs(TokenEOF) {
		param := p.parseParam()
		if param == nil {
			return nil
		}
		fn.Params = append(fn.Params, param)
		if p.curIs(TokenComma) {
			p.next()
		} else {
			break
		}
	}
	if _, ok := p.expect(TokenRParen); !ok {
		return nil
	}

	if p.curIs(TokenArrow) {
		p.next()
		fn.ReturnType = p.parseTypeRef()
		if fn.ReturnType == nil {
			return nil
		}
	}

	body, endPos, ok := p.parseBlock()
	if !ok {
		return nil
	}
	fn.Body = body
	fn.SpanVal = MakeSpan(start, endPos)
	return fn
}

// parseParam parses name: Type.
func (p *Parser) parseParam() *Param {
	nameTok, ok := p.expect(TokenIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(TokenColon); !ok {
		return nil
	}
	t := p.parseTypeRef()
	if t == nil {
		return nil
	}
	return &Param{
		SpanVal: MakeSpan(nameTok.Span.Start, t.SpanVal.End),
		Name:    nameTok.Literal,
		Type:    t,
	}
}

// parseTypeRef parses a type name.
func (p *Parser) parseTypeRef() *TypeRef {
	tok, ok := p.expect(TokenIdentifier)
	if !ok {
		return nil
	}
	return &TypeRef{SpanVal: tok.Span, Name: tok.Literal}
}

// ---------------------------------------------------------------------------
// Statement parsing
// ---------------------------------------------------------------------------

// parseBlock parses { stmt* } and returns the statements and the position
// after the closing brace. Statement errors are recovered inside the block.
func (p *Parser) parseBlock() ([]Stmt, Position, bool) {
	if _, ok := p.expect(TokenLBrace); !ok {
		return nil, p.cur().Span.End, false
	}

	var stmts []Stmt
	for !p.curIs(TokenRBrace) && !p.curIs(TokenEOF) && !p.atErrorCap() {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.synchronize()
		}
	}

	endTok, ok := p.expect(TokenRBrace)
	if !ok {
		return stmts, p.cur().Span.End, false
	}
	return stmts, endTok.Span.End, true
}

// parseStatement parses a single statement.
func (p *Parser) parseStatement() Stmt {
	switch p.cur().Type {
	case TokenLet:
		return p.parseLet()
	case TokenReturn:
		return p.parseReturn()
	case TokenBreak:
		return p.parseBreak()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	default:
		return p.parseExprOrAssign()
	}
}

// parseLet parses let [mut] name: Type = expr;
func (p *Parser) parseLet() Stmt {
	start := p.cur().Span.Start
	p.next() // consume let

	mutable := false
	if p.curIs(TokenMut) {
		mutable = true
		p.next()
	}

	nameTok, ok := p.expect(TokenIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(TokenColon); !ok {
		return nil
	}
	t := p.parseTypeRef()
	if t == nil {
		return nil
	}
	if _, ok := p.expect(TokenAssign); !ok {
		return nil
	}
	init := p.parseExpr(0)
	if init == nil {
		return nil
	}
	endTok, ok := p.expect(TokenSemicolon)
	if !ok {
		return nil
	}

	return &LetStmt{
		SpanVal: MakeSpan(start, endTok.Span.End),
		Name:    nameTok.Literal,
		Type:    t,
		Mutable: mutable,
		Init:    init,
	}
}

// parseReturn parses return [expr];
func (p *Parser) parseReturn() Stmt {
	start := p.cur().Span.Start
	p.next() // consume return

	var value Expr
	if !p.curIs(TokenSemicolon) {
		value = p.parseExpr(0)
		if value == nil {
			return nil
		}
	}
	endTok, ok := p.expect(TokenSemicolon)
	if !ok {
		return nil
	}
	return &ReturnStmt{SpanVal: MakeSpan(start, endTok.Span.End), Value: value}
}

// parseBreak parses break;
func (p *Parser) parseBreak() Stmt {
	start := p.cur().Span.Start
	p.next() // consume break
	endTok, ok := p.expect(TokenSemicolon)
	if !ok {
		return nil
	}
	return &BreakStmt{SpanVal: MakeSpan(start, endTok.Span.End)}
}

// parseIf parses if cond { ... } [else if ... | else { ... }].
func (p *Parser) parseIf() Stmt {
	start := p.cur().Span.Start
	p.next() // consume if

	cond := p.parseExpr(0)
	if cond == nil {
		return nil
	}
	then, endPos, ok := p.parseBlock()
	if !ok {
		return nil
	}

	stmt := &IfStmt{Cond: cond, Then: then}

	if p.curIs(TokenElse) {
		p.next()
		if p.curIs(TokenIf) {
			// else-if chains nest as a single-statement else branch
			inner := p.parseIf()
			if inner == nil {
				return nil
			}
			stmt.Else = []Stmt{inner}
			endPos = inner.Span().End
		} else {
			var elseStmts []Stmt
			elseStmts, endPos, ok = p.parseBlock()
			if !ok {
				return nil
			}
			if elseStmts == nil {
				elseStmts = []Stmt{}
			}
			stmt.Else = elseStmts
		}
	}

	stmt.SpanVal = MakeSpan(start, endPos)
	return stmt
}

// parseWhile parses while cond { ... }.
func (p *Parser) parseWhile() Stmt {
	start := p.cur().Span.Start
	p.next() // consume while

	cond := p.parseExpr(0)
	if cond == nil {
		return nil
	}
	body, endPos, ok := p.parseBlock()
	if !ok {
		return nil
	}
	return &WhileStmt{SpanVal: MakeSpan(start, endPos), Cond: cond, Body: body}
}

// parseExprOrAssign parses either expr; or target = value;
func (p *Parser) parseExprOrAssign() Stmt {
	start := p.cur().Span.Start
	expr := p.parseExpr(0)
	if expr == nil {
		return nil
	}

	if p.curIs(TokenAssign) {
		switch expr.(type) {
		case *Variable, *FieldAccess:
			// valid assignment target
		default:
			p.errorf(CodeBadAssignTarget, expr.Span(),
				"invalid assignment target: expected variable or field")
			return nil
		}
		p.next() // consume =
		value := p.parseExpr(0)
		if value == nil {
			return nil
		}
		endTok, ok := p.expect(TokenSemicolon)
		if !ok {
			return nil
		}
		return &AssignStmt{
			SpanVal: MakeSpan(start, endTok.Span.End),
			Target:  expr,
			Value:   value,
		}
	}

	endTok, ok := p.expect(TokenSemicolon)
	if !ok {
		return nil
	}
	return &ExprStmt{SpanVal: MakeSpan(start, endTok.Span.End), Expr: expr}
}

// ---------------------------------------------------------------------------
// Expression parsing (precedence climbing)
// ---------------------------------------------------------------------------

// binaryPrec maps operator tokens to precedence levels. Higher binds
// tighter: arithmetic > comparison > logical.
var binaryPrec = map[TokenType]int{
	TokenOr:        1,
	TokenAnd:       2,
	TokenEq:        3,
	TokenNotEq:     3,
	TokenLess:      4,
	TokenLessEq:    4,
	TokenGreater:   4,
	TokenGreaterEq: 4,
	TokenPlus:      5,
	TokenMinus:     5,
	TokenStar:      6,
	TokenSlash:     6,
	TokenPercent:   6,
}

var binaryOps = map[TokenType]BinOp{
	TokenOr:        OpOr,
	TokenAnd:       OpAnd,
	TokenEq:        OpEq,
	TokenNotEq:     OpNotEq,
	TokenLess:      OpLess,
	TokenLessEq:    OpLessEq,
	TokenGreater:   OpGreater,
	TokenGreaterEq: OpGreaterEq,
	TokenPlus:      OpAdd,
	TokenMinus:     OpSub,
	TokenStar:      OpMul,
	TokenSlash:     OpDiv,
	TokenPercent:   OpMod,
}

// parseExpr parses a binary expression with precedence climbing. All binary
// operators are left-associative.
func (p *Parser) parseExpr(minPrec int) Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		prec, ok := binaryPrec[p.cur().Type]
		if !ok || prec < minPrec {
			return left
		}
		op := binaryOps[p.cur().Type]
		p.next()

		right := p.parseExpr(prec + 1)
		if right == nil {
			return nil
		}
		left = &BinaryExpr{
			SpanVal: MakeSpan(left.Span().Start, right.Span().End),
			Op:      op,
			LHS:     left,
			RHS:     right,
		}
	}
}

// parseUnary parses -expr, !expr, or a postfix expression.
func (p *Parser) parseUnary() Expr {
	switch p.cur().Type {
	case TokenMinus:
		start := p.cur().Span.Start
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &UnaryExpr{
			SpanVal: MakeSpan(start, operand.Span().End),
			Op:      OpNeg,
			Operand: operand,
		}
	case TokenBang:
		start := p.cur().Span.Start
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &UnaryExpr{
			SpanVal: MakeSpan(start, operand.Span().End),
			Op:      OpNot,
			Operand: operand,
		}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by field accesses.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for p.curIs(TokenDot) {
		p.next() // consume .
		fieldTok, ok := p.expect(TokenIdentifier)
		if !ok {
			return nil
		}
		expr = &FieldAccess{
			SpanVal: MakeSpan(expr.Span().Start, fieldTok.Span.End),
			Base:    expr,
			Field:   fieldTok.Literal,
		}
	}
	return expr
}

// parsePrimary parses literals, variables, calls, and parenthesized
// expressions.
func (p *Parser) parsePrimary() Expr {
	tok := p.cur()
	switch tok.Type {
	case TokenInt:
		v, err := strconv.ParseInt(tok.Literal, 10, 32)
		if err != nil {
			p.errorf(CodeMalformedNumber, tok.Span, "integer out of range: %s", tok.Literal)
			p.next()
			return nil
		}
		p.next()
		return &IntLiteral{SpanVal: tok.Span, Value: int32(v)}

	case TokenFloat:
		v, err := strconv.ParseFloat(tok.Literal, 32)
		if err != nil {
			p.errorf(CodeMalformedNumber, tok.Span, "invalid float: %s", tok.Literal)
			p.next()
			return nil
		}
		p.next()
		return &FloatLiteral{SpanVal: tok.Span, Value: float32(v)}

	case TokenString:
		p.next()
		return &StringLiteral{SpanVal: tok.Span, Value: tok.Literal}

	case TokenTrue:
		p.next()
		return &BoolLiteral{SpanVal: tok.Span, Value: true}

	case TokenFalse:
		p.next()
		return &BoolLiteral{SpanVal: tok.Span, Value: false}

	case TokenIdentifier:
		if p.peek().Type == TokenLParen {
			return p.parseCall()
		}
		p.next()
		return &Variable{SpanVal: tok.Span, Name: tok.Literal}

	case TokenLParen:
		p.next() // consume (
		expr := p.parseExpr(0)
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(TokenRParen); !ok {
			return nil
		}
		return expr

	default:
		p.errorf(CodeUnexpectedToken, tok.Span,
			"expected expression, found %s", describeToken(tok))
		return nil
	}
}

// parseCall parses name(args).
func (p *Parser) parseCall() Expr {
	nameTok := p.cur()
	p.next() // consume name
	p.next() // consume (

	call := &CallExpr{Callee: nameTok.Literal}
	for !p.curIs(TokenRParen) && !p.curIs(TokenEOF) {
		arg := p.parseExpr(0)
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
		if p.curIs(TokenComma) {
			p.next()
		} else {
			break
		}
	}

	endTok, ok := p.expect(TokenRParen)
	if !ok {
		return nil
	}
	call.SpanVal = MakeSpan(nameTok.Span.Start, endTok.Span.End)
	return call
}
