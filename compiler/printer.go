package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Printer: canonical FerrisScript source from an AST
// ---------------------------------------------------------------------------

// PrintProgram renders a Program as canonical source. Reparsing the output
// yields a structurally equivalent AST; nested expressions are
// parenthesized explicitly so no precedence information is lost.
func PrintProgram(prog *Program) string {
	p := &printer{buf: &strings.Builder{}}

	for i, g := range prog.Globals {
		if i > 0 {
			p.newline()
		}
		p.printGlobal(g)
	}
	if len(prog.Globals) > 0 && len(prog.Functions) > 0 {
		p.newline()
	}
	for i, fn := range prog.Functions {
		if i > 0 {
			p.newline()
		}
		p.printFunction(fn)
	}

	result := p.buf.String()
	result = strings.TrimRight(result, "\n") + "\n"
	if result == "\n" {
		return ""
	}
	return result
}

type printer struct {
	indent int
	buf    *strings.Builder
}

func (p *printer) write(s string)   { p.buf.WriteString(s) }
func (p *printer) writeln(s string) { p.buf.WriteString(s); p.buf.WriteByte('\n') }
func (p *printer) newline()         { p.buf.WriteByte('\n') }

func (p *printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

func (p *printer) printGlobal(g *GlobalVar) {
	if g.Range != nil {
		p.writeln(fmt.Sprintf("@export_range(%s, %s, %s)",
			formatF64(g.Range.Min), formatF64(g.Range.Max), formatF64(g.Range.Step)))
	} else if g.Exported {
		p.writeln("@export")
	}

	p.write("let ")
	if g.Mutable {
		p.write("mut ")
	}
	p.write(g.Name)
	p.write(": ")
	p.write(g.Type.Name)
	p.write(" = ")
	p.write(p.exprString(g.Init, false))
	p.writeln(";")
}

func (p *printer) printFunction(fn *Function) {
	p.write("fn ")
	p.write(fn.Name)
	p.write("(")
	for i, param := range fn.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name)
		p.write(": ")
		p.write(param.Type.Name)
	}
	p.write(")")
	if fn.ReturnType != nil {
		p.write(" -> ")
		p.write(fn.ReturnType.Name)
	}
	p.writeln(" {")
	p.indent++
	p.printStatements(fn.Body)
	p.indent--
	p.writeln("}")
}

func (p *printer) printStatements(stmts []Stmt) {
	for _, stmt := range stmts {
		p.printStmt(stmt)
	}
}

func (p *printer) printStmt(stmt Stmt) {
	p.writeIndent()
	switch st := stmt.(type) {
	case *LetStmt:
		p.write("let ")
		if st.Mutable {
			p.write("mut ")
		}
		p.write(st.Name)
		p.write(": ")
		p.write(st.Type.Name)
		p.write(" = ")
		p.write(p.exprString(st.Init, false))
		p.writeln(";")

	case *AssignStmt:
		p.write(p.exprString(st.Target, false))
		p.write(" = ")
		p.write(p.exprString(st.Value, false))
		p.writeln(";")

	case *IfStmt:
		p.printIf(st)

	case *WhileStmt:
		p.write("while ")
		p.write(p.exprString(st.Cond, false))
		p.writeln(" {")
		p.indent++
		p.printStatements(st.Body)
		p.indent--
		p.writeIndent()
		p.writeln("}")

	case *ReturnStmt:
		if st.Value == nil {
			p.writeln("return;")
		} else {
			p.write("return ")
			p.write(p.exprString(st.Value, false))
			p.writeln(";")
		}

	case *BreakStmt:
		p.writeln("break;")

	case *ExprStmt:
		p.write(p.exprString(st.Expr, false))
		p.writeln(";")
	}
}

func (p *printer) printIf(st *IfStmt) {
	p.write("if ")
	p.write(p.exprString(st.Cond, false))
	p.writeln(" {")
	p.indent++
	p.printStatements(st.Then)
	p.indent--
	p.writeIndent()
	p.write("}")

	if st.Else != nil {
		// Collapse a single nested if back to "else if".
		if len(st.Else) == 1 {
			if inner, ok := st.Else[0].(*IfStmt); ok {
				p.write(" else ")
				p.printIf(inner)
				return
			}
		}
		p.writeln(" else {")
		p.indent++
		p.printStatements(st.Else)
		p.indent--
		p.writeIndent()
		p.write("}")
	}
	p.newline()
}

// exprString renders an expression. Binary and unary operands are wrapped
// in parentheses when nested, which keeps reparsing unambiguous.
func (p *printer) exprString(expr Expr, nested bool) string {
	switch e := expr.(type) {
	case *IntLiteral:
		return strconv.FormatInt(int64(e.Value), 10)

	case *FloatLiteral:
		s := strconv.FormatFloat(float64(e.Value), 'g', -1, 32)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s

	case *StringLiteral:
		return strconv.Quote(e.Value)

	case *BoolLiteral:
		if e.Value {
			return "true"
		}
		return "false"

	case *Variable:
		return e.Name

	case *UnaryExpr:
		s := e.Op.String() + p.exprString(e.Operand, true)
		if nested {
			return "(" + s + ")"
		}
		return s

	case *BinaryExpr:
		s := fmt.Sprintf("%s %s %s",
			p.exprString(e.LHS, true), e.Op, p.exprString(e.RHS, true))
		if nested {
			return "(" + s + ")"
		}
		return s

	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = p.exprString(arg, false)
		}
		return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))

	case *FieldAccess:
		return p.exprString(e.Base, true) + "." + e.Field
	}
	return ""
}

func formatF64(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
