package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for FerrisScript syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes FerrisScript source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
		if l.ch == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.ch = r
		l.pos = l.readPos
		l.readPos += size
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the position of the current character.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// span closes a span opened at start, ending just before the current char.
func (l *Lexer) span(start Position) Span {
	return MakeSpan(start, l.position())
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if tok, bad := l.skipWhitespaceAndComments(); bad {
		return tok
	}

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Span: l.span(pos)}

	case l.ch == '(':
		return l.single(TokenLParen, pos)
	case l.ch == ')':
		return l.single(TokenRParen, pos)
	case l.ch == '{':
		return l.single(TokenLBrace, pos)
	case l.ch == '}':
		return l.single(TokenRBrace, pos)
	case l.ch == ',':
		return l.single(TokenComma, pos)
	case l.ch == ':':
		return l.single(TokenColon, pos)
	case l.ch == ';':
		return l.single(TokenSemicolon, pos)
	case l.ch == '.':
		return l.single(TokenDot, pos)
	case l.ch == '+':
		return l.single(TokenPlus, pos)
	case l.ch == '*':
		return l.single(TokenStar, pos)
	case l.ch == '/':
		return l.single(TokenSlash, pos)
	case l.ch == '%':
		return l.single(TokenPercent, pos)

	case l.ch == '-':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenArrow, Literal: "->", Span: l.span(pos)}
		}
		return l.single(TokenMinus, pos)

	case l.ch == '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenEq, Literal: "==", Span: l.span(pos)}
		}
		return l.single(TokenAssign, pos)

	case l.ch == '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenNotEq, Literal: "!=", Span: l.span(pos)}
		}
		return l.single(TokenBang, pos)

	case l.ch == '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenLessEq, Literal: "<=", Span: l.span(pos)}
		}
		return l.single(TokenLess, pos)

	case l.ch == '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenGreaterEq, Literal: ">=", Span: l.span(pos)}
		}
		return l.single(TokenGreater, pos)

	case l.ch == '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenAnd, Literal: "&&", Span: l.span(pos)}
		}
		ch := l.ch
		l.readChar()
		return l.errorToken(pos, "unexpected character: %c", ch)

	case l.ch == '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenOr, Literal: "||", Span: l.span(pos)}
		}
		ch := l.ch
		l.readChar()
		return l.errorToken(pos, "unexpected character: %c", ch)

	case l.ch == '@':
		return l.readAnnotation(pos)

	case l.ch == '"':
		return l.readString(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readIdentifier(pos)

	default:
		ch := l.ch
		l.readChar()
		return l.errorToken(pos, "unexpected character: %c", ch)
	}
}

// single consumes the current character as a one-character token.
func (l *Lexer) single(t TokenType, pos Position) Token {
	lit := string(l.ch)
	l.readChar()
	return Token{Type: t, Literal: lit, Span: l.span(pos)}
}

// errorToken builds a TokenError. The literal carries the message.
func (l *Lexer) errorToken(pos Position, format string, args ...interface{}) Token {
	return Token{
		Type:    TokenError,
		Literal: fmt.Sprintf(format, args...),
		Span:    l.span(pos),
	}
}

// skipWhitespaceAndComments skips whitespace and both comment forms.
// Returns an error token for an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			pos := l.position()
			l.readChar() // consume /
			l.readChar() // consume *
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				return l.errorToken(pos, "unterminated block comment"), true
			}
			continue
		}

		return Token{}, false
	}
}

// readAnnotation reads @export or @export_range.
func (l *Lexer) readAnnotation(pos Position) Token {
	l.readChar() // consume @

	if !(isLetter(l.ch) || l.ch == '_') {
		return l.errorToken(pos, "expected annotation name after '@'")
	}

	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	return Token{Type: TokenAnnotation, Literal: l.input[start:l.pos], Span: l.span(pos)}
}

// readString reads a double-quoted string literal with escape sequences.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening "

	var sb strings.Builder
	for l.ch != '"' {
		if l.ch == 0 || l.ch == '\n' {
			return l.errorToken(pos, "unterminated string")
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				return l.errorToken(pos, "invalid escape sequence: \\%c", l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}

	l.readChar() // consume closing "
	return Token{Type: TokenString, Literal: sb.String(), Span: l.span(pos)}
}

// readNumber reads an integer or float literal. A decimal point or an
// exponent makes it a float.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	isFloat := false

	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar() // consume .
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return l.errorToken(pos, "malformed number: missing exponent digits")
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	lit := strings.ReplaceAll(l.input[start:l.pos], "_", "")
	if isFloat {
		return Token{Type: TokenFloat, Literal: lit, Span: l.span(pos)}
	}
	return Token{Type: TokenInt, Literal: lit, Span: l.span(pos)}
}

// readIdentifier reads an identifier or reserved word.
func (l *Lexer) readIdentifier(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	literal := l.input[start:l.pos]
	if tokType, ok := reservedWords[literal]; ok {
		return Token{Type: tokType, Literal: literal, Span: l.span(pos)}
	}
	return Token{Type: TokenIdentifier, Literal: literal, Span: l.span(pos)}
}

// Helper functions

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize scans the entire input. Empty input yields zero tokens. On a
// lexical error it returns the tokens scanned so far plus a diagnostic with
// the exact source position of the failure.
func Tokenize(input string) ([]Token, *Diagnostic) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		switch tok.Type {
		case TokenEOF:
			return tokens, nil
		case TokenError:
			code := CodeUnexpectedChar
			switch {
			case strings.HasPrefix(tok.Literal, "unterminated string"):
				code = CodeUnterminatedString
			case strings.HasPrefix(tok.Literal, "unterminated block comment"):
				code = CodeUnterminatedBlock
			case strings.HasPrefix(tok.Literal, "malformed number"):
				code = CodeMalformedNumber
			case strings.HasPrefix(tok.Literal, "invalid escape"):
				code = CodeInvalidEscape
			}
			return tokens, &Diagnostic{
				Code:    code,
				Phase:   PhaseLexical,
				Message: tok.Literal,
				Span:    tok.Span,
			}
		default:
			tokens = append(tokens, tok)
		}
	}
}
