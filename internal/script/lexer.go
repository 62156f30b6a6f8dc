// Package script implements the restricted scripting language that game
// commands are written in: a lexer, a Pratt parser, and a tree-walking
// interpreter with an explicit step budget.
//
// The language is deliberately closed. Its environment chain is the only
// namespace a program can reach; there is no import mechanism, no dynamic
// evaluation, and no I/O primitive. Host capabilities exist solely as
// natives registered by the embedder, so anything not registered is
// unreachable by construction.
package script

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL
	TERM // statement terminator: newline (outside brackets) or ";"

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	COLON    // ":"
	COMMA    // ","
	DOT      // "."

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESSEQ
	GREATER
	GREATEREQ
	BANG // "!"

	// Literals & identifiers
	IDENT
	STRING
	NUMBER

	// Keywords
	AND
	OR
	NOT
	LET
	IF
	ELSE
	WHILE
	FOR
	IN
	FUN
	RETURN
	BREAK
	CONTINUE
	TRUE
	FALSE
	NULL
)

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any // float64 for NUMBER, string for STRING
	Line    int // 1-based
	Col     int // 1-based
}

var keywords = map[string]TokenType{
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"let":      LET,
	"var":      LET, // accepted alias; generated scripts use both
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"fun":      FUN,
	"function": FUN,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
}

// Lexer scans a source string into tokens.
type Lexer struct {
	src    string
	start  int
	cur    int
	line   int
	col    int
	depth  int // ( and [ nesting; newlines inside brackets do not terminate statements
	tokens []Token

	tokLine int
	tokCol  int
}

// NewLexer creates a lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Scan tokenizes the entire source. On a lexical error the returned slice
// is nil and the error carries the offending position.
func (l *Lexer) Scan() ([]Token, error) {
	for !l.atEnd() {
		l.start = l.cur
		l.tokLine = l.line
		l.tokCol = l.col
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.add(EOF, nil)
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	c := l.advance()
	switch c {
	case ' ', '\t', '\r':
		// skip
	case '\n':
		if l.depth == 0 {
			l.addTerm()
		}
	case ';':
		l.addTerm()
	case '(':
		l.depth++
		l.add(LPAREN, nil)
	case ')':
		if l.depth > 0 {
			l.depth--
		}
		l.add(RPAREN, nil)
	case '[':
		l.depth++
		l.add(LBRACKET, nil)
	case ']':
		if l.depth > 0 {
			l.depth--
		}
		l.add(RBRACKET, nil)
	case '{':
		l.add(LBRACE, nil)
	case '}':
		l.add(RBRACE, nil)
	case ':':
		l.add(COLON, nil)
	case ',':
		l.add(COMMA, nil)
	case '.':
		l.add(DOT, nil)
	case '+':
		l.add(PLUS, nil)
	case '-':
		l.add(MINUS, nil)
	case '*':
		l.add(STAR, nil)
	case '%':
		l.add(PERCENT, nil)
	case '/':
		if l.match('/') {
			l.skipLineComment()
		} else {
			l.add(SLASH, nil)
		}
	case '#':
		l.skipLineComment()
	case '=':
		if l.match('=') {
			l.add(EQ, nil)
		} else {
			l.add(ASSIGN, nil)
		}
	case '!':
		if l.match('=') {
			l.add(NEQ, nil)
		} else {
			l.add(BANG, nil)
		}
	case '<':
		if l.match('=') {
			l.add(LESSEQ, nil)
		} else {
			l.add(LESS, nil)
		}
	case '>':
		if l.match('=') {
			l.add(GREATEREQ, nil)
		} else {
			l.add(GREATER, nil)
		}
	case '&':
		if l.match('&') {
			l.add(AND, nil)
		} else {
			return l.errorf("unexpected character %q", c)
		}
	case '|':
		if l.match('|') {
			l.add(OR, nil)
		} else {
			return l.errorf("unexpected character %q", c)
		}
	case '"', '\'':
		return l.scanString(c)
	default:
		switch {
		case isDigit(c):
			return l.scanNumber()
		case isAlpha(c):
			l.scanIdent()
		default:
			return l.errorf("unexpected character %q", c)
		}
	}
	return nil
}

func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) scanString(quote byte) error {
	var b strings.Builder
	for !l.atEnd() {
		c := l.advance()
		switch c {
		case quote:
			l.add(STRING, b.String())
			return nil
		case '\n':
			return l.errorf("unterminated string")
		case '\\':
			if l.atEnd() {
				return l.errorf("unterminated string")
			}
			e := l.advance()
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '"', '\'':
				b.WriteByte(e)
			default:
				return l.errorf("invalid escape \\%c", e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return l.errorf("unterminated string")
}

func (l *Lexer) scanNumber() error {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	text := l.src[l.start:l.cur]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return l.errorf("invalid number %q", text)
	}
	l.add(NUMBER, n)
	return nil
}

func (l *Lexer) scanIdent() {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}
	text := l.src[l.start:l.cur]
	if t, ok := keywords[text]; ok {
		l.add(t, nil)
		return
	}
	l.add(IDENT, nil)
}

// addTerm appends a TERM token, collapsing runs of terminators.
func (l *Lexer) addTerm() {
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Type == TERM {
		return
	}
	l.add(TERM, nil)
}

func (l *Lexer) add(t TokenType, literal any) {
	l.tokens = append(l.tokens, Token{
		Type:    t,
		Lexeme:  l.src[l.start:l.cur],
		Literal: literal,
		Line:    l.tokLine,
		Col:     l.tokCol,
	})
}

func (l *Lexer) advance() byte {
	c := l.src[l.cur]
	l.cur++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.atEnd() || l.src[l.cur] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekNext() byte {
	if l.cur+1 >= len(l.src) {
		return 0
	}
	return l.src[l.cur+1]
}

func (l *Lexer) atEnd() bool {
	return l.cur >= len(l.src)
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &SyntaxError{
		Msg:  fmt.Sprintf(format, args...),
		Line: l.tokLine,
		Col:  l.tokCol,
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
