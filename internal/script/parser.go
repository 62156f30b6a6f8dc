package script

import "fmt"

// Operator precedence levels, lowest first.
const (
	precNone = iota
	precOr
	precAnd
	precEquality   // == !=
	precComparison // < <= > >=
	precAdditive   // + -
	precFactor     // * / %
	precUnary      // - not !
	precPostfix    // call, member, index
)

func binaryPrec(t TokenType) int {
	switch t {
	case OR:
		return precOr
	case AND:
		return precAnd
	case EQ, NEQ:
		return precEquality
	case LESS, LESSEQ, GREATER, GREATEREQ:
		return precComparison
	case PLUS, MINUS:
		return precAdditive
	case STAR, SLASH, PERCENT:
		return precFactor
	default:
		return precNone
	}
}

// Parser builds an AST from a token stream.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a source string into a Program.
func Parse(src string) (*Program, error) {
	tokens, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{}
	p.skipTerms()
	for !p.check(EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
		if err := p.expectTerminator(); err != nil {
			return nil, err
		}
		p.skipTerms()
	}
	return prog, nil
}

// expectTerminator requires a TERM, "}", or EOF after a statement.
// "}" and EOF are not consumed; they belong to the enclosing construct.
func (p *Parser) expectTerminator() error {
	switch p.peek().Type {
	case TERM:
		p.advance()
		return nil
	case RBRACE, EOF:
		return nil
	default:
		return p.errorAt(p.peek(), "expected end of statement, got %q", p.peek().Lexeme)
	}
}

func (p *Parser) parseStatement() (Node, error) {
	switch p.peek().Type {
	case LET:
		return p.parseLet()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseFor()
	case FUN:
		return p.parseFun()
	case RETURN:
		tok := p.advance()
		var value Node
		if !p.check(TERM) && !p.check(RBRACE) && !p.check(EOF) {
			v, err := p.parseExpr(precNone + 1)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &Return{position: posOf(tok), Value: value}, nil
	case BREAK:
		tok := p.advance()
		return &BreakStmt{position: posOf(tok)}, nil
	case CONTINUE:
		tok := p.advance()
		return &ContinueStmt{position: posOf(tok)}, nil
	default:
		return p.parseExprOrAssign()
	}
}

func (p *Parser) parseLet() (Node, error) {
	tok := p.advance() // let
	name, err := p.expect(IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN, `"="`); err != nil {
		return nil, err
	}
	value, err := p.parseExpr(precNone + 1)
	if err != nil {
		return nil, err
	}
	return &Let{position: posOf(tok), Name: name.Lexeme, Value: value}, nil
}

func (p *Parser) parseExprOrAssign() (Node, error) {
	tok := p.peek()
	expr, err := p.parseExpr(precNone + 1)
	if err != nil {
		return nil, err
	}
	if p.check(ASSIGN) {
		p.advance()
		switch expr.(type) {
		case *Ident, *Member, *Index:
		default:
			return nil, p.errorAt(tok, "invalid assignment target")
		}
		value, err := p.parseExpr(precNone + 1)
		if err != nil {
			return nil, err
		}
		return &Assign{position: posOf(tok), Target: expr, Value: value}, nil
	}
	return &ExprStmt{position: posOf(tok), X: expr}, nil
}

func (p *Parser) parseIf() (Node, error) {
	tok := p.advance() // if
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &If{position: posOf(tok), Cond: cond, Then: then}

	// "else" may sit on the next line; TERMs before it are consumed either
	// way since the statement loop would skip them.
	mark := p.pos
	p.skipTerms()
	if p.check(ELSE) {
		p.advance()
		if p.check(IF) {
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = nested
		} else {
			blk, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = blk
		}
	} else {
		p.pos = mark
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (Node, error) {
	tok := p.advance() // while
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{position: posOf(tok), Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (Node, error) {
	tok := p.advance() // for
	paren := false
	if p.check(LPAREN) {
		p.advance()
		paren = true
	}
	name, err := p.expect(IDENT, "loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, `"in"`); err != nil {
		return nil, err
	}
	seq, err := p.parseExpr(precNone + 1)
	if err != nil {
		return nil, err
	}
	if paren {
		if _, err := p.expect(RPAREN, `")"`); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForIn{position: posOf(tok), Name: name.Lexeme, Seq: seq, Body: body}, nil
}

func (p *Parser) parseFun() (Node, error) {
	tok := p.advance() // fun
	name, err := p.expect(IDENT, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, `"("`); err != nil {
		return nil, err
	}
	var params []string
	for !p.check(RPAREN) {
		param, err := p.expect(IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, param.Lexeme)
		if !p.check(COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN, `")"`); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunDecl{position: posOf(tok), Name: name.Lexeme, Params: params, Body: body}, nil
}

// parseCondition accepts both "if x > 1 {" and "if (x > 1) {".
// A parenthesized condition is just a parenthesized expression, so no
// special casing is needed beyond normal expression parsing.
func (p *Parser) parseCondition() (Node, error) {
	return p.parseExpr(precNone + 1)
}

func (p *Parser) parseBlock() (*Block, error) {
	tok, err := p.expect(LBRACE, `"{"`)
	if err != nil {
		return nil, err
	}
	blk := &Block{position: posOf(tok)}
	p.skipTerms()
	for !p.check(RBRACE) {
		if p.check(EOF) {
			return nil, p.errorAt(tok, "unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, stmt)
		if err := p.expectTerminator(); err != nil {
			return nil, err
		}
		p.skipTerms()
	}
	p.advance() // }
	return blk, nil
}

func (p *Parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		prec := binaryPrec(op.Type)
		if prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{position: posOf(op), Op: op.Type, L: left, R: right}
	}
}

func (p *Parser) parseUnary() (Node, error) {
	tok := p.peek()
	switch tok.Type {
	case MINUS:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{position: posOf(tok), Op: MINUS, X: x}, nil
	case NOT, BANG:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{position: posOf(tok), Op: NOT, X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case LPAREN:
			p.advance()
			var args []Node
			p.skipTerms()
			for !p.check(RPAREN) {
				arg, err := p.parseExpr(precNone + 1)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				p.skipTerms()
				if !p.check(COMMA) {
					break
				}
				p.advance()
				p.skipTerms()
			}
			if _, err := p.expect(RPAREN, `")"`); err != nil {
				return nil, err
			}
			expr = &Call{position: posOf(tok), Fn: expr, Args: args}
		case DOT:
			p.advance()
			name, err := p.expect(IDENT, "member name")
			if err != nil {
				return nil, err
			}
			expr = &Member{position: posOf(tok), X: expr, Name: name.Lexeme}
		case LBRACKET:
			p.advance()
			key, err := p.parseExpr(precNone + 1)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET, `"]"`); err != nil {
				return nil, err
			}
			expr = &Index{position: posOf(tok), X: expr, Key: key}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		return &NumLit{position: posOf(tok), Value: tok.Literal.(float64)}, nil
	case STRING:
		p.advance()
		return &StrLit{position: posOf(tok), Value: tok.Literal.(string)}, nil
	case TRUE:
		p.advance()
		return &BoolLit{position: posOf(tok), Value: true}, nil
	case FALSE:
		p.advance()
		return &BoolLit{position: posOf(tok), Value: false}, nil
	case NULL:
		p.advance()
		return &NullLit{position: posOf(tok)}, nil
	case IDENT:
		p.advance()
		return &Ident{position: posOf(tok), Name: tok.Lexeme}, nil
	case LPAREN:
		p.advance()
		p.skipTerms()
		expr, err := p.parseExpr(precNone + 1)
		if err != nil {
			return nil, err
		}
		p.skipTerms()
		if _, err := p.expect(RPAREN, `")"`); err != nil {
			return nil, err
		}
		return expr, nil
	case LBRACKET:
		return p.parseList()
	case LBRACE:
		return p.parseMap()
	default:
		return nil, p.errorAt(tok, "unexpected %s", describe(tok))
	}
}

func (p *Parser) parseList() (Node, error) {
	tok := p.advance() // [
	lit := &ListLit{position: posOf(tok)}
	p.skipTerms()
	for !p.check(RBRACKET) {
		elem, err := p.parseExpr(precNone + 1)
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, elem)
		p.skipTerms()
		if !p.check(COMMA) {
			break
		}
		p.advance()
		p.skipTerms()
	}
	if _, err := p.expect(RBRACKET, `"]"`); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseMap() (Node, error) {
	tok := p.advance() // {
	lit := &MapLit{position: posOf(tok)}
	p.skipTerms()
	for !p.check(RBRACE) {
		key := p.peek()
		var name string
		switch key.Type {
		case IDENT:
			name = key.Lexeme
		case STRING:
			name = key.Literal.(string)
		default:
			return nil, p.errorAt(key, "expected map key, got %s", describe(key))
		}
		p.advance()
		if _, err := p.expect(COLON, `":"`); err != nil {
			return nil, err
		}
		p.skipTerms()
		value, err := p.parseExpr(precNone + 1)
		if err != nil {
			return nil, err
		}
		lit.Keys = append(lit.Keys, name)
		lit.Values = append(lit.Values, value)
		p.skipTerms()
		if !p.check(COMMA) {
			break
		}
		p.advance()
		p.skipTerms()
	}
	if _, err := p.expect(RBRACE, `"}"`); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) skipTerms() {
	for p.check(TERM) {
		p.advance()
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) check(t TokenType) bool {
	return p.tokens[p.pos].Type == t
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	if !p.check(t) {
		return Token{}, p.errorAt(p.peek(), "expected %s, got %s", what, describe(p.peek()))
	}
	return p.advance(), nil
}

func (p *Parser) errorAt(tok Token, format string, args ...any) error {
	return &SyntaxError{
		Msg:  fmt.Sprintf(format, args...),
		Line: tok.Line,
		Col:  tok.Col,
	}
}

func describe(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of script"
	case TERM:
		return "end of statement"
	default:
		return fmt.Sprintf("%q", tok.Lexeme)
	}
}

func posOf(tok Token) position {
	return position{Line: tok.Line, Col: tok.Col}
}
