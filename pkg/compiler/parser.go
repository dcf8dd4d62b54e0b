package compiler

import (
	"strconv"
	"strings"
)

// Program is the parser's output for one compilation unit: the token stream
// it was parsed from and the populated arenas, statement list included.
type Program struct {
	File   string
	Tokens *TokenStream
	Store  *Store
}

// Stmts returns the top-level statements in source order.
func (p *Program) Stmts() []NodeIndex { return p.Store.Stmts() }

// Parser consumes the token stream produced by Lex and fills a Store.
//
// Grammar:
//
//	program    = statement+ EOF
//	statement  = "println" "(" expression ")"
//	expression = primary
//	primary    = "true" | "false" | STRING | INTEGER | CHAR
//
// Comment tokens are skipped wherever they appear. The remaining node kinds
// (if, while, fun, class, ...) have no production yet, so their keywords are
// reported as unexpected tokens.
type Parser struct {
	file  string
	toks  *TokenStream
	pos   TokenIndex // only moves forward
	store *Store
}

func NewParser(file string, toks *TokenStream) *Parser {
	return &Parser{file: file, toks: toks, store: NewStore()}
}

// current returns the index of the first non-comment token at or after the
// cursor. The stream always ends in EOF, so this never runs off the end.
func (p *Parser) current() TokenIndex {
	i := p.pos
	for int(i) < p.toks.Len()-1 && p.toks.At(i).Type == COMMENT {
		i++
	}
	return i
}

// match consumes the current token if it has type tt and returns its index.
// On a mismatch the cursor is left untouched.
func (p *Parser) match(tt TokenType) (TokenIndex, bool) {
	i := p.current()
	if p.toks.At(i).Type != tt {
		return 0, false
	}
	p.pos = i + 1
	return i, true
}

// expect is match with the mismatch turned into a diagnostic.
func (p *Parser) expect(tt TokenType) (TokenIndex, error) {
	if i, ok := p.match(tt); ok {
		return i, nil
	}
	return 0, p.unexpected(tt)
}

func (p *Parser) unexpected(expected ...TokenType) error {
	e := newSyntaxError(ErrUnexpectedToken, p.file, p.toks, p.current())
	e.Expected = expected
	return e
}

// parseProgram parses statements until EOF. At least one is required.
func (p *Parser) parseProgram() error {
	for {
		stmt, err := p.parseStatement()
		if err != nil {
			return err
		}
		p.store.AddStmt(stmt)

		if _, ok := p.match(EOF); ok {
			return nil
		}
	}
}

// parseStatement handles println(expr).
func (p *Parser) parseStatement() (NodeIndex, error) {
	first, err := p.expect(PRINTLN)
	if err != nil {
		return NoNode, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return NoNode, err
	}

	arg, ok, err := p.parseExpression()
	if err != nil {
		return NoNode, err
	}
	if !ok {
		return NoNode, p.unexpected(TRUE, FALSE, STRING, INTEGER, CHAR)
	}

	last, err := p.expect(RPAREN)
	if err != nil {
		return NoNode, err
	}

	typ := p.store.AddType(Primitive{K: KindUnit})
	return p.store.AddNode(Println{
		Base: Base{Tokens: Span{First: first, Last: last}, Type: typ},
		Arg:  arg,
	}), nil
}

// parseExpression is the entry point for expression parsing. Only literals
// are expressions for now.
func (p *Parser) parseExpression() (NodeIndex, bool, error) {
	return p.parsePrimary()
}

// parsePrimary reports ok=false, without an error, when the current token
// does not start a literal.
func (p *Parser) parsePrimary() (NodeIndex, bool, error) {
	if tok, ok := p.match(TRUE); ok {
		return p.boolLit(tok, true), true, nil
	}
	if tok, ok := p.match(FALSE); ok {
		return p.boolLit(tok, false), true, nil
	}
	if tok, ok := p.match(STRING); ok {
		return p.stringLit(tok), true, nil
	}
	if tok, ok := p.match(INTEGER); ok {
		n, err := p.intLit(tok)
		return n, err == nil, err
	}
	if tok, ok := p.match(CHAR); ok {
		return p.charLit(tok), true, nil
	}
	return NoNode, false, nil
}

func (p *Parser) literalBase(tok TokenIndex, kind TypeKind) Base {
	return Base{
		Tokens: Span{First: tok, Last: tok},
		Type:   p.store.AddType(Primitive{K: kind}),
	}
}

func (p *Parser) boolLit(tok TokenIndex, value bool) NodeIndex {
	return p.store.AddNode(BoolLit{Base: p.literalBase(tok, KindBoolean), Value: value})
}

// stringLit strips the quotes ("..." or """...""") and records the payload
// as a StringObject keyed by the token.
func (p *Parser) stringLit(tok TokenIndex) NodeIndex {
	text := p.toks.Text(tok)
	quote := 1
	if len(text) >= 6 && strings.HasPrefix(text, `"""`) {
		quote = 3
	}
	obj := p.store.AddObject(StringObject{Token: tok, Value: text[quote : len(text)-quote]})
	return p.store.AddNode(StringLit{Base: p.literalBase(tok, KindString), Object: obj})
}

// intLit parses a decimal literal. An L suffix makes it a Long; otherwise it
// is an Int and must fit in 32 bits.
func (p *Parser) intLit(tok TokenIndex) (NodeIndex, error) {
	text := p.toks.Text(tok)
	kind, bits := KindInt, 32
	if strings.HasSuffix(text, "L") {
		text = text[:len(text)-1]
		kind, bits = KindLong, 64
	}

	value, err := strconv.ParseInt(text, 10, bits)
	if err != nil {
		e := newSyntaxError(ErrInvalidLiteral, p.file, p.toks, tok)
		e.Detail = "integer literal " + p.toks.Text(tok) + " does not fit in " + kind.String()
		return NoNode, e
	}
	return p.store.AddNode(IntLit{Base: p.literalBase(tok, kind), Value: value}), nil
}

func (p *Parser) charLit(tok TokenIndex) NodeIndex {
	return p.store.AddNode(CharLit{Base: p.literalBase(tok, KindChar), Value: p.toks.Text(tok)[1]})
}

// Parse runs the grammar over toks and returns the populated program. It
// stops at the first error.
func Parse(file string, toks *TokenStream) (*Program, error) {
	p := NewParser(file, toks)
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	return &Program{File: file, Tokens: toks, Store: p.store}, nil
}
