package compiler

// keywords is scanned linearly; the table is small enough that a map buys
// nothing.
var keywords = []struct {
	text string
	tt   TokenType
}{
	{"true", TRUE},
	{"false", FALSE},
	{"println", PRINTLN},
	{"if", IF},
	{"else", ELSE},
	{"while", WHILE},
	{"fun", FUN},
	{"class", CLASS},
	{"return", RETURN},
	{"var", VAR},
	{"val", VAL},
	{"syscall", SYSCALL},
}

func lookupKeyword(text string) TokenType {
	for _, kw := range keywords {
		if kw.text == text {
			return kw.tt
		}
	}
	return IDENTIFIER
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  string
	pos  int // index of the next byte to consume
	line int // current 1-based source line
	col  int // current 1-based source column

	tokens  []Token
	locs    []Location
	invalid []InvalidToken
}

func newLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

// peekAt returns the byte offset bytes ahead of the cursor, or 0 past the end.
func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) peek() byte { return l.peekAt(0) }

// advance consumes one byte, keeping line and column current.
func (l *Lexer) advance() byte {
	if l.atEnd() {
		return 0
	}
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

// scanLineComment consumes "//" up to, but not including, the newline.
func (l *Lexer) scanLineComment() TokenType {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
	return COMMENT
}

func (l *Lexer) scanIdent(start int) TokenType {
	for !l.atEnd() && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	return lookupKeyword(l.src[start:l.pos])
}

// scanInt consumes a digit run and an optional L (Long) suffix.
func (l *Lexer) scanInt() TokenType {
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == 'L' {
		l.advance()
	}
	return INTEGER
}

// scanString consumes "..." or """...""". Only the triple-quoted form may
// span lines; running into a newline or the end of input first yields INVALID.
func (l *Lexer) scanString() (TokenType, string) {
	if l.peekAt(1) == '"' && l.peekAt(2) == '"' {
		l.advance()
		l.advance()
		l.advance()
		for !l.atEnd() {
			if l.peek() == '"' && l.peekAt(1) == '"' && l.peekAt(2) == '"' {
				l.advance()
				l.advance()
				l.advance()
				return STRING, ""
			}
			l.advance()
		}
		return INVALID, "unterminated multi-line string literal"
	}

	l.advance() // opening "
	for !l.atEnd() {
		switch l.peek() {
		case '"':
			l.advance()
			return STRING, ""
		case '\n':
			return INVALID, "unterminated string literal"
		}
		l.advance()
	}
	return INVALID, "unterminated string literal"
}

// scanChar consumes '...'. Exactly one payload byte is accepted; escapes
// and multi-byte characters are not supported.
func (l *Lexer) scanChar() (TokenType, string) {
	l.advance() // opening '
	n := 0
	for !l.atEnd() && l.peek() != '\'' && l.peek() != '\n' {
		l.advance()
		n++
	}
	if l.atEnd() || l.peek() != '\'' {
		return INVALID, "unterminated character literal"
	}
	l.advance() // closing '
	if n != 1 {
		return INVALID, "character literal must contain exactly one byte"
	}
	return CHAR, ""
}

// scanOperator handles punctuation and operators, probing one byte ahead for
// the two-byte forms.
func (l *Lexer) scanOperator() (TokenType, string) {
	ch := l.advance()
	switch ch {
	case '{':
		return LBRACE, ""
	case '}':
		return RBRACE, ""
	case '(':
		return LPAREN, ""
	case ')':
		return RPAREN, ""
	case ',':
		return COMMA, ""
	case ':':
		return COLON, ""
	case '+':
		return PLUS, ""
	case '-':
		return MINUS, ""
	case '*':
		return STAR, ""
	case '/':
		return SLASH, ""
	case '%':
		return PERCENT, ""
	case '=':
		if l.peek() == '=' {
			l.advance()
			return EQUALS, ""
		}
		return ASSIGN, ""
	case '!':
		if l.peek() == '=' {
			l.advance()
			return NOT_EQ, ""
		}
		return NOT, ""
	case '<':
		if l.peek() == '=' {
			l.advance()
			return LESS_EQ, ""
		}
		return LESS, ""
	case '>':
		if l.peek() == '=' {
			l.advance()
			return GREATER_EQ, ""
		}
		return GREATER, ""
	}
	return INVALID, "unexpected character"
}

// next scans one token and records it. It reports false once EOF is emitted.
func (l *Lexer) next() bool {
	l.skipWhitespace()

	start := l.pos
	loc := Location{Line: l.line, Column: l.col}

	if l.atEnd() {
		l.emit(EOF, start, loc, "")
		return false
	}

	var tt TokenType
	var reason string

	ch := l.peek()
	switch {
	case ch == '/' && l.peekAt(1) == '/':
		tt = l.scanLineComment()
	case isLetter(ch):
		tt = l.scanIdent(start)
	case isDigit(ch):
		tt = l.scanInt()
	case ch == '"':
		tt, reason = l.scanString()
	case ch == '\'':
		tt, reason = l.scanChar()
	default:
		tt, reason = l.scanOperator()
	}

	l.emit(tt, start, loc, reason)
	return true
}

func (l *Lexer) emit(tt TokenType, start int, loc Location, reason string) {
	idx := TokenIndex(len(l.tokens))
	l.tokens = append(l.tokens, Token{Type: tt, Start: start, End: l.pos})
	l.locs = append(l.locs, loc)
	if tt == INVALID {
		l.invalid = append(l.invalid, InvalidToken{
			Index:  idx,
			Loc:    loc,
			Text:   l.src[start:l.pos],
			Reason: reason,
		})
	}
}

// Lex tokenises src in a single forward pass and returns every token,
// comments included, terminated by exactly one EOF token.
//
// Invalid byte sequences become INVALID tokens and scanning continues; once
// the pass is complete they are reported together as a *LexError. The token
// stream is returned in both cases.
func Lex(src string) (*TokenStream, error) {
	l := newLexer(src)
	for l.next() {
	}

	ts := &TokenStream{Src: src, Tokens: l.tokens, Locs: l.locs}
	if len(l.invalid) > 0 {
		return ts, &LexError{Invalid: l.invalid}
	}
	return ts, nil
}
