package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF     TokenType = iota // sentinel: end of input
	INVALID                  // byte sequence the lexer could not classify
	COMMENT                  // // line comment

	// Literals
	IDENTIFIER // variable / function name
	INTEGER    // decimal integer literal, optional L suffix
	STRING     // "..." or """..."""
	CHAR       // 'c'

	// Keywords
	TRUE    // "true"
	FALSE   // "false"
	PRINTLN // "println"
	IF      // "if"
	ELSE    // "else"
	WHILE   // "while"
	FUN     // "fun"
	CLASS   // "class"
	RETURN  // "return"
	VAR     // "var"
	VAL     // "val"
	SYSCALL // "syscall"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	COMMA // ,
	COLON // :

	// Arithmetic operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	// Assignment / comparison
	ASSIGN     // =
	EQUALS     // ==
	NOT        // !
	NOT_EQ     // !=
	LESS       // <
	LESS_EQ    // <=
	GREATER    // >
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	EOF:        "EOF",
	INVALID:    "INVALID",
	COMMENT:    "COMMENT",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	STRING:     "STRING",
	CHAR:       "CHAR",
	TRUE:       "TRUE",
	FALSE:      "FALSE",
	PRINTLN:    "PRINTLN",
	IF:         "IF",
	ELSE:       "ELSE",
	WHILE:      "WHILE",
	FUN:        "FUN",
	CLASS:      "CLASS",
	RETURN:     "RETURN",
	VAR:        "VAR",
	VAL:        "VAL",
	SYSCALL:    "SYSCALL",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	COLON:      "COLON",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	PERCENT:    "PERCENT",
	ASSIGN:     "ASSIGN",
	EQUALS:     "EQUALS",
	NOT:        "NOT",
	NOT_EQ:     "NOT_EQ",
	LESS:       "LESS",
	LESS_EQ:    "LESS_EQ",
	GREATER:    "GREATER",
	GREATER_EQ: "GREATER_EQ",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// TokenIndex addresses a token inside a TokenStream.
type TokenIndex int32

// Token is a single lexical unit: a type plus the half-open byte range
// [Start, End) it covers in the source buffer.
type Token struct {
	Type  TokenType
	Start int
	End   int
}

// Len is the token's width in bytes.
func (t Token) Len() int { return t.End - t.Start }

// Text returns the source slice covered by the token.
func (t Token) Text(src string) string { return src[t.Start:t.End] }

func (t Token) String() string {
	return fmt.Sprintf("%-10s [%d,%d)", t.Type, t.Start, t.End)
}

// Location is a 1-based line/column pair. Columns count bytes.
type Location struct {
	Line   int
	Column int
}

func (l Location) String() string { return fmt.Sprintf("%d:%d", l.Line, l.Column) }

// TokenStream is the lexer's output: tokens in increasing offset order and
// the location of each token's first byte.
type TokenStream struct {
	Src    string
	Tokens []Token
	Locs   []Location
}

// Len returns the number of tokens including the trailing EOF.
func (ts *TokenStream) Len() int { return len(ts.Tokens) }

// At returns the token at idx.
func (ts *TokenStream) At(idx TokenIndex) Token { return ts.Tokens[idx] }

// Loc returns the location of the token at idx.
func (ts *TokenStream) Loc(idx TokenIndex) Location { return ts.Locs[idx] }

// Text returns the source text of the token at idx.
func (ts *TokenStream) Text(idx TokenIndex) string { return ts.Tokens[idx].Text(ts.Src) }
