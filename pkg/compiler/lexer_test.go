package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func tokenTypes(ts *TokenStream) []TokenType {
	out := make([]TokenType, ts.Len())
	for i, tok := range ts.Tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"empty", "", []TokenType{EOF}},
		{"whitespace only", " \t\r\n ", []TokenType{EOF}},
		{
			"punctuation",
			"{ } ( ) , : + - * / %",
			[]TokenType{LBRACE, RBRACE, LPAREN, RPAREN, COMMA, COLON, PLUS, MINUS, STAR, SLASH, PERCENT, EOF},
		},
		{
			"greedy operators",
			"= == ! != < <= > >=",
			[]TokenType{ASSIGN, EQUALS, NOT, NOT_EQ, LESS, LESS_EQ, GREATER, GREATER_EQ, EOF},
		},
		{
			"no space between operators",
			"a<=b==c",
			[]TokenType{IDENTIFIER, LESS_EQ, IDENTIFIER, EQUALS, IDENTIFIER, EOF},
		},
		{
			"keywords",
			"true false println if else while fun class return var val syscall",
			[]TokenType{TRUE, FALSE, PRINTLN, IF, ELSE, WHILE, FUN, CLASS, RETURN, VAR, VAL, SYSCALL, EOF},
		},
		{
			"keyword prefixes are identifiers",
			"iffy println2 _val",
			[]TokenType{IDENTIFIER, IDENTIFIER, IDENTIFIER, EOF},
		},
		{
			"literals",
			`42 7L "hi" 'c' """a
b"""`,
			[]TokenType{INTEGER, INTEGER, STRING, CHAR, STRING, EOF},
		},
		{
			"comments are kept",
			"// head\nprintln(1) // tail",
			[]TokenType{COMMENT, PRINTLN, LPAREN, INTEGER, RPAREN, COMMENT, EOF},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts, err := Lex(tc.input)
			if err != nil {
				t.Fatalf("Lex failed: %v", err)
			}
			if got := tokenTypes(ts); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLexCoversSource(t *testing.T) {
	src := "println(\"a b\") // c\n  println('x')\n"
	ts, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}

	prevEnd := 0
	for i, tok := range ts.Tokens {
		if tok.Start < prevEnd {
			t.Errorf("token %d overlaps its predecessor", i)
		}
		if tok.Start > tok.End {
			t.Errorf("token %d has a negative width", i)
		}
		prevEnd = tok.End
	}

	want := Token{Type: EOF, Start: len(src), End: len(src)}
	if eof := ts.Tokens[ts.Len()-1]; eof != want {
		t.Errorf("last token = %+v; want %+v", eof, want)
	}
	for i, tok := range ts.Tokens[:ts.Len()-1] {
		if tok.Type == EOF {
			t.Errorf("EOF at %d before the end of the stream", i)
		}
	}

	texts := map[TokenIndex]string{2: `"a b"`, 4: "// c", 7: "'x'"}
	for idx, want := range texts {
		if got := ts.Text(idx); got != want {
			t.Errorf("Text(%d) = %q; want %q", idx, got, want)
		}
	}
	if loc := ts.Loc(5); loc != (Location{Line: 2, Column: 3}) {
		t.Errorf("Loc(5) = %s; want 2:3", loc)
	}
}

func TestLexIntegerSuffix(t *testing.T) {
	ts, err := Lex("12L 12abc")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	want := []TokenType{INTEGER, INTEGER, IDENTIFIER, EOF}
	if got := tokenTypes(ts); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if ts.Text(0) != "12L" || ts.Text(1) != "12" {
		t.Errorf("unexpected texts %q, %q", ts.Text(0), ts.Text(1))
	}
}

func TestLexInvalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		text   string
		reason string
		loc    Location
	}{
		{"stray byte", "println(1) @", "@", "unexpected character", Location{1, 12}},
		{"dot", "a.b", ".", "unexpected character", Location{1, 2}},
		{"unterminated string", "\"abc", "\"abc", "unterminated string literal", Location{1, 1}},
		{"newline in string", "\"ab\ncd\"", "\"ab", "unterminated string literal", Location{1, 1}},
		{"unterminated raw string", `"""abc`, `"""abc`, "unterminated multi-line string literal", Location{1, 1}},
		{"empty char", "''", "''", "character literal must contain exactly one byte", Location{1, 1}},
		{"long char", "\n 'ab'", "'ab'", "character literal must contain exactly one byte", Location{2, 2}},
		{"unterminated char", "'a", "'a", "unterminated character literal", Location{1, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts, err := Lex(tc.input)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}

			var lexErr *LexError
			if !errors.As(err, &lexErr) || len(lexErr.Invalid) == 0 {
				t.Fatalf("expected a *LexError with invalid tokens, got %v", err)
			}
			inv := lexErr.Invalid[0]
			if inv.Text != tc.text {
				t.Errorf("text = %q; want %q", inv.Text, tc.text)
			}
			if inv.Reason != tc.reason {
				t.Errorf("reason = %q; want %q", inv.Reason, tc.reason)
			}
			if inv.Loc != tc.loc {
				t.Errorf("loc = %s; want %s", inv.Loc, tc.loc)
			}

			if ts == nil {
				t.Fatal("token stream should still be returned")
			}
			if ts.At(inv.Index).Type != INVALID {
				t.Errorf("token %d is %s; want INVALID", inv.Index, ts.At(inv.Index).Type)
			}
			if last := ts.Tokens[ts.Len()-1]; last.Type != EOF {
				t.Errorf("stream ends with %s; want EOF", last.Type)
			}
		})
	}
}

func TestLexReportsEveryInvalidToken(t *testing.T) {
	_, err := Lex("@ println(1) $\n#")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected a *LexError, got %v", err)
	}
	if len(lexErr.Invalid) != 3 {
		t.Fatalf("expected 3 invalid tokens, got %d", len(lexErr.Invalid))
	}

	lexErr.File = "main.kt"
	want := "main.kt:1:1: invalid token: unexpected character \"@\"\n" +
		"main.kt:1:14: invalid token: unexpected character \"$\"\n" +
		"main.kt:2:1: invalid token: unexpected character \"#\""
	if got := lexErr.Error(); got != want {
		t.Errorf("Error() =\n%s\nwant\n%s", got, want)
	}
	if got := lexErr.Position(lexErr.Invalid[1]); got != "main.kt:1:14" {
		t.Errorf("Position = %q", got)
	}
	if got := lexErr.Invalid[2].Message(); got != `invalid token: unexpected character "#"` {
		t.Errorf("Message = %q", got)
	}
}

func TestLexErrorTruncatesText(t *testing.T) {
	err := &LexError{Invalid: []InvalidToken{{
		Loc:    Location{1, 1},
		Text:   `"abcdefghijklmnopqrstuvwxyz`,
		Reason: "unterminated string literal",
	}}}
	want := `1:1: invalid token: unterminated string literal "\"abcdefghijklmno..."`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %s; want %s", got, want)
	}
}
