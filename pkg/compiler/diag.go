package compiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// SyntaxError is a parser diagnostic anchored on one token. Kind is
// ErrUnexpectedToken or ErrInvalidLiteral.
type SyntaxError struct {
	Kind     error
	File     string
	Loc      Location
	Token    Token
	Got      TokenType
	Expected []TokenType
	Detail   string

	// Context is the offending source line, clipped to the previous and
	// following tokens. Caret is the offset of the token inside Context.
	Context string
	Caret   int
}

func (e *SyntaxError) Unwrap() error { return e.Kind }

// Message is the diagnostic text without position or source context.
func (e *SyntaxError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch len(e.Expected) {
	case 0:
		return fmt.Sprintf("unexpected %s", e.Got)
	case 1:
		return fmt.Sprintf("expected %s, got %s", e.Expected[0], e.Got)
	}
	names := make([]string, len(e.Expected))
	for i, tt := range e.Expected {
		names[i] = tt.String()
	}
	return fmt.Sprintf("expected one of %s, got %s", strings.Join(names, ", "), e.Got)
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%s: %s: %s", e.File, e.Loc, e.Kind, e.Message())
}

// CaretLine is the marker line printed under Context: Caret spaces followed
// by one '^' per byte of the offending token.
func (e *SyntaxError) CaretLine() string {
	return strings.Repeat(" ", e.Caret) + strings.Repeat("^", e.Token.Len())
}

// Render writes the three-line caret diagnostic to w. Colour codes are only
// emitted when colored is set; callers decide that from the terminal.
func (e *SyntaxError) Render(w io.Writer, colored bool) error {
	bold := color.New(color.Bold)
	errLabel := color.New(color.FgRed, color.Bold)
	caret := color.New(color.FgGreen, color.Bold)
	for _, c := range []*color.Color{bold, errLabel, caret} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	_, err := fmt.Fprintf(w, "%s %s %s\n%s\n%s\n",
		bold.Sprintf("%s:%s:", e.File, e.Loc),
		errLabel.Sprint("error:"),
		e.Message(),
		e.Context,
		caret.Sprint(e.CaretLine()),
	)
	return err
}

func newSyntaxError(kind error, file string, ts *TokenStream, at TokenIndex) *SyntaxError {
	tok := ts.At(at)
	ctx, caret := sourceContext(ts, at)
	return &SyntaxError{
		Kind:    kind,
		File:    file,
		Loc:     ts.Loc(at),
		Token:   tok,
		Got:     tok.Type,
		Context: ctx,
		Caret:   caret,
	}
}

// sourceContext returns the text around token at: from the start of the
// previous token to the end of the following one, clipped to the line the
// offending token starts on. When that leaves nothing to show, as for EOF
// after a trailing newline, the previous token's line is used instead.
func sourceContext(ts *TokenStream, at TokenIndex) (string, int) {
	src := ts.Src
	tok := ts.At(at)

	lineStart := strings.LastIndexByte(src[:tok.Start], '\n') + 1
	lineEnd := len(src)
	if nl := strings.IndexByte(src[tok.Start:], '\n'); nl >= 0 {
		lineEnd = tok.Start + nl
	}

	from := lineStart
	if at > 0 {
		if prev := ts.At(at - 1); prev.Start > from {
			from = prev.Start
		}
	}
	to := lineEnd
	if int(at)+1 < ts.Len() {
		if next := ts.At(at + 1); next.End < to {
			to = next.End
		}
	}
	if to < tok.Start {
		to = tok.Start
	}

	if strings.TrimSpace(src[from:to]) == "" && at > 0 {
		return trailingContext(ts, at-1)
	}
	return blankControls(src[from:to]), tok.Start - from
}

// trailingContext is the whole line on which token at ends. The caret sits
// just past the end of the line.
func trailingContext(ts *TokenStream, at TokenIndex) (string, int) {
	src := ts.Src
	tok := ts.At(at)

	from := strings.LastIndexByte(src[:tok.Start], '\n') + 1
	to := len(src)
	if nl := strings.IndexByte(src[tok.End:], '\n'); nl >= 0 {
		to = tok.End + nl
	}
	text := strings.TrimRight(src[from:to], " \t\r")
	if nl := strings.LastIndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return blankControls(text), len(text)
}

func blankControls(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ").Replace(s)
}
