package compiler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToken indicates the lexer met bytes it could not classify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnexpectedToken indicates a token the grammar does not allow here.
	ErrUnexpectedToken = errors.New("unexpected token")

	// ErrInvalidLiteral indicates a well-formed literal whose value does not
	// fit its type.
	ErrInvalidLiteral = errors.New("invalid literal")

	// ErrUnimplemented indicates a node kind with no lowering yet.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrUnreachable indicates an internally impossible state.
	ErrUnreachable = errors.New("unreachable")
)

// InvalidToken describes one INVALID token found during lexing.
type InvalidToken struct {
	Index  TokenIndex
	Loc    Location
	Text   string
	Reason string
}

// LexError aggregates every invalid token of one lexing pass.
type LexError struct {
	File    string
	Invalid []InvalidToken
}

func (e *LexError) Error() string {
	lines := make([]string, len(e.Invalid))
	for i, inv := range e.Invalid {
		lines[i] = e.Position(inv) + ": " + inv.Message()
	}
	return strings.Join(lines, "\n")
}

// Position is the file:line:col prefix of one invalid token.
func (e *LexError) Position(inv InvalidToken) string {
	if e.File == "" {
		return inv.Loc.String()
	}
	return e.File + ":" + inv.Loc.String()
}

// Message describes one invalid token without its position.
func (inv InvalidToken) Message() string {
	return fmt.Sprintf("%s: %s %q", ErrInvalidToken, inv.Reason, truncate(inv.Text, 16))
}

func (e *LexError) Unwrap() error { return ErrInvalidToken }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// CodegenError reports a node the generator cannot lower. Kind is
// ErrUnimplemented or ErrUnreachable.
type CodegenError struct {
	Kind error
	Node NodeIndex
	What string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("codegen: %s: %s (node %d)", e.Kind, e.What, e.Node)
}

func (e *CodegenError) Unwrap() error { return e.Kind }

func unimplemented(idx NodeIndex, format string, args ...any) error {
	return &CodegenError{Kind: ErrUnimplemented, Node: idx, What: fmt.Sprintf(format, args...)}
}

func unreachable(idx NodeIndex, format string, args ...any) error {
	return &CodegenError{Kind: ErrUnreachable, Node: idx, What: fmt.Sprintf(format, args...)}
}
