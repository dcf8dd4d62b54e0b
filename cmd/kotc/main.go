package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"kotc/pkg/compiler"
)

// Process exit codes.
const (
	exitOK       = 0
	exitInput    = 1 // invalid token, unreadable file, bad configuration
	exitSyntax   = 2 // unexpected token or invalid literal
	exitInternal = 3 // construct not lowered yet, or an internal invariant broke
)

func main() {
	err := Execute()
	if err == nil {
		os.Exit(exitOK)
	}
	report(os.Stderr, err, useColor(settings.cfg.Diagnostics.Color, os.Stderr))
	os.Exit(exitCode(err))
}

// useColor resolves the auto/always/never setting for f.
func useColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
}

// exitCode maps an error to the process status. With several unit errors
// the most severe class wins.
func exitCode(err error) int {
	var status exitStatus
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &status):
		return int(status)
	case errors.Is(err, compiler.ErrUnimplemented), errors.Is(err, compiler.ErrUnreachable):
		return exitInternal
	case errors.Is(err, compiler.ErrUnexpectedToken), errors.Is(err, compiler.ErrInvalidLiteral):
		return exitSyntax
	}
	return exitInput
}

// report prints err to w: syntax errors as caret diagnostics, one line per
// invalid token for lexer errors, everything else as one "error:" line per
// failure.
func report(w io.Writer, err error, colored bool) {
	label := color.New(color.FgRed, color.Bold)
	bold := color.New(color.Bold)
	for _, c := range []*color.Color{label, bold} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, e := range flatten(err) {
		var se *compiler.SyntaxError
		if errors.As(e, &se) {
			_ = se.Render(w, colored)
			continue
		}
		var le *compiler.LexError
		if errors.As(e, &le) {
			for _, inv := range le.Invalid {
				fmt.Fprintf(w, "%s %s %s\n", bold.Sprint(le.Position(inv)+":"), label.Sprint("error:"), inv.Message())
			}
			continue
		}
		var status exitStatus
		if errors.As(e, &status) {
			continue
		}
		fmt.Fprintf(w, "%s %v\n", label.Sprint("error:"), e)
	}
}

// flatten expands errors.Join trees into their leaves.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
