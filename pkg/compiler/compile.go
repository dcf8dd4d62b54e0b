package compiler

import (
	"errors"
	"io"
)

// Compile runs the whole pipeline over one source unit and writes the
// assembly to w. file is only used in diagnostics.
//
// Lexer errors are reported as a single *LexError once the whole buffer has
// been scanned; parsing does not start in that case. The returned Program is
// nil unless parsing succeeded.
func Compile(file, src string, w io.Writer, target Target) (*Program, error) {
	toks, err := Lex(src)
	if err != nil {
		var lexErr *LexError
		if errors.As(err, &lexErr) {
			lexErr.File = file
		}
		return nil, err
	}

	prog, err := Parse(file, toks)
	if err != nil {
		return nil, err
	}

	if err := Generate(w, prog, target); err != nil {
		return prog, err
	}
	return prog, nil
}
