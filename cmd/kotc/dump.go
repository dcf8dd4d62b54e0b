package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kotc/pkg/compiler"
)

var (
	dumpTokens bool
	dumpNodes  bool
	dumpAsm    bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.kt>",
	Short: "Print the tokens, node arena and assembly of a source file",
	Long:  "Print each compiler stage for one source file. With no stage flag all stages are printed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpTokens, "tokens", false, "Print the token stream")
	dumpCmd.Flags().BoolVar(&dumpNodes, "nodes", false, "Print the node arena")
	dumpCmd.Flags().BoolVar(&dumpAsm, "asm", false, "Print the generated assembly")
}

func runDump(cmd *cobra.Command, args []string) error {
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	all := !dumpTokens && !dumpNodes && !dumpAsm
	out := cmd.OutOrStdout()

	toks, err := compiler.Lex(string(src))
	if all || dumpTokens {
		printTokens(out, toks)
	}
	if err != nil {
		var lexErr *compiler.LexError
		if errors.As(err, &lexErr) {
			lexErr.File = file
		}
		return err
	}

	prog, err := compiler.Parse(file, toks)
	if err != nil {
		return err
	}
	if all || dumpNodes {
		printNodes(out, prog)
	}

	if all || dumpAsm {
		var listing bytes.Buffer
		if err := compiler.Generate(&listing, prog, settings.target); err != nil {
			return err
		}
		fmt.Fprintln(out, "Generated Assembly")
		fmt.Fprint(out, listing.String())
		fmt.Fprintln(out)
	}
	return nil
}

func printTokens(w io.Writer, ts *compiler.TokenStream) {
	fmt.Fprintf(w, "Tokens (%d)\n", ts.Len())
	for i, tok := range ts.Tokens {
		idx := compiler.TokenIndex(i)
		fmt.Fprintf(w, "  %4d %-7s %s %q\n", i, ts.Loc(idx), tok, ts.Text(idx))
	}
	fmt.Fprintln(w)
}

func printNodes(w io.Writer, prog *compiler.Program) {
	s := prog.Store
	fmt.Fprintf(w, "Nodes (%d)\n", s.NumNodes())
	for i, n := range s.Nodes() {
		typ := "-"
		if t := n.TypeOf(); t != compiler.NoType {
			typ = s.Type(t).String()
		}
		span := n.Span()
		fmt.Fprintf(w, "  #%-3d %-24s : %-8s tokens %d..%d\n", i, n, typ, span.First, span.Last)
	}
	fmt.Fprintf(w, "Statements %v\n", prog.Stmts())
	fmt.Fprintln(w)
}
