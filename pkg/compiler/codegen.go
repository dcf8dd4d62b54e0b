package compiler

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
)

// emitter is the state of one code generation pass. Output is buffered so
// that nothing reaches the sink unless the whole unit lowers.
type emitter struct {
	out    bytes.Buffer
	prog   *Program
	store  *Store
	target Target
	depth  int // values currently pushed on the hardware stack
}

func newEmitter(prog *Program, target Target) *emitter {
	return &emitter{prog: prog, store: prog.Store, target: target}
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.out, format+"\n", args...)
}

func (e *emitter) push() {
	e.line("  push %%rax")
	e.depth++
}

func (e *emitter) pop(reg string) {
	e.line("  pop %s", reg)
	e.depth--
}

// DataLabel is the label of the string literal defined by token tok.
func DataLabel(tok TokenIndex) string {
	return fmt.Sprintf("L%d", tok)
}

// emitData lists every string object as a labelled byte sequence.
func (e *emitter) emitData() {
	e.line("  .data")
	for _, obj := range e.store.Objects() {
		e.line("%s:", DataLabel(obj.Token))
		if len(obj.Value) == 0 {
			continue
		}
		parts := make([]string, len(obj.Value))
		for i := 0; i < len(obj.Value); i++ {
			parts[i] = fmt.Sprintf("%d", obj.Value[i])
		}
		e.line("  .byte %s", strings.Join(parts, ","))
	}
}

func (e *emitter) prologue() {
	e.line("  .globl %s", e.target.Entry)
	e.line("%s:", e.target.Entry)
	e.line("  push %%rbp")
	e.line("  mov %%rsp, %%rbp")
	e.line("  sub $%d, %%rsp", e.target.StackSize)
}

func (e *emitter) epilogue() {
	e.line("  mov $%d, %%rax", e.target.ExitSyscall)
	e.line("  xor %%rdi, %%rdi")
	e.line("  syscall")
}

// genExpr leaves the value of node idx in %rax.
func (e *emitter) genExpr(idx NodeIndex) error {
	switch n := e.store.Node(idx).(type) {
	case IntLit:
		if n.Value >= math.MinInt32 && n.Value <= math.MaxInt32 {
			e.line("  mov $%d, %%rax", n.Value)
		} else {
			e.line("  movabs $%d, %%rax", n.Value)
		}
		return nil

	case Binary:
		return e.genBinary(idx, n)

	case BoolLit:
		return unimplemented(idx, "boolean literal expression")
	case CharLit:
		return unimplemented(idx, "char literal expression")
	case StringLit:
		return unimplemented(idx, "string literal expression")

	default:
		return unimplemented(idx, "%s expression", n.Kind())
	}
}

// genBinary lowers a binary operator through the stack. For sub and div the
// right operand is evaluated first and pushed, so the left one lands in %rax
// as minuend or dividend. Add and mul are evaluated left to right.
func (e *emitter) genBinary(idx NodeIndex, n Binary) error {
	var first, second NodeIndex
	switch n.Op {
	case OpAdd, OpMul:
		first, second = n.Left, n.Right
	case OpSub:
		first, second = n.Right, n.Left
	case OpDiv:
		if lit, ok := e.store.Node(n.Right).(IntLit); ok && lit.Value == 0 {
			return unimplemented(idx, "division by zero")
		}
		first, second = n.Right, n.Left
	case OpMod:
		return unimplemented(idx, "modulo operator")
	default:
		return unimplemented(idx, "%s operator", n.Op)
	}

	if err := e.genExpr(first); err != nil {
		return err
	}
	e.push()
	if err := e.genExpr(second); err != nil {
		return err
	}
	e.pop("%rdi")

	switch n.Op {
	case OpAdd:
		// %rax = right, %rdi = left
		e.line("  add %%rdi, %%rax")
	case OpMul:
		e.line("  imul %%rdi, %%rax")
	case OpSub:
		// %rax = left, %rdi = right
		e.line("  sub %%rdi, %%rax")
	case OpDiv:
		e.line("  cqo")
		e.line("  idiv %%rdi")
	}
	return nil
}

func (e *emitter) genStmt(idx NodeIndex) error {
	switch n := e.store.Node(idx).(type) {
	case Println:
		loc := e.prog.Tokens.Loc(n.Tokens.First)
		e.line("  # println at %s:%s", e.prog.File, loc)
		if err := e.genExpr(n.Arg); err != nil {
			return err
		}
		e.line("  mov %%rax, %%rdi")
		e.line("  call %s", PrintIntSymbol)
	default:
		return unreachable(idx, "%s is not a statement", n.Kind())
	}

	if e.depth != 0 {
		return unreachable(idx, "stack depth %d after statement", e.depth)
	}
	return nil
}

func (e *emitter) emitProgram() error {
	e.emitData()

	e.line("\n  .text")
	e.emitPrintInt()

	e.out.WriteByte('\n')
	e.prologue()
	for _, stmt := range e.prog.Stmts() {
		if err := e.genStmt(stmt); err != nil {
			return err
		}
	}
	e.epilogue()
	return nil
}

// Generate lowers prog to x86-64 AT&T assembly for target and writes it to
// w. Nothing is written when lowering fails.
func Generate(w io.Writer, prog *Program, target Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	e := newEmitter(prog, target)
	if err := e.emitProgram(); err != nil {
		return err
	}
	_, err := e.out.WriteTo(w)
	return err
}
