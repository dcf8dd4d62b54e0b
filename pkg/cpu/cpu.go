// Package cpu interprets the x86-64 subset emitted by the compiler. It runs
// an asm.Program directly, with a flat little-endian memory, the sixteen
// general purpose registers, the flags the conditional jumps consult, and
// the write and exit system calls.
package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"

	"kotc/pkg/asm"
)

const (
	// MemSize is the size of the flat address space. The stack starts at
	// the top and grows down.
	MemSize  = 1 << 20
	// DataBase is where the .data section is loaded.
	DataBase = 0x1000
	// TextBase tags return addresses pushed by call. Text is not mapped
	// into memory; the instruction index is added to this base.
	TextBase = 0x4000_0000

	DefaultMaxSteps = 10_000_000
)

var (
	ErrDivide        = errors.New("divide error")
	ErrSegfault      = errors.New("segmentation fault")
	ErrBadReturn     = errors.New("return to a non-text address")
	ErrBadSyscall    = errors.New("unsupported system call")
	ErrStepLimit     = errors.New("step limit exceeded")
	ErrRanOff        = errors.New("execution ran past the end of .text")
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Syscalls holds the raw numbers the machine answers to.
type Syscalls struct {
	Write uint64
	Exit  uint64
}

var (
	LinuxSyscalls  = Syscalls{Write: 1, Exit: 60}
	DarwinSyscalls = Syscalls{Write: 0x2000004, Exit: 0x2000001}
)

type Machine struct {
	Regs [16]uint64
	RIP  int

	ZF, SF, CF, OF bool

	Memory []byte

	Halted   bool
	ExitCode int
	Steps    int
	MaxSteps int

	Syscalls Syscalls

	// Output receives writes to fd 1. If nil, os.Stdout is used.
	Output io.Writer
	// Errput receives writes to fd 2. If nil, os.Stderr is used.
	Errput io.Writer

	prog *asm.Program
}

// New loads prog into a fresh machine.
func New(prog *asm.Program) (*Machine, error) {
	if DataBase+len(prog.Data) > MemSize/2 {
		return nil, fmt.Errorf("data section of %d bytes does not fit", len(prog.Data))
	}
	m := &Machine{
		Memory:   make([]byte, MemSize),
		MaxSteps: DefaultMaxSteps,
		Syscalls: LinuxSyscalls,
		prog:     prog,
	}
	copy(m.Memory[DataBase:], prog.Data)
	m.Regs[asm.RSP] = MemSize
	return m, nil
}

func (m *Machine) outputSink(fd uint64) (io.Writer, bool) {
	switch fd {
	case 1:
		if m.Output != nil {
			return m.Output, true
		}
		return os.Stdout, true
	case 2:
		if m.Errput != nil {
			return m.Errput, true
		}
		return os.Stderr, true
	}
	return nil, false
}

// Run starts execution at the text label entry and steps until the program
// exits or faults.
func (m *Machine) Run(entry string) error {
	sym, ok := m.prog.Lookup(entry)
	if !ok || sym.Section != asm.SectionText {
		return fmt.Errorf("entry %q: %w", entry, ErrUnknownSymbol)
	}
	m.RIP = sym.Addr
	for !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
		return ErrStepLimit
	}
	if m.RIP < 0 || m.RIP >= len(m.prog.Text) {
		return ErrRanOff
	}
	in := m.prog.Text[m.RIP]
	m.RIP++
	m.Steps++

	if err := m.exec(in); err != nil {
		return fmt.Errorf("line %d: %s: %w", in.LineNo, in, err)
	}
	return nil
}

// width picks the operand size: an explicit b or q suffix wins, then the
// first register operand, then 8.
func width(in asm.Instr) int {
	switch in.Mnemonic {
	case "movb":
		return 1
	case "movq", "movabs":
		return 8
	}
	for _, op := range in.Operands {
		if op.Kind == asm.Register {
			if r, ok := asm.LookupRegister(op.Reg); ok {
				return r.Width
			}
		}
	}
	return 8
}

func (m *Machine) exec(in asm.Instr) error {
	w := width(in)
	ops := in.Operands

	switch in.Mnemonic {
	case "nop":

	case "mov", "movq", "movb", "movabs":
		v, err := m.read(ops[0], w)
		if err != nil {
			return err
		}
		return m.write(ops[1], w, v)

	case "lea":
		addr, err := m.address(ops[0])
		if err != nil {
			return err
		}
		return m.write(ops[1], 8, addr)

	case "add", "sub", "cmp", "imul", "and", "or", "xor", "test":
		src, err := m.read(ops[0], w)
		if err != nil {
			return err
		}
		dst, err := m.read(ops[1], w)
		if err != nil {
			return err
		}
		res, store := m.alu(in.Mnemonic, dst, src, w)
		if !store {
			return nil
		}
		return m.write(ops[1], w, res)

	case "neg", "inc", "dec":
		v, err := m.read(ops[0], w)
		if err != nil {
			return err
		}
		var res uint64
		switch in.Mnemonic {
		case "neg":
			res, _ = m.alu("sub", 0, v, w)
		case "inc":
			res, _ = m.alu("add", v, 1, w)
		case "dec":
			res, _ = m.alu("sub", v, 1, w)
		}
		return m.write(ops[0], w, res)

	case "cqo":
		m.Regs[asm.RDX] = uint64(int64(m.Regs[asm.RAX]) >> 63)

	case "div":
		d, err := m.read(ops[0], 8)
		if err != nil {
			return err
		}
		hi, lo := m.Regs[asm.RDX], m.Regs[asm.RAX]
		if d == 0 || hi >= d {
			return ErrDivide
		}
		m.Regs[asm.RAX], m.Regs[asm.RDX] = bits.Div64(hi, lo, d)

	case "idiv":
		v, err := m.read(ops[0], 8)
		if err != nil {
			return err
		}
		d := int64(v)
		a := int64(m.Regs[asm.RAX])
		if m.Regs[asm.RDX] != uint64(a>>63) {
			return fmt.Errorf("%w: 128-bit dividend", ErrDivide)
		}
		if d == 0 || (a == math.MinInt64 && d == -1) {
			return ErrDivide
		}
		m.Regs[asm.RAX] = uint64(a / d)
		m.Regs[asm.RDX] = uint64(a % d)

	case "push":
		v, err := m.read(ops[0], 8)
		if err != nil {
			return err
		}
		return m.push(v)

	case "pop":
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.write(ops[0], 8, v)

	case "call":
		target, err := m.jumpTarget(ops[0])
		if err != nil {
			return err
		}
		if err := m.push(uint64(TextBase + m.RIP)); err != nil {
			return err
		}
		m.RIP = target

	case "ret":
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v < TextBase || v > uint64(TextBase+len(m.prog.Text)) {
			return fmt.Errorf("%w: %#x", ErrBadReturn, v)
		}
		m.RIP = int(v - TextBase)

	case "syscall":
		return m.syscall()

	default:
		if cond, ok := m.condition(in.Mnemonic); ok {
			if !cond {
				return nil
			}
			target, err := m.jumpTarget(ops[0])
			if err != nil {
				return err
			}
			m.RIP = target
			return nil
		}
		return fmt.Errorf("unsupported instruction %s", in.Mnemonic)
	}
	return nil
}

// condition evaluates the jump mnemonics.
func (m *Machine) condition(mnemonic string) (bool, bool) {
	switch mnemonic {
	case "jmp":
		return true, true
	case "je", "jz":
		return m.ZF, true
	case "jne", "jnz":
		return !m.ZF, true
	case "js":
		return m.SF, true
	case "jns":
		return !m.SF, true
	case "jl":
		return m.SF != m.OF, true
	case "jge":
		return m.SF == m.OF, true
	case "jle":
		return m.ZF || m.SF != m.OF, true
	case "jg":
		return !m.ZF && m.SF == m.OF, true
	}
	return false, false
}

// alu computes dst op src at width w bytes and updates the flags. store is
// false for cmp and test, which only set flags.
func (m *Machine) alu(op string, dst, src uint64, w int) (res uint64, store bool) {
	shift := uint(64 - 8*w)
	sx := func(v uint64) int64 { return int64(v<<shift) >> shift }
	mask := ^uint64(0) >> shift

	m.CF, m.OF = false, false
	switch op {
	case "add":
		res = (dst + src) & mask
		m.CF = res < dst&mask
		m.OF = (sx(dst) >= 0) == (sx(src) >= 0) && (sx(res) >= 0) != (sx(dst) >= 0)
	case "sub", "cmp":
		res = (dst - src) & mask
		m.CF = src&mask > dst&mask
		m.OF = (sx(dst) >= 0) != (sx(src) >= 0) && (sx(res) >= 0) != (sx(dst) >= 0)
	case "imul":
		a, b := sx(dst), sx(src)
		full := a * b
		res = uint64(full) & mask
		m.OF = sx(res) != full || a != 0 && (full/a != b || a == -1 && b == math.MinInt64)
		m.CF = m.OF
	case "and", "test":
		res = dst & src & mask
	case "or":
		res = (dst | src) & mask
	case "xor":
		res = (dst ^ src) & mask
	}
	m.ZF = res == 0
	m.SF = sx(res) < 0
	return res, op != "cmp" && op != "test"
}

func (m *Machine) jumpTarget(op asm.Operand) (int, error) {
	sym, ok := m.prog.Lookup(op.Symbol)
	if op.Kind != asm.Target || !ok || sym.Section != asm.SectionText {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, op)
	}
	return sym.Addr, nil
}

// address computes the effective address of a memory operand.
func (m *Machine) address(op asm.Operand) (uint64, error) {
	if op.Kind != asm.Memory {
		return 0, fmt.Errorf("operand %s is not a memory reference", op)
	}
	if op.Reg == "rip" {
		sym, ok := m.prog.Lookup(op.Symbol)
		if !ok || sym.Section != asm.SectionData {
			return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, op.Symbol)
		}
		return uint64(DataBase + sym.Addr), nil
	}
	r, ok := asm.LookupRegister(op.Reg)
	if !ok || r.Width != 8 {
		return 0, fmt.Errorf("invalid base register %%%s", op.Reg)
	}
	base := m.Regs[r.Reg]
	if op.Symbol != "" {
		sym, ok := m.prog.Lookup(op.Symbol)
		if !ok || sym.Section != asm.SectionData {
			return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, op.Symbol)
		}
		base += uint64(DataBase + sym.Addr)
	}
	return base + uint64(op.Imm), nil
}

func (m *Machine) read(op asm.Operand, w int) (uint64, error) {
	switch op.Kind {
	case asm.Register:
		r, ok := asm.LookupRegister(op.Reg)
		if !ok {
			return 0, fmt.Errorf("invalid register %%%s", op.Reg)
		}
		return m.Regs[r.Reg] & (^uint64(0) >> uint(64-8*r.Width)), nil
	case asm.Immediate:
		if op.Symbol != "" {
			sym, ok := m.prog.Lookup(op.Symbol)
			if !ok || sym.Section != asm.SectionData {
				return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, op.Symbol)
			}
			return uint64(DataBase + sym.Addr), nil
		}
		return uint64(op.Imm), nil
	case asm.Memory:
		addr, err := m.address(op)
		if err != nil {
			return 0, err
		}
		return m.load(addr, w)
	}
	return 0, fmt.Errorf("operand %s cannot be read", op)
}

func (m *Machine) write(op asm.Operand, w int, v uint64) error {
	switch op.Kind {
	case asm.Register:
		r, ok := asm.LookupRegister(op.Reg)
		if !ok {
			return fmt.Errorf("invalid register %%%s", op.Reg)
		}
		switch r.Width {
		case 8:
			m.Regs[r.Reg] = v
		case 4:
			m.Regs[r.Reg] = v & math.MaxUint32
		case 1:
			m.Regs[r.Reg] = m.Regs[r.Reg]&^0xff | v&0xff
		}
		return nil
	case asm.Memory:
		addr, err := m.address(op)
		if err != nil {
			return err
		}
		return m.store(addr, w, v)
	}
	return fmt.Errorf("operand %s cannot be written", op)
}

func (m *Machine) check(addr uint64, n int) error {
	if addr < DataBase || addr > MemSize || uint64(n) > MemSize-addr {
		return fmt.Errorf("%w: access of %d bytes at %#x", ErrSegfault, n, addr)
	}
	return nil
}

func (m *Machine) load(addr uint64, w int) (uint64, error) {
	if err := m.check(addr, w); err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:w], m.Memory[addr:addr+uint64(w)])
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (m *Machine) store(addr uint64, w int, v uint64) error {
	if err := m.check(addr, w); err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	copy(m.Memory[addr:addr+uint64(w)], buf[:w])
	return nil
}

func (m *Machine) push(v uint64) error {
	sp := m.Regs[asm.RSP] - 8
	if err := m.store(sp, 8, v); err != nil {
		return err
	}
	m.Regs[asm.RSP] = sp
	return nil
}

func (m *Machine) pop() (uint64, error) {
	sp := m.Regs[asm.RSP]
	v, err := m.load(sp, 8)
	if err != nil {
		return 0, err
	}
	m.Regs[asm.RSP] = sp + 8
	return v, nil
}

// ReadBytes copies n bytes starting at addr out of memory.
func (m *Machine) ReadBytes(addr uint64, n int) ([]byte, error) {
	if err := m.check(addr, n); err != nil {
		return nil, err
	}
	return append([]byte(nil), m.Memory[addr:addr+uint64(n)]...), nil
}

func (m *Machine) syscall() error {
	switch m.Regs[asm.RAX] {
	case m.Syscalls.Write:
		sink, ok := m.outputSink(m.Regs[asm.RDI])
		if !ok {
			return fmt.Errorf("%w: write to fd %d", ErrBadSyscall, m.Regs[asm.RDI])
		}
		buf, err := m.ReadBytes(m.Regs[asm.RSI], int(m.Regs[asm.RDX]))
		if err != nil {
			return err
		}
		n, err := sink.Write(buf)
		if err != nil {
			return err
		}
		m.Regs[asm.RAX] = uint64(n)
	case m.Syscalls.Exit:
		m.Halted = true
		m.ExitCode = int(int32(m.Regs[asm.RDI]))
	default:
		return fmt.Errorf("%w: %d", ErrBadSyscall, m.Regs[asm.RAX])
	}
	return nil
}

// RunSource assembles src and runs it from entry, collecting fd 1 into out.
func RunSource(src, entry string, sys Syscalls, out io.Writer) (*Machine, error) {
	prog, err := asm.Assemble(src)
	if err != nil {
		return nil, err
	}
	m, err := New(prog)
	if err != nil {
		return nil, err
	}
	m.Syscalls = sys
	m.Output = out
	return m, m.Run(entry)
}
