package cpu

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"kotc/pkg/asm"
)

func run(t *testing.T, src string) (*Machine, string, error) {
	t.Helper()
	var out bytes.Buffer
	m, err := RunSource(src, "_start", LinuxSyscalls, &out)
	return m, out.String(), err
}

// runRegs executes src until it falls off the end of .text, leaving every
// register as the last instruction set it.
func runRegs(t *testing.T, src string) *Machine {
	t.Helper()
	m, _, err := run(t, src)
	if !errors.Is(err, ErrRanOff) {
		t.Fatalf("expected the program to run off .text, got %v", err)
	}
	return m
}

const exit0 = "  mov $60, %rax\n  xor %rdi, %rdi\n  syscall\n"

func TestWriteAndExit(t *testing.T) {
	src := `  .data
msg:
  .byte 104,105,10
  .text
_start:
  lea msg(%rip), %rsi
  mov $3, %rdx
  mov $1, %rdi
  mov $1, %rax
  syscall
  mov $60, %rax
  mov $7, %rdi
  syscall
`
	m, out, err := run(t, src)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "hi\n" {
		t.Errorf("expected output %q, got %q", "hi\n", out)
	}
	if !m.Halted {
		t.Error("expected machine to be halted")
	}
	if m.ExitCode != 7 {
		t.Errorf("expected exit code 7, got %d", m.ExitCode)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		body string
		reg  asm.Reg
		want int64
	}{
		{"add", "  mov $2, %rax\n  mov $40, %rdi\n  add %rdi, %rax\n", asm.RAX, 42},
		{"sub", "  mov $10, %rax\n  mov $3, %rdi\n  sub %rdi, %rax\n", asm.RAX, 7},
		{"imul", "  mov $-6, %rax\n  mov $7, %rdi\n  imul %rdi, %rax\n", asm.RAX, -42},
		{"neg", "  mov $5, %rax\n  neg %rax\n", asm.RAX, -5},
		{"idiv quotient", "  mov $-7, %rax\n  mov $2, %rdi\n  cqo\n  idiv %rdi\n", asm.RAX, -3},
		{"idiv remainder", "  mov $-7, %rax\n  mov $2, %rdi\n  cqo\n  idiv %rdi\n", asm.RDX, -1},
		{"div", "  mov $100, %rax\n  xor %rdx, %rdx\n  mov $7, %rcx\n  div %rcx\n", asm.RDX, 2},
		{"byte add keeps upper bits", "  mov $0x100, %rdx\n  add $48, %dl\n", asm.RDX, 0x130},
		{"movabs", "  movabs $-9223372036854775808, %rax\n", asm.RAX, math.MinInt64},
		{"push pop", "  mov $9, %rax\n  push %rax\n  pop %rbx\n", asm.RBX, 9},
		{"dec", "  mov $1, %r8\n  dec %r8\n", asm.R8, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := runRegs(t, "_start:\n"+tc.body)
			if got := int64(m.Regs[tc.reg]); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestExitStatusFromRegister(t *testing.T) {
	src := "_start:\n  mov $6, %rax\n  mov $7, %rdi\n  imul %rdi, %rax\n  mov %rax, %rdi\n  mov $60, %rax\n  syscall\n"
	m, _, err := run(t, src)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.ExitCode != 42 {
		t.Errorf("expected exit code 42, got %d", m.ExitCode)
	}
}

func TestMemoryByteStore(t *testing.T) {
	src := "_start:\n  lea -1(%rsp), %rsi\n  movb $45, (%rsi)\n  mov $1, %rax\n  mov $1, %rdi\n  mov $1, %rdx\n  syscall\n" + exit0
	_, out, err := run(t, src)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "-" {
		t.Errorf("expected output %q, got %q", "-", out)
	}
}

func TestConditionalJumps(t *testing.T) {
	src := `_start:
  mov $3, %rcx
  xor %rax, %rax
again:
  add $10, %rax
  dec %rcx
  jnz again
  mov $5, %rdi
  cmp $7, %rdi
  jl less
  mov $99, %rbx
  jmp done
less:
  mov $1, %rbx
done:
  nop
`
	m := runRegs(t, src)
	if m.Regs[asm.RAX] != 30 {
		t.Errorf("expected rax 30, got %d", m.Regs[asm.RAX])
	}
	if m.Regs[asm.RBX] != 1 {
		t.Errorf("expected rbx 1, got %d", m.Regs[asm.RBX])
	}
}

func TestCallAndReturn(t *testing.T) {
	src := `double:
  add %rdi, %rdi
  mov %rdi, %rax
  ret
_start:
  mov $21, %rdi
  call double
`
	m := runRegs(t, src)
	if m.Regs[asm.RAX] != 42 {
		t.Errorf("expected rax 42, got %d", m.Regs[asm.RAX])
	}
	if m.Regs[asm.RSP] != MemSize {
		t.Errorf("expected rsp back at %#x, got %#x", MemSize, m.Regs[asm.RSP])
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"divide by zero", "_start:\n  mov $1, %rax\n  xor %rdi, %rdi\n  cqo\n  idiv %rdi\n", ErrDivide},
		{"idiv overflow", "_start:\n  movabs $-9223372036854775808, %rax\n  mov $-1, %rdi\n  cqo\n  idiv %rdi\n", ErrDivide},
		{"ran off", "_start:\n  nop\n", ErrRanOff},
		{"bad return", "_start:\n  mov $5, %rax\n  push %rax\n  ret\n", ErrBadReturn},
		{"segfault", "_start:\n  xor %rsi, %rsi\n  mov (%rsi), %rax\n", ErrSegfault},
		{"bad syscall", "_start:\n  mov $999, %rax\n  syscall\n", ErrBadSyscall},
		{"missing entry", "main:\n  nop\n", ErrUnknownSymbol},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, tc.src)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStepLimit(t *testing.T) {
	prog, err := asm.Assemble("_start:\n  jmp _start\n")
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	m, err := New(prog)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.MaxSteps = 100
	if err := m.Run("_start"); !errors.Is(err, ErrStepLimit) {
		t.Errorf("expected step limit error, got %v", err)
	}
	if m.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", m.Steps)
	}
}

func TestDarwinSyscalls(t *testing.T) {
	src := "_main:\n  mov $0x2000001, %rax\n  mov $3, %rdi\n  syscall\n"
	var out bytes.Buffer
	m, err := RunSource(src, "_main", DarwinSyscalls, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", m.ExitCode)
	}
}
