package asm

import "strconv"

// Reg identifies one of the sixteen general purpose registers.
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// RegRef is a register name resolved to its slot and access width in bytes.
type RegRef struct {
	Reg   Reg
	Width int
}

var registers = map[string]RegRef{}

func init() {
	legacy := []struct {
		q, d, b string
	}{
		{"rax", "eax", "al"},
		{"rcx", "ecx", "cl"},
		{"rdx", "edx", "dl"},
		{"rbx", "ebx", "bl"},
		{"rsp", "esp", "spl"},
		{"rbp", "ebp", "bpl"},
		{"rsi", "esi", "sil"},
		{"rdi", "edi", "dil"},
	}
	for i, n := range legacy {
		registers[n.q] = RegRef{Reg: Reg(i), Width: 8}
		registers[n.d] = RegRef{Reg: Reg(i), Width: 4}
		registers[n.b] = RegRef{Reg: Reg(i), Width: 1}
	}
	for i := 8; i < 16; i++ {
		name := "r" + strconv.Itoa(i)
		registers[name] = RegRef{Reg: Reg(i), Width: 8}
		registers[name+"d"] = RegRef{Reg: Reg(i), Width: 4}
		registers[name+"b"] = RegRef{Reg: Reg(i), Width: 1}
	}
}

// LookupRegister resolves a register name given without the % sign.
func LookupRegister(name string) (RegRef, bool) {
	r, ok := registers[name]
	return r, ok
}

func isRegisterName(name string) bool {
	if name == "rip" {
		return true
	}
	_, ok := registers[name]
	return ok
}
