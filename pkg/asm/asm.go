// Package asm reads the x86-64 AT&T listing produced by the compiler back
// into a structured program: sections, labels, data bytes and decoded
// instructions. It understands the subset of GAS syntax the compiler emits.
package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// arity lists the accepted mnemonics and their operand counts.
var arity = map[string]int{
	"nop":     0,
	"ret":     0,
	"cqo":     0,
	"syscall": 0,

	"push": 1,
	"pop":  1,
	"neg":  1,
	"inc":  1,
	"dec":  1,
	"div":  1,
	"idiv": 1,
	"call": 1,
	"jmp":  1,
	"je":   1,
	"jz":   1,
	"jne":  1,
	"jnz":  1,
	"js":   1,
	"jns":  1,
	"jl":   1,
	"jle":  1,
	"jg":   1,
	"jge":  1,

	"mov":    2,
	"movq":   2,
	"movb":   2,
	"movabs": 2,
	"lea":    2,
	"add":    2,
	"sub":    2,
	"imul":   2,
	"and":    2,
	"or":     2,
	"xor":    2,
	"test":   2,
	"cmp":    2,
}

// Section identifies where a label points.
type Section int

const (
	SectionText Section = iota
	SectionData
)

func (s Section) String() string {
	if s == SectionData {
		return ".data"
	}
	return ".text"
}

// Symbol is a resolved label: an instruction index in .text or a byte
// offset in .data.
type Symbol struct {
	Section Section
	Addr    int
}

// OperandKind classifies an instruction operand.
type OperandKind int

const (
	Register  OperandKind = iota // %rax
	Immediate                    // $42, $label
	Memory                       // disp(%base), label(%rip)
	Target                       // bare label of a jump or call
)

// Operand is one decoded operand. Reg holds the register name without the
// % sign (the base register for Memory). Imm is the immediate value or the
// displacement. Symbol is set for label references.
type Operand struct {
	Kind   OperandKind
	Reg    string
	Imm    int64
	Symbol string
}

func (o Operand) String() string {
	switch o.Kind {
	case Register:
		return "%" + o.Reg
	case Immediate:
		if o.Symbol != "" {
			return "$" + o.Symbol
		}
		return fmt.Sprintf("$%d", o.Imm)
	case Memory:
		disp := o.Symbol
		if disp == "" && o.Imm != 0 {
			disp = strconv.FormatInt(o.Imm, 10)
		}
		return fmt.Sprintf("%s(%%%s)", disp, o.Reg)
	}
	return o.Symbol
}

// Instr is one decoded instruction. Operands are in AT&T order: source
// first, destination last.
type Instr struct {
	LineNo   int
	Mnemonic string
	Operands []Operand
}

func (in Instr) String() string {
	ops := make([]string, len(in.Operands))
	for i, o := range in.Operands {
		ops[i] = o.String()
	}
	return strings.TrimSpace(in.Mnemonic + " " + strings.Join(ops, ", "))
}

// Program is an assembled listing.
type Program struct {
	Text    []Instr
	Data    []byte
	Labels  map[string]Symbol
	Globals []string
}

// Lookup resolves a label.
func (p *Program) Lookup(name string) (Symbol, bool) {
	sym, ok := p.Labels[name]
	return sym, ok
}

type Assembler struct {
	labels map[string]Symbol
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]Symbol)}
}

func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*Program, error) {
	lines := strings.Split(code, "\n")

	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}

	if err := a.pass1(parsed); err != nil {
		return nil, err
	}
	return a.pass2(parsed)
}

// pass1 assigns every label its section and address.
func (a *Assembler) pass1(lines []parsedLine) error {
	section := SectionText
	textLen, dataLen := 0, 0

	for _, p := range lines {
		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
			}
			addr := textLen
			if section == SectionData {
				addr = dataLen
			}
			a.labels[lbl] = Symbol{Section: section, Addr: addr}
		}

		switch p.mnemonic {
		case "":
		case ".text":
			section = SectionText
		case ".data":
			section = SectionData
		case ".globl", ".global":
		case ".byte":
			if section != SectionData {
				return fmt.Errorf(".byte outside .data on line %d", p.lineNo)
			}
			dataLen += len(p.operands)
		case ".zero":
			n, err := parseCount(p)
			if err != nil {
				return err
			}
			dataLen += n
		default:
			if strings.HasPrefix(p.mnemonic, ".") {
				return fmt.Errorf("unknown directive on line %d: %s", p.lineNo, p.mnemonic)
			}
			if section != SectionText {
				return fmt.Errorf("instruction outside .text on line %d: %s", p.lineNo, p.mnemonic)
			}
			textLen++
		}
	}
	return nil
}

// pass2 decodes instructions and data and checks every label reference.
func (a *Assembler) pass2(lines []parsedLine) (*Program, error) {
	prog := &Program{Labels: a.labels}

	for _, p := range lines {
		switch p.mnemonic {
		case "", ".text", ".data":
			continue
		case ".globl", ".global":
			if len(p.operands) != 1 {
				return nil, fmt.Errorf("%s expects exactly one symbol on line %d", p.mnemonic, p.lineNo)
			}
			prog.Globals = append(prog.Globals, p.operands[0])
			continue
		case ".byte":
			for _, op := range p.operands {
				v, err := strconv.ParseInt(op, 0, 16)
				if err != nil || v < -128 || v > 255 {
					return nil, fmt.Errorf("invalid .byte value '%s' on line %d", op, p.lineNo)
				}
				prog.Data = append(prog.Data, byte(v))
			}
			continue
		case ".zero":
			n, _ := parseCount(p)
			prog.Data = append(prog.Data, make([]byte, n)...)
			continue
		}

		want, ok := arity[p.mnemonic]
		if !ok {
			return nil, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
		}
		if len(p.operands) != want {
			return nil, fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, want, p.lineNo)
		}

		in := Instr{LineNo: p.lineNo, Mnemonic: p.mnemonic}
		for _, raw := range p.operands {
			op, err := parseOperand(raw, p.lineNo)
			if err != nil {
				return nil, err
			}
			if op.Symbol != "" {
				if _, ok := a.labels[op.Symbol]; !ok {
					return nil, fmt.Errorf("undefined label '%s' on line %d", op.Symbol, p.lineNo)
				}
			}
			in.Operands = append(in.Operands, op)
		}
		prog.Text = append(prog.Text, in)
	}

	for _, g := range prog.Globals {
		if _, ok := a.labels[g]; !ok {
			return nil, fmt.Errorf("global symbol '%s' is never defined", g)
		}
	}
	return prog, nil
}

func parseCount(p parsedLine) (int, error) {
	if len(p.operands) != 1 {
		return 0, fmt.Errorf(".zero expects exactly one operand on line %d", p.lineNo)
	}
	n, err := strconv.Atoi(p.operands[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid .zero size '%s' on line %d", p.operands[0], p.lineNo)
	}
	return n, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}
		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}
		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	mnemonic, rest, _ := strings.Cut(line, " ")
	if tab := strings.IndexByte(mnemonic, '\t'); tab >= 0 {
		mnemonic, rest = mnemonic[:tab], mnemonic[tab+1:]+" "+rest
	}
	p.mnemonic = strings.ToLower(mnemonic)
	p.operands = splitOperands(rest)
	return p, nil
}

// stripComments drops a trailing # comment.
func stripComments(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// splitOperands splits on commas that are not inside parentheses.
func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func parseOperand(s string, lineNo int) (Operand, error) {
	switch {
	case s == "":
		return Operand{}, fmt.Errorf("empty operand on line %d", lineNo)

	case s[0] == '%':
		if !isRegisterName(s[1:]) {
			return Operand{}, fmt.Errorf("invalid register '%s' on line %d", s, lineNo)
		}
		return Operand{Kind: Register, Reg: s[1:]}, nil

	case s[0] == '$':
		if v, err := strconv.ParseInt(s[1:], 0, 64); err == nil {
			return Operand{Kind: Immediate, Imm: v}, nil
		}
		if isIdentifier(s[1:]) {
			return Operand{Kind: Immediate, Symbol: s[1:]}, nil
		}
		return Operand{}, fmt.Errorf("invalid immediate '%s' on line %d", s, lineNo)

	case strings.HasSuffix(s, ")"):
		open := strings.IndexByte(s, '(')
		if open < 0 {
			return Operand{}, fmt.Errorf("invalid memory operand '%s' on line %d", s, lineNo)
		}
		inner := s[open+1 : len(s)-1]
		if strings.Contains(inner, ",") {
			return Operand{}, fmt.Errorf("indexed addressing is not supported on line %d: %s", lineNo, s)
		}
		if len(inner) < 2 || inner[0] != '%' || !isRegisterName(inner[1:]) {
			return Operand{}, fmt.Errorf("invalid base register in '%s' on line %d", s, lineNo)
		}
		op := Operand{Kind: Memory, Reg: inner[1:]}
		disp := s[:open]
		if disp != "" {
			if v, err := strconv.ParseInt(disp, 0, 64); err == nil {
				op.Imm = v
			} else if isIdentifier(disp) {
				op.Symbol = disp
			} else {
				return Operand{}, fmt.Errorf("invalid displacement '%s' on line %d", disp, lineNo)
			}
		}
		return op, nil

	case isIdentifier(s):
		return Operand{Kind: Target, Symbol: s}, nil
	}
	return Operand{}, fmt.Errorf("invalid operand '%s' on line %d", s, lineNo)
}

// isIdentifier accepts GAS symbol names: letters, digits, '_' and '.', not
// starting with a digit.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '.':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
