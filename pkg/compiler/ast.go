package compiler

import (
	"fmt"
	"strings"
)

// NodeKind names the variant of a Node. It is used for diagnostics and
// dumps; code dispatches on the concrete type.
type NodeKind int

const (
	NodePrintln NodeKind = iota
	NodeBoolLit
	NodeStringLit
	NodeIntLit
	NodeCharLit
	NodeBinary
	NodeNot
	NodeIf
	NodeBlock
	NodeVarRef
	NodeAssign
	NodeWhile
	NodeFunDecl
	NodeCall
	NodeReturn
	NodeSyscall
	NodeClassDecl
	NodeInstance
	NodeMember
)

var nodeKindNames = [...]string{
	NodePrintln:   "Println",
	NodeBoolLit:   "BoolLit",
	NodeStringLit: "StringLit",
	NodeIntLit:    "IntLit",
	NodeCharLit:   "CharLit",
	NodeBinary:    "Binary",
	NodeNot:       "Not",
	NodeIf:        "If",
	NodeBlock:     "Block",
	NodeVarRef:    "VarRef",
	NodeAssign:    "Assign",
	NodeWhile:     "While",
	NodeFunDecl:   "FunDecl",
	NodeCall:      "Call",
	NodeReturn:    "Return",
	NodeSyscall:   "Syscall",
	NodeClassDecl: "ClassDecl",
	NodeInstance:  "Instance",
	NodeMember:    "Member",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Span is the inclusive range of tokens a node was parsed from.
type Span struct {
	First TokenIndex
	Last  TokenIndex
}

// Base carries the fields every node variant has.
type Base struct {
	Tokens Span
	Type   TypeIndex
}

func (b Base) Span() Span            { return b.Tokens }
func (b Base) TypeOf() TypeIndex     { return b.Type }
func (b Base) Children() []NodeIndex { return nil }

// Node is one AST entry in a Store. Nodes refer to each other, to tokens and
// to types by index only, and are never modified after AddNode.
type Node interface {
	Kind() NodeKind
	Span() Span
	TypeOf() TypeIndex
	// Children lists every child node index. Each is smaller than the
	// node's own index.
	Children() []NodeIndex
	String() string
}

// Println is the println(expr) intrinsic statement.
type Println struct {
	Base
	Arg NodeIndex
}

func (Println) Kind() NodeKind          { return NodePrintln }
func (n Println) Children() []NodeIndex { return []NodeIndex{n.Arg} }
func (n Println) String() string        { return fmt.Sprintf("Println(#%d)", n.Arg) }

// BoolLit is true or false.
type BoolLit struct {
	Base
	Value bool
}

func (BoolLit) Kind() NodeKind   { return NodeBoolLit }
func (n BoolLit) String() string { return fmt.Sprintf("BoolLit(%t)", n.Value) }

// StringLit refers to the StringObject holding its payload.
type StringLit struct {
	Base
	Object ObjectIndex
}

func (StringLit) Kind() NodeKind   { return NodeStringLit }
func (n StringLit) String() string { return fmt.Sprintf("StringLit(obj %d)", n.Object) }

// IntLit is an integer literal; Type is Int or Long.
type IntLit struct {
	Base
	Value int64
}

func (IntLit) Kind() NodeKind   { return NodeIntLit }
func (n IntLit) String() string { return fmt.Sprintf("IntLit(%d)", n.Value) }

// CharLit is a single-byte character literal.
type CharLit struct {
	Base
	Value byte
}

func (CharLit) Kind() NodeKind   { return NodeCharLit }
func (n CharLit) String() string { return fmt.Sprintf("CharLit(%q)", n.Value) }

// BinaryOp selects the operator of a Binary node.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpEq
	OpNotEq
)

var binaryOpSymbols = [...]string{
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpMod:       "%",
	OpLess:      "<",
	OpLessEq:    "<=",
	OpGreater:   ">",
	OpGreaterEq: ">=",
	OpEq:        "==",
	OpNotEq:     "!=",
}

func (op BinaryOp) String() string {
	if int(op) >= 0 && int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// Binary is Left Op Right.
//
//	1 - 2
//	^ ^ ^
//	| | Right
//	| Op
//	Left
type Binary struct {
	Base
	Op    BinaryOp
	Left  NodeIndex
	Right NodeIndex
}

func (Binary) Kind() NodeKind          { return NodeBinary }
func (n Binary) Children() []NodeIndex { return []NodeIndex{n.Left, n.Right} }
func (n Binary) String() string {
	return fmt.Sprintf("Binary(#%d %s #%d)", n.Left, n.Op, n.Right)
}

// Not is !Operand.
type Not struct {
	Base
	Operand NodeIndex
}

func (Not) Kind() NodeKind          { return NodeNot }
func (n Not) Children() []NodeIndex { return []NodeIndex{n.Operand} }
func (n Not) String() string        { return fmt.Sprintf("Not(#%d)", n.Operand) }

// If is if (Cond) Then [else Else]. Else is NoNode when absent.
type If struct {
	Base
	Cond NodeIndex
	Then NodeIndex
	Else NodeIndex
}

func (If) Kind() NodeKind { return NodeIf }
func (n If) Children() []NodeIndex {
	if n.Else == NoNode {
		return []NodeIndex{n.Cond, n.Then}
	}
	return []NodeIndex{n.Cond, n.Then, n.Else}
}
func (n If) String() string { return fmt.Sprintf("If(#%d, #%d, #%d)", n.Cond, n.Then, n.Else) }

// Block is { Stmts... }.
type Block struct {
	Base
	Stmts []NodeIndex
}

func (Block) Kind() NodeKind          { return NodeBlock }
func (n Block) Children() []NodeIndex { return n.Stmts }
func (n Block) String() string        { return "Block" + indexList(n.Stmts) }

// VarRef reads the variable named by token Name.
type VarRef struct {
	Base
	Name TokenIndex
}

func (VarRef) Kind() NodeKind   { return NodeVarRef }
func (n VarRef) String() string { return fmt.Sprintf("VarRef(tok %d)", n.Name) }

// Assign stores Value into the variable named by token Target.
type Assign struct {
	Base
	Target TokenIndex
	Value  NodeIndex
}

func (Assign) Kind() NodeKind          { return NodeAssign }
func (n Assign) Children() []NodeIndex { return []NodeIndex{n.Value} }
func (n Assign) String() string        { return fmt.Sprintf("Assign(tok %d, #%d)", n.Target, n.Value) }

// While is while (Cond) Body.
type While struct {
	Base
	Cond NodeIndex
	Body NodeIndex
}

func (While) Kind() NodeKind          { return NodeWhile }
func (n While) Children() []NodeIndex { return []NodeIndex{n.Cond, n.Body} }
func (n While) String() string        { return fmt.Sprintf("While(#%d, #%d)", n.Cond, n.Body) }

// FunDecl is fun Name(Params) Body.
type FunDecl struct {
	Base
	Name   TokenIndex
	Params []TokenIndex
	Body   NodeIndex
}

func (FunDecl) Kind() NodeKind          { return NodeFunDecl }
func (n FunDecl) Children() []NodeIndex { return []NodeIndex{n.Body} }
func (n FunDecl) String() string {
	return fmt.Sprintf("FunDecl(tok %d, %d params, #%d)", n.Name, len(n.Params), n.Body)
}

// Call is Callee(Args...).
type Call struct {
	Base
	Callee TokenIndex
	Args   []NodeIndex
}

func (Call) Kind() NodeKind          { return NodeCall }
func (n Call) Children() []NodeIndex { return n.Args }
func (n Call) String() string        { return fmt.Sprintf("Call(tok %d, %s)", n.Callee, indexList(n.Args)) }

// Return is return [Value]. Value is NoNode for a bare return.
type Return struct {
	Base
	Value NodeIndex
}

func (Return) Kind() NodeKind { return NodeReturn }
func (n Return) Children() []NodeIndex {
	if n.Value == NoNode {
		return nil
	}
	return []NodeIndex{n.Value}
}
func (n Return) String() string { return fmt.Sprintf("Return(#%d)", n.Value) }

// Syscall is a raw syscall(number, args...).
type Syscall struct {
	Base
	Args []NodeIndex
}

func (Syscall) Kind() NodeKind          { return NodeSyscall }
func (n Syscall) Children() []NodeIndex { return n.Args }
func (n Syscall) String() string        { return "Syscall" + indexList(n.Args) }

// ClassDecl is class Name { Members... }.
type ClassDecl struct {
	Base
	Name    TokenIndex
	Members []NodeIndex
}

func (ClassDecl) Kind() NodeKind          { return NodeClassDecl }
func (n ClassDecl) Children() []NodeIndex { return n.Members }
func (n ClassDecl) String() string {
	return fmt.Sprintf("ClassDecl(tok %d, %s)", n.Name, indexList(n.Members))
}

// Instance constructs an object of the class type Type.
type Instance struct {
	Base
	Args []NodeIndex
}

func (Instance) Kind() NodeKind          { return NodeInstance }
func (n Instance) Children() []NodeIndex { return n.Args }
func (n Instance) String() string        { return "Instance" + indexList(n.Args) }

// Member is Object.Member.
type Member struct {
	Base
	Object NodeIndex
	Member TokenIndex
}

func (Member) Kind() NodeKind          { return NodeMember }
func (n Member) Children() []NodeIndex { return []NodeIndex{n.Object} }
func (n Member) String() string        { return fmt.Sprintf("Member(#%d, tok %d)", n.Object, n.Member) }

func indexList(idx []NodeIndex) string {
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = fmt.Sprintf("#%d", n)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
