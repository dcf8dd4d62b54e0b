package compiler

import "fmt"

// TypeKind enumerates the closed set of type descriptor kinds.
type TypeKind int

const (
	KindAny TypeKind = iota
	KindUnit
	KindBoolean
	KindChar
	KindByte
	KindInt
	KindShort
	KindLong
	KindString
	KindFunction
	KindClass
	KindPointer
)

var typeKindNames = [...]string{
	KindAny:      "Any",
	KindUnit:     "Unit",
	KindBoolean:  "Boolean",
	KindChar:     "Char",
	KindByte:     "Byte",
	KindInt:      "Int",
	KindShort:    "Short",
	KindLong:     "Long",
	KindString:   "String",
	KindFunction: "Function",
	KindClass:    "Class",
	KindPointer:  "Pointer",
}

func (k TypeKind) String() string {
	if int(k) >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// Type is a type descriptor stored in a Store's type arena.
type Type interface {
	Kind() TypeKind
	// Size is the storage size in bytes of a value of this type.
	Size() int
	String() string
}

// Primitive covers the kinds that carry no extra data: Any, Unit, Boolean,
// Char, Byte, Short, Int, Long and String.
type Primitive struct {
	K TypeKind
}

func (p Primitive) Kind() TypeKind { return p.K }

func (p Primitive) Size() int {
	switch p.K {
	case KindUnit:
		return 0
	case KindBoolean, KindChar, KindByte:
		return 1
	case KindShort:
		return 2
	case KindInt:
		return 4
	default:
		// Long, Any and String (a pointer to runtime-managed data).
		return 8
	}
}

func (p Primitive) String() string { return p.K.String() }

// FunctionType is the type of a function value.
type FunctionType struct{}

func (FunctionType) Kind() TypeKind { return KindFunction }
func (FunctionType) Size() int      { return 8 }
func (FunctionType) String() string { return "Function" }

// ClassType is the type of an instance of the class declared by Class.
type ClassType struct {
	Class NodeIndex
}

func (ClassType) Kind() TypeKind   { return KindClass }
func (ClassType) Size() int        { return 8 }
func (c ClassType) String() string { return fmt.Sprintf("Class(node %d)", c.Class) }

// PointerType points at a value of type Pointee.
type PointerType struct {
	Pointee TypeIndex
}

func (PointerType) Kind() TypeKind   { return KindPointer }
func (PointerType) Size() int        { return 8 }
func (p PointerType) String() string { return fmt.Sprintf("Pointer(type %d)", p.Pointee) }
