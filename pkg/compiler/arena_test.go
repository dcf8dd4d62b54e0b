package compiler

import (
	"reflect"
	"strings"
	"testing"
)

func intLit(s *Store, v int64) NodeIndex {
	typ := s.AddType(Primitive{K: KindLong})
	return s.AddNode(IntLit{Base: Base{Type: typ}, Value: v})
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic", name)
		}
	}()
	fn()
}

func TestArena(t *testing.T) {
	var a Arena[string]
	if a.Len() != 0 {
		t.Fatalf("new arena has %d items", a.Len())
	}
	if i := a.Push("a"); i != 0 {
		t.Errorf("first Push = %d; want 0", i)
	}
	if i := a.Push("b"); i != 1 {
		t.Errorf("second Push = %d; want 1", i)
	}
	if a.At(1) != "b" {
		t.Errorf("At(1) = %q", a.At(1))
	}

	var seen []string
	for i, v := range a.All() {
		if i != len(seen) {
			t.Errorf("All yielded index %d at position %d", i, len(seen))
		}
		seen = append(seen, v)
	}
	if !reflect.DeepEqual(seen, []string{"a", "b"}) {
		t.Errorf("All yielded %v", seen)
	}
}

func TestStoreIndicesAreStable(t *testing.T) {
	s := NewStore()
	one := intLit(s, 1)
	two := intLit(s, 2)
	sum := s.AddNode(Binary{Base: Base{Type: NoType}, Op: OpAdd, Left: one, Right: two})
	s.AddStmt(s.AddNode(Println{Base: Base{Type: NoType}, Arg: sum}))

	if one != 0 || sum != 2 {
		t.Errorf("indices one=%d sum=%d; want 0 and 2", one, sum)
	}
	if s.NumNodes() != 4 || s.NumTypes() != 2 {
		t.Errorf("%d nodes, %d types; want 4 and 2", s.NumNodes(), s.NumTypes())
	}
	if !reflect.DeepEqual(s.Stmts(), []NodeIndex{3}) {
		t.Errorf("Stmts() = %v", s.Stmts())
	}

	if got, want := s.Node(two), (IntLit{Base: Base{Type: 1}, Value: 2}); got != Node(want) {
		t.Errorf("Node(%d) = %v; want %v", two, got, want)
	}
	if got := s.Node(sum).String(); got != "Binary(#0 + #1)" {
		t.Errorf("String() = %q", got)
	}
	if s.Type(0).Kind() != KindLong {
		t.Errorf("Type(0) = %s", s.Type(0))
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestStoreRejectsForwardChildren(t *testing.T) {
	s := NewStore()
	intLit(s, 1)

	mustPanic(t, "forward operand", func() { s.AddNode(Not{Operand: 1}) })
	mustPanic(t, "missing argument", func() { s.AddNode(Println{Arg: NoNode}) })
	if s.NumNodes() != 1 {
		t.Errorf("rejected nodes were stored: %d nodes", s.NumNodes())
	}
}

func TestStoreValidate(t *testing.T) {
	s := NewStore()
	s.AddNode(IntLit{Base: Base{Type: 5}, Value: 1})
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "type 5 out of range") {
		t.Errorf("expected a type range error, got %v", err)
	}

	s = NewStore()
	intLit(s, 1)
	s.AddStmt(7)
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "statement 7 out of range") {
		t.Errorf("expected a statement range error, got %v", err)
	}
}

func TestOptionalChildren(t *testing.T) {
	s := NewStore()
	cond := s.AddNode(BoolLit{Base: Base{Type: NoType}, Value: true})
	then := s.AddNode(Block{Base: Base{Type: NoType}})
	n := s.AddNode(If{Base: Base{Type: NoType}, Cond: cond, Then: then, Else: NoNode})

	if got := s.Node(n).Children(); !reflect.DeepEqual(got, []NodeIndex{cond, then}) {
		t.Errorf("If children = %v", got)
	}
	ret := s.AddNode(Return{Base: Base{Type: NoType}, Value: NoNode})
	if got := s.Node(ret).Children(); len(got) != 0 {
		t.Errorf("bare return children = %v", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestStringObjects(t *testing.T) {
	s := NewStore()
	o := s.AddObject(StringObject{Token: 3, Value: "hi"})
	if o != 0 || s.NumObjects() != 1 {
		t.Fatalf("object %d of %d", o, s.NumObjects())
	}
	if s.Object(o).Value != "hi" {
		t.Errorf("Value = %q", s.Object(o).Value)
	}
}

func TestTypeSizes(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
		name string
	}{
		{Primitive{K: KindUnit}, 0, "Unit"},
		{Primitive{K: KindBoolean}, 1, "Boolean"},
		{Primitive{K: KindChar}, 1, "Char"},
		{Primitive{K: KindShort}, 2, "Short"},
		{Primitive{K: KindInt}, 4, "Int"},
		{Primitive{K: KindLong}, 8, "Long"},
		{Primitive{K: KindString}, 8, "String"},
		{FunctionType{}, 8, "Function"},
		{PointerType{Pointee: 2}, 8, "Pointer(type 2)"},
	}
	for _, tc := range tests {
		if got := tc.typ.Size(); got != tc.size {
			t.Errorf("%s: size %d; want %d", tc.name, got, tc.size)
		}
		if got := tc.typ.String(); got != tc.name {
			t.Errorf("String() = %q; want %q", got, tc.name)
		}
	}
}
