package compiler

import (
	"fmt"
	"iter"
)

// Arena is an append-only, index-addressed collection. Indices handed out
// by Push stay valid for the arena's lifetime; nothing is ever removed.
type Arena[T any] struct {
	items []T
}

// Push appends v and returns its index.
func (a *Arena[T]) Push(v T) int {
	a.items = append(a.items, v)
	return len(a.items) - 1
}

// At returns the element at i.
func (a *Arena[T]) At(i int) T { return a.items[i] }

// Len returns the number of elements pushed so far.
func (a *Arena[T]) Len() int { return len(a.items) }

// All iterates over the arena in insertion order.
func (a *Arena[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range a.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// NodeIndex addresses a node in a Store.
type NodeIndex int32

// NoNode marks an absent optional child.
const NoNode NodeIndex = -1

// TypeIndex addresses a type descriptor in a Store.
type TypeIndex int32

// NoType marks a node whose type has not been resolved.
const NoType TypeIndex = -1

// ObjectIndex addresses an auxiliary object in a Store.
type ObjectIndex int32

// StringObject is the payload of a string literal: the unquoted source
// slice, keyed by the token that defined it.
type StringObject struct {
	Token TokenIndex
	Value string
}

// Store owns every arena of one compilation unit. It grows while parsing and
// is read-only afterwards.
type Store struct {
	nodes   Arena[Node]
	types   Arena[Type]
	objects Arena[StringObject]
	stmts   Arena[NodeIndex]
}

func NewStore() *Store {
	return &Store{}
}

// AddNode appends n and returns its index. Children must already exist:
// a forward or dangling reference is a programming error and panics.
func (s *Store) AddNode(n Node) NodeIndex {
	next := NodeIndex(s.nodes.Len())
	for _, c := range n.Children() {
		if c < 0 || c >= next {
			panic(fmt.Sprintf("compiler: node %d (%s) references child %d not yet allocated", next, n.Kind(), c))
		}
	}
	return NodeIndex(s.nodes.Push(n))
}

func (s *Store) Node(i NodeIndex) Node { return s.nodes.At(int(i)) }
func (s *Store) NumNodes() int         { return s.nodes.Len() }

// Nodes iterates over the node arena in allocation order.
func (s *Store) Nodes() iter.Seq2[int, Node] { return s.nodes.All() }

func (s *Store) AddType(t Type) TypeIndex { return TypeIndex(s.types.Push(t)) }
func (s *Store) Type(i TypeIndex) Type    { return s.types.At(int(i)) }
func (s *Store) NumTypes() int            { return s.types.Len() }

func (s *Store) AddObject(o StringObject) ObjectIndex { return ObjectIndex(s.objects.Push(o)) }
func (s *Store) Object(i ObjectIndex) StringObject    { return s.objects.At(int(i)) }
func (s *Store) NumObjects() int                      { return s.objects.Len() }

// Objects iterates over the object arena in allocation order.
func (s *Store) Objects() iter.Seq2[int, StringObject] { return s.objects.All() }

// AddStmt appends a top-level statement to the statement list.
func (s *Store) AddStmt(n NodeIndex) { s.stmts.Push(n) }

// Stmts returns the statement list in source order.
func (s *Store) Stmts() []NodeIndex {
	out := make([]NodeIndex, 0, s.stmts.Len())
	for _, n := range s.stmts.All() {
		out = append(out, n)
	}
	return out
}

// Validate walks the node arena once and checks that every child index is
// strictly smaller than its parent's, and that type references resolve.
func (s *Store) Validate() error {
	for i, n := range s.nodes.All() {
		for _, c := range n.Children() {
			if c < 0 || int(c) >= i {
				return fmt.Errorf("node %d (%s): child %d is not allocated before its parent", i, n.Kind(), c)
			}
		}
		if t := n.TypeOf(); t != NoType && (t < 0 || int(t) >= s.types.Len()) {
			return fmt.Errorf("node %d (%s): type %d out of range", i, n.Kind(), t)
		}
	}
	for _, st := range s.stmts.All() {
		if st < 0 || int(st) >= s.nodes.Len() {
			return fmt.Errorf("statement %d out of range", st)
		}
	}
	return nil
}
