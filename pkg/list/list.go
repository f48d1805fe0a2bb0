// Package list is a persistent cons list whose shape is immutable and whose
// payloads are shared, mutable cells.
//
// Lists are built leaf-first. Cons takes ownership of the handles it is
// given, so sharing a tail means cloning its handle:
//
//	a := list.Cons(value.Clone(), list.ConsValue(10, list.Nil()))
//	b := list.Prepend(6, a) // b = 6 :: a, shares a
//	c := list.Prepend(4, a) // c = 4 :: a, shares a
//
// Updating a cell through one list is visible from every list that shares
// the node. Releasing a list releases its own nodes and drops one count on
// the shared tail.
//
// Tails are strong handles. A tail that leads back to an ancestor forms a
// cycle whose counts never reach zero; the nodes leak. Back edges must be
// memory.Weak handles. FindCycle can diagnose such a list but nothing here
// breaks cycles.
package list

import (
	"rccell/pkg/memory"
)

// Node is Nil (no value, no tail) or Cons(value, next).
type Node struct {
	value *memory.SharedCell[int]
	next  *memory.Rc[Node]
}

// List is an owning handle to the head node.
type List = *memory.Rc[Node]

func dropNode(n *Node) {
	if n.value != nil {
		n.value.Release()
		n.value = nil
	}
	// Unlink solely owned tails one at a time so long lists free in a loop
	// instead of one nested release per node.
	next := n.next
	n.next = nil
	for next != nil {
		if next.Count() > 1 {
			next.Release()
			return
		}
		tail := next.Get()
		after := tail.next
		tail.next = nil
		next.Release()
		next = after
	}
}

// Nil returns a new terminal node.
func Nil(opts ...memory.Option) List {
	return memory.New(Node{}, append(opts, memory.WithDrop(dropNode))...)
}

// Cons returns a node holding value in front of next. It takes ownership
// of both handles.
func Cons(value *memory.SharedCell[int], next List, opts ...memory.Option) List {
	if value == nil || next == nil {
		panic("list: cons needs a value and a tail")
	}
	n := Node{value: value, next: next}
	return memory.New(n, append(opts, memory.WithDrop(dropNode))...)
}

// ConsValue is Cons with a fresh cell holding v.
func ConsValue(v int, next List, opts ...memory.Option) List {
	return Cons(memory.NewShared(v), next, opts...)
}

// Prepend returns v :: tail without consuming tail; the new list shares it.
func Prepend(v int, tail List, opts ...memory.Option) List {
	return ConsValue(v, tail.Clone(), opts...)
}

// FromValues builds a list holding vs in order, leaf-first.
func FromValues(vs ...int) List {
	l := Nil()
	for i := len(vs) - 1; i >= 0; i-- {
		l = ConsValue(vs[i], l)
	}
	return l
}

// IsNil reports whether n is the terminal node.
func (n *Node) IsNil() bool {
	return n.next == nil
}

// Value returns the node's cell, or nil for Nil. The handle is borrowed
// from the node; Clone it to keep it past the node.
func (n *Node) Value() *memory.SharedCell[int] {
	return n.value
}

// Next returns the tail, or nil for Nil. The handle is borrowed from the
// node; Clone it to keep it past the node.
func (n *Node) Next() List {
	return n.next
}
