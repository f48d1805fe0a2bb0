package list

import (
	"iter"

	"rccell/pkg/memory"
)

// Cells yields each node's cell from head to Nil. The cells are borrowed
// handles.
func Cells(head List) iter.Seq[*memory.SharedCell[int]] {
	return func(yield func(*memory.SharedCell[int]) bool) {
		for n := head.Get(); !n.IsNil(); n = n.next.Get() {
			if !yield(n.value) {
				return
			}
		}
	}
}

// Values yields each value from head to Nil, reading every cell under a
// short read borrow. A cell that is write-borrowed yields its
// *memory.BorrowError and ends the walk. The sequence can be ranged over
// any number of times.
func Values(head List) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for cell := range Cells(head) {
			v, err := cell.Load()
			if err != nil {
				yield(0, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect returns the values of the list in order.
func Collect(head List) ([]int, error) {
	var out []int
	for v, err := range Values(head) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Len returns the number of Cons nodes.
func Len(head List) int {
	n := 0
	for range Cells(head) {
		n++
	}
	return n
}

// FindCycle reports whether following tails from head loops, and the index
// of the first node on the loop. It is a diagnostic; Cells and Values do
// not check.
func FindCycle(head List) (int, bool) {
	step := func(n *Node) *Node {
		if n == nil || n.IsNil() {
			return nil
		}
		return n.next.Get()
	}
	slow, fast := head.Get(), head.Get()
	for {
		slow = step(slow)
		fast = step(step(fast))
		if slow == nil || fast == nil {
			return 0, false
		}
		if slow == fast {
			break
		}
	}
	start := 0
	for slow = head.Get(); slow != fast; start++ {
		slow, fast = step(slow), step(fast)
	}
	return start, true
}
