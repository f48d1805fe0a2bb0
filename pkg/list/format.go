package list

import (
	"strconv"
	"strings"

	"rccell/pkg/memory"
)

// Format renders the list as Cons(5, Cons(10, Nil)). A cell that is
// write-borrowed renders as <borrowed>. The walk does not check for cycles.
func Format(head List) string {
	return head.Get().String()
}

func writeCell(b *strings.Builder, cell *memory.SharedCell[int]) {
	v, err := cell.Load()
	if err != nil {
		b.WriteString("<borrowed>")
		return
	}
	b.WriteString(strconv.Itoa(v))
}

// String renders the list starting at n.
func (n *Node) String() string {
	var b strings.Builder
	depth := 0
	for cur := n; !cur.IsNil(); cur = cur.next.Get() {
		b.WriteString("Cons(")
		writeCell(&b, cur.value)
		b.WriteString(", ")
		depth++
	}
	b.WriteString("Nil")
	b.WriteString(strings.Repeat(")", depth))
	return b.String()
}
