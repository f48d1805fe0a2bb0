package memory

import "fmt"

// Borrow Cells - runtime-checked aliasing
//
// The compiler cannot prove that shared data is never read and written at
// the same time, so the cell checks it when a borrow is taken:
// - Unshared       -> read borrow ok, write borrow ok
// - SharedRead(n)  -> read borrow ok (n+1), write borrow fails
// - ExclusiveWrite -> every borrow fails
//
// A failed borrow returns *BorrowError at the offending call. Nothing is
// queued or retried: a conflict is a bug in the caller's control flow.
//
// Guards end a borrow. Release them with defer, or use Read/Update which
// release on every exit path including panics.
//
// Not safe for concurrent use.

// BorrowState is the borrow state of a cell.
type BorrowState int

const (
	Unshared BorrowState = iota
	SharedRead
	ExclusiveWrite
)

func (s BorrowState) String() string {
	switch s {
	case Unshared:
		return "unshared"
	case SharedRead:
		return "shared-read"
	case ExclusiveWrite:
		return "exclusive-write"
	default:
		return fmt.Sprintf("BorrowState(%d)", int(s))
	}
}

const writing = -1

// noCopy trips go vet's copylocks check; a copied cell would split the
// borrow state from the value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// BorrowCell wraps a value so it can be read or written through an
// otherwise shared handle.
type BorrowCell[T any] struct {
	_     noCopy
	value T
	flag  int // 0 unshared, n>0 readers, -1 writer
}

// NewBorrowCell creates an unshared cell holding v.
func NewBorrowCell[T any](v T) *BorrowCell[T] {
	return &BorrowCell[T]{value: v}
}

// State returns the current borrow state.
func (c *BorrowCell[T]) State() BorrowState {
	switch {
	case c.flag == writing:
		return ExclusiveWrite
	case c.flag > 0:
		return SharedRead
	default:
		return Unshared
	}
}

// Readers returns the number of outstanding read borrows.
func (c *BorrowCell[T]) Readers() int {
	if c.flag > 0 {
		return c.flag
	}
	return 0
}

func (c *BorrowCell[T]) conflict(kind BorrowKind) *BorrowError {
	return &BorrowError{Requested: kind, State: c.State(), Readers: c.Readers()}
}

// BorrowRead takes a read borrow. It fails while a write borrow is held.
func (c *BorrowCell[T]) BorrowRead() (*ReadGuard[T], error) {
	if c.flag == writing {
		return nil, c.conflict(BorrowRead)
	}
	c.flag++
	return &ReadGuard[T]{cell: c}, nil
}

// BorrowWrite takes the exclusive write borrow. It fails while any borrow
// is held.
func (c *BorrowCell[T]) BorrowWrite() (*WriteGuard[T], error) {
	if c.flag != 0 {
		return nil, c.conflict(BorrowWrite)
	}
	c.flag = writing
	return &WriteGuard[T]{cell: c}, nil
}

// MustBorrowRead is BorrowRead that panics with the *BorrowError.
func (c *BorrowCell[T]) MustBorrowRead() *ReadGuard[T] {
	g, err := c.BorrowRead()
	if err != nil {
		panic(err)
	}
	return g
}

// MustBorrowWrite is BorrowWrite that panics with the *BorrowError.
func (c *BorrowCell[T]) MustBorrowWrite() *WriteGuard[T] {
	g, err := c.BorrowWrite()
	if err != nil {
		panic(err)
	}
	return g
}

// Read runs fn under a read borrow.
func (c *BorrowCell[T]) Read(fn func(T)) error {
	g, err := c.BorrowRead()
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Get())
	return nil
}

// Update runs fn under the write borrow. Changes made through the pointer
// are visible to every handle once fn returns.
func (c *BorrowCell[T]) Update(fn func(*T)) error {
	g, err := c.BorrowWrite()
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Ptr())
	return nil
}

// Replace swaps in v and returns the old value.
func (c *BorrowCell[T]) Replace(v T) (T, error) {
	var old T
	err := c.Update(func(p *T) {
		old, *p = *p, v
	})
	return old, err
}

// String mirrors a debug print: the value, or <borrowed> while written.
func (c *BorrowCell[T]) String() string {
	if c.flag == writing {
		return "BorrowCell { value: <borrowed> }"
	}
	return fmt.Sprintf("BorrowCell { value: %v }", c.value)
}

// ReadGuard is an active read borrow.
type ReadGuard[T any] struct {
	cell *BorrowCell[T]
}

// Get returns a copy of the value.
func (g *ReadGuard[T]) Get() T {
	return g.active("read").value
}

// Ptr returns a pointer to the value, valid until Release. It must not be
// written through.
func (g *ReadGuard[T]) Ptr() *T {
	return &g.active("read").value
}

func (g *ReadGuard[T]) active(op string) *BorrowCell[T] {
	if g.cell == nil {
		panic(&UseAfterReleaseError{Op: op + " through released guard"})
	}
	return g.cell
}

// Release ends the borrow. Calling it again is a no-op.
func (g *ReadGuard[T]) Release() {
	if g.cell == nil {
		return
	}
	g.cell.flag--
	g.cell = nil
}

// WriteGuard is the active write borrow.
type WriteGuard[T any] struct {
	cell *BorrowCell[T]
}

// Get returns a copy of the value.
func (g *WriteGuard[T]) Get() T {
	return g.active("read").value
}

// Set overwrites the value.
func (g *WriteGuard[T]) Set(v T) {
	g.active("write").value = v
}

// Ptr returns a pointer to the value, valid until Release.
func (g *WriteGuard[T]) Ptr() *T {
	return &g.active("write").value
}

func (g *WriteGuard[T]) active(op string) *BorrowCell[T] {
	if g.cell == nil {
		panic(&UseAfterReleaseError{Op: op + " through released guard"})
	}
	return g.cell
}

// Release ends the borrow. Calling it again is a no-op.
func (g *WriteGuard[T]) Release() {
	if g.cell == nil {
		return
	}
	g.cell.flag = 0
	g.cell = nil
}
