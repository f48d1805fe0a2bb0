package memory

import "fmt"

// SharedCell is many owners over one BorrowCell: Rc[BorrowCell[T]].
// Every owner may read or mutate the value, and a mutation through one
// handle is visible through all of them. At most one write borrow exists
// across all handles at any instant, because they share one cell.
type SharedCell[T any] struct {
	rc *Rc[BorrowCell[T]]
}

// NewShared allocates a shared cell holding v with a live count of 1.
// A WithDrop hook may take either *T or *BorrowCell[T].
func NewShared[T any](v T, opts ...Option) *SharedCell[T] {
	o := buildOptions(opts)
	if fn, ok := o.drop.(func(*T)); ok {
		o.drop = func(c *BorrowCell[T]) { fn(&c.value) }
	}
	rc := alloc[BorrowCell[T]](o)
	rc.box.value.value = v
	rc.box.check = func(c *BorrowCell[T]) {
		if c.flag != 0 {
			panic(&UseAfterReleaseError{
				Op:    fmt.Sprintf("free under %s borrow", c.State()),
				Label: o.label,
			})
		}
	}
	return &SharedCell[T]{rc: rc}
}

// Clone returns a new owner of the same cell.
func (s *SharedCell[T]) Clone() *SharedCell[T] {
	return &SharedCell[T]{rc: s.rc.Clone()}
}

// Release gives up this owner. Releasing the last owner while a guard is
// still outstanding panics: the guard would outlive the allocation. The
// same holds for strong handles obtained through Downgrade.
func (s *SharedCell[T]) Release() {
	s.rc.Release()
}

// Count returns the number of live owners.
func (s *SharedCell[T]) Count() int {
	return s.rc.Count()
}

// Cell returns the underlying cell.
func (s *SharedCell[T]) Cell() *BorrowCell[T] {
	return s.rc.Get()
}

// Downgrade returns a non-owning handle to the cell.
func (s *SharedCell[T]) Downgrade() *Weak[BorrowCell[T]] {
	return s.rc.Downgrade()
}

// Released reports whether this owner has been released.
func (s *SharedCell[T]) Released() bool {
	return s == nil || s.rc.Released()
}

// BorrowRead takes a read borrow on the shared cell.
func (s *SharedCell[T]) BorrowRead() (*ReadGuard[T], error) {
	return s.Cell().BorrowRead()
}

// BorrowWrite takes the write borrow on the shared cell.
func (s *SharedCell[T]) BorrowWrite() (*WriteGuard[T], error) {
	return s.Cell().BorrowWrite()
}

// Read runs fn under a read borrow.
func (s *SharedCell[T]) Read(fn func(T)) error {
	return s.Cell().Read(fn)
}

// Update runs fn under the write borrow.
func (s *SharedCell[T]) Update(fn func(*T)) error {
	return s.Cell().Update(fn)
}

// Load returns a copy of the value under a short read borrow.
func (s *SharedCell[T]) Load() (T, error) {
	var v T
	err := s.Read(func(cur T) { v = cur })
	return v, err
}

// Store overwrites the value under a short write borrow.
func (s *SharedCell[T]) Store(v T) error {
	return s.Update(func(p *T) { *p = v })
}

func (s *SharedCell[T]) String() string {
	if s.Released() {
		return "SharedCell(<released>)"
	}
	return s.Cell().String()
}

// SameCell reports whether two owners share one allocation.
func SameCell[T any](a, b *SharedCell[T]) bool {
	return PtrEq(a.rc, b.rc)
}
