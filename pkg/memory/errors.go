package memory

import (
	"fmt"

	"github.com/pingcap/errors"
)

// ErrBorrowConflict is matched (via errors.Is) by every *BorrowError.
var ErrBorrowConflict = errors.New("borrow conflict")

// BorrowKind names the access a borrow asked for.
type BorrowKind int

const (
	BorrowRead BorrowKind = iota
	BorrowWrite
)

func (k BorrowKind) String() string {
	if k == BorrowWrite {
		return "write"
	}
	return "read"
}

// BorrowError reports a borrow that would have broken the
// one-writer-or-many-readers rule. It is raised at the call that asked for
// the borrow and is never retried.
type BorrowError struct {
	Requested BorrowKind
	State     BorrowState
	Readers   int
}

func (e *BorrowError) Error() string {
	switch e.State {
	case ExclusiveWrite:
		return fmt.Sprintf("borrow conflict: %s borrow requested while a write borrow is outstanding", e.Requested)
	case SharedRead:
		return fmt.Sprintf("borrow conflict: %s borrow requested while %d read borrow(s) are outstanding", e.Requested, e.Readers)
	default:
		return fmt.Sprintf("borrow conflict: %s borrow requested in state %s", e.Requested, e.State)
	}
}

// Is makes errors.Is(err, ErrBorrowConflict) hold.
func (e *BorrowError) Is(target error) bool {
	return target == ErrBorrowConflict
}

// UseAfterReleaseError is the panic value raised when a handle is used after
// it was released, or when an allocation would be freed under a live borrow.
// It is a programming error and is not meant to be recovered from.
type UseAfterReleaseError struct {
	Op    string
	Label string
}

func (e *UseAfterReleaseError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("use-after-release: %s on released handle [%s]", e.Op, e.Label)
	}
	return fmt.Sprintf("use-after-release: %s on released handle", e.Op)
}

// LeakError reports allocations still live when a Ledger is checked.
type LeakError struct {
	Label string
	Live  int
}

func (e *LeakError) Error() string {
	return fmt.Sprintf("leak: %d live allocation(s) [%s]", e.Live, e.Label)
}
