package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBorrowCellTwoReaders(t *testing.T) {
	c := NewBorrowCell(5)

	r1, err := c.BorrowRead()
	require.NoError(t, err)
	r2, err := c.BorrowRead()
	require.NoError(t, err)

	require.Equal(t, SharedRead, c.State())
	require.Equal(t, 2, c.Readers())
	require.Equal(t, 5, r1.Get())
	require.Equal(t, 5, r2.Get())

	r1.Release()
	require.Equal(t, SharedRead, c.State())
	r2.Release()
	require.Equal(t, Unshared, c.State())
}

func TestBorrowCellWriteWhileReading(t *testing.T) {
	c := NewBorrowCell(5)
	r, err := c.BorrowRead()
	require.NoError(t, err)

	w, err := c.BorrowWrite()
	require.Nil(t, w)
	require.ErrorIs(t, err, ErrBorrowConflict)

	var be *BorrowError
	require.True(t, errors.As(err, &be))
	require.Equal(t, BorrowWrite, be.Requested)
	require.Equal(t, SharedRead, be.State)
	require.Equal(t, 1, be.Readers)
	require.Contains(t, err.Error(), "write borrow requested while 1 read borrow(s)")

	// The failed attempt changed nothing.
	require.Equal(t, 1, c.Readers())
	r.Release()
}

func TestBorrowCellReadWhileWriting(t *testing.T) {
	c := NewBorrowCell(5)
	w, err := c.BorrowWrite()
	require.NoError(t, err)

	r, err := c.BorrowRead()
	require.Nil(t, r)
	require.ErrorIs(t, err, ErrBorrowConflict)
	require.Contains(t, err.Error(), "read borrow requested while a write borrow")

	_, err = c.BorrowWrite()
	require.ErrorIs(t, err, ErrBorrowConflict)
	require.Equal(t, ExclusiveWrite, c.State())
	w.Release()
}

func TestBorrowCellStateResetsAfterWrite(t *testing.T) {
	c := NewBorrowCell(1)
	w := c.MustBorrowWrite()
	w.Set(2)
	w.Release()
	require.Equal(t, Unshared, c.State())

	r := c.MustBorrowRead()
	require.Equal(t, 2, r.Get())
	r.Release()

	w = c.MustBorrowWrite()
	*w.Ptr() += 1
	require.Equal(t, 3, w.Get())
	w.Release()
}

func TestBorrowCellGuardReleaseIdempotent(t *testing.T) {
	c := NewBorrowCell("x")
	r1 := c.MustBorrowRead()
	r2 := c.MustBorrowRead()
	r1.Release()
	r1.Release()
	require.Equal(t, 1, c.Readers())
	r2.Release()

	w := c.MustBorrowWrite()
	w.Release()
	w.Release()
	require.Equal(t, Unshared, c.State())
}

func TestBorrowCellReleasedGuardUnusable(t *testing.T) {
	c := NewBorrowCell(1)
	w := c.MustBorrowWrite()
	w.Release()
	requireUseAfterRelease(t, func() { w.Set(5) })

	r := c.MustBorrowRead()
	r.Release()
	requireUseAfterRelease(t, func() { r.Get() })
}

func TestBorrowCellMustPanics(t *testing.T) {
	c := NewBorrowCell(1)
	w := c.MustBorrowWrite()
	defer w.Release()

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		require.ErrorIs(t, err, ErrBorrowConflict)
	}()
	c.MustBorrowRead()
}

func TestBorrowCellUpdateReleasesOnPanic(t *testing.T) {
	c := NewBorrowCell(1)
	func() {
		defer func() { require.NotNil(t, recover()) }()
		_ = c.Update(func(v *int) {
			*v = 9
			panic("boom")
		})
	}()
	require.Equal(t, Unshared, c.State())

	require.NoError(t, c.Read(func(v int) { require.Equal(t, 9, v) }))
}

func TestBorrowCellNestedBorrowInsideUpdate(t *testing.T) {
	c := NewBorrowCell(1)
	var inner error
	err := c.Update(func(*int) {
		inner = c.Read(func(int) {})
	})
	require.NoError(t, err)
	require.ErrorIs(t, inner, ErrBorrowConflict)
	require.Equal(t, Unshared, c.State())
}

func TestBorrowCellReplace(t *testing.T) {
	c := NewBorrowCell("old")
	old, err := c.Replace("new")
	require.NoError(t, err)
	require.Equal(t, "old", old)

	r := c.MustBorrowRead()
	_, err = c.Replace("newer")
	require.ErrorIs(t, err, ErrBorrowConflict)
	r.Release()
}

func TestBorrowCellString(t *testing.T) {
	c := NewBorrowCell(15)
	require.Equal(t, "BorrowCell { value: 15 }", c.String())
	w := c.MustBorrowWrite()
	require.Equal(t, "BorrowCell { value: <borrowed> }", c.String())
	w.Release()
}

// Go evaluates calls in an expression left to right, so the first borrow
// wins and the second fails. Client code should not mix borrows in one
// expression.
func TestBorrowCellReadAndWriteInOneExpression(t *testing.T) {
	c := NewBorrowCell(1)
	var werr error
	tryWrite := func() *WriteGuard[int] {
		w, err := c.BorrowWrite()
		werr = err
		return w
	}

	got := struct {
		r *ReadGuard[int]
		w *WriteGuard[int]
	}{c.MustBorrowRead(), tryWrite()}

	require.NotNil(t, got.r)
	require.Nil(t, got.w)
	require.ErrorIs(t, werr, ErrBorrowConflict)
	got.r.Release()
	require.Equal(t, Unshared, c.State())
}

func TestBorrowStateString(t *testing.T) {
	require.Equal(t, "unshared", Unshared.String())
	require.Equal(t, "shared-read", SharedRead.String())
	require.Equal(t, "exclusive-write", ExclusiveWrite.String())
	require.True(t, strings.HasPrefix(BorrowState(9).String(), "BorrowState("))
}
