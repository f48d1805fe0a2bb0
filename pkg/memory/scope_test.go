package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	name string
	log  *[]string
}

func (r recorder) Release() { *r.log = append(*r.log, r.name) }

func TestScopeReleasesInReverseOrder(t *testing.T) {
	var log []string
	s := NewScope()
	s.Add(recorder{"a", &log})
	s.Add(recorder{"b", &log})
	s.Add(recorder{"c", &log})
	s.Close()

	require.Equal(t, []string{"c", "b", "a"}, log)
	require.Equal(t, 3, s.Stats.Released)
	require.True(t, s.Closed())

	s.Close()
	require.Len(t, log, 3)
}

func TestScopeOwnsHandles(t *testing.T) {
	drops := 0
	outer := New(1, WithDrop(func(*int) { drops++ }))

	func() {
		s := NewScope()
		defer s.Close()
		c := Own(s, outer.Clone())
		require.Equal(t, 2, c.Count())
	}()

	require.Equal(t, 1, outer.Count())
	outer.Release()
	require.Equal(t, 1, drops)
}

func TestScopeNested(t *testing.T) {
	var log []string
	root := NewScope()
	root.Add(recorder{"root", &log})
	child := root.Enter()
	child.Add(recorder{"child", &log})

	root.Close()
	require.Equal(t, []string{"child", "root"}, log)
	require.True(t, child.Closed())
	require.Equal(t, 1, root.Stats.Children)
}

func TestScopeClosedChildNotReleasedTwice(t *testing.T) {
	var log []string
	root := NewScope()
	child := root.Enter()
	child.Add(recorder{"x", &log})
	child.Close()
	root.Close()
	require.Equal(t, []string{"x"}, log)
}

func TestScopeAddAfterClose(t *testing.T) {
	s := NewScope()
	s.Close()
	requireUseAfterRelease(t, func() { s.Add(New(1)) })
}

func TestScopeDoubleReleaseOfOwnedHandle(t *testing.T) {
	s := NewScope()
	r := Own(s, New(1))
	r.Release()
	requireUseAfterRelease(t, func() { s.Close() })
}
