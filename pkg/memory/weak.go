package memory

import "fmt"

// Weak handles - generation-checked, non-owning references
//
// A Weak remembers the box generation it was created with.
// On Upgrade: if weak.gen != box.gen the allocation was freed -> fail
// On free: box.gen = 0 (invalidates every weak handle at once)
//
// Weak handles never contribute to the live count, so they are the tool
// for back edges (child -> parent, tail -> head). A strong back edge forms
// a cycle whose counts never reach zero and the allocation leaks.

// Weak is a non-owning observation handle.
type Weak[T any] struct {
	box      *rcBox[T]
	gen      Generation
	label    string
	released bool
}

// Alive reports whether the allocation is still live. O(1).
func (w *Weak[T]) Alive() bool {
	if w == nil || w.released || w.box == nil {
		return false
	}
	return w.box.gen == w.gen && w.box.gen != 0 && w.box.strong > 0
}

// Upgrade returns a new strong handle if the allocation is still live.
// The caller owns the returned handle and must release it.
func (w *Weak[T]) Upgrade() (*Rc[T], bool) {
	if w != nil && w.released {
		panic(&UseAfterReleaseError{Op: "upgrade", Label: w.label})
	}
	if !w.Alive() {
		return nil, false
	}
	w.box.strong++
	return &Rc[T]{box: w.box, label: w.label}, true
}

// MustUpgrade upgrades or panics (for cases where liveness is guaranteed).
func (w *Weak[T]) MustUpgrade() *Rc[T] {
	r, ok := w.Upgrade()
	if !ok {
		panic(fmt.Errorf("memory: upgrade of dead weak handle [%s]", w.label))
	}
	return r
}

// Release drops the weak handle. It never frees the value.
func (w *Weak[T]) Release() {
	if w == nil {
		panic(&UseAfterReleaseError{Op: "weak release"})
	}
	if w.released {
		panic(&UseAfterReleaseError{Op: "weak release", Label: w.label})
	}
	w.released = true
	if w.box != nil && w.box.weak > 0 {
		w.box.weak--
	}
	w.box = nil
}
