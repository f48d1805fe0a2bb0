package memory

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Reference Counting - explicit live counts without relying on the collector
//
// One heap box holds the value, a strong count and a weak count.
// Every handle (*Rc) owns exactly one unit of the strong count:
// - Clone: strong++ and a new handle aliasing the same box
// - Release: strong--, the handle becomes unusable
// - strong 1 -> 0: drop hook runs once, value is zeroed, weak handles die
//
// The box carries a random generation (as in generational references).
// Weak handles remember it; freeing sets it to 0 so stale Upgrade fails.
//
// Not safe for concurrent use. All handles to one box must stay on one
// goroutine; a cross-goroutine variant needs atomic counts and a lock.

// Generation is a 64-bit random generation number, 0 once freed.
type Generation uint64

// randomGeneration returns a non-zero random generation
func randomGeneration() Generation {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return Generation(0xDEADBEEF)
		}
		if g := Generation(binary.LittleEndian.Uint64(buf[:])); g != 0 {
			return g
		}
	}
}

type rcBox[T any] struct {
	value  T
	strong int
	weak   int
	gen    Generation
	drop   func(*T)
	// check runs before the last release and panics to refuse the free
	check  func(*T)

	ledger   *Ledger
	label    string
	ledgerID uint64
}

// Rc is an owning handle to a reference-counted allocation.
type Rc[T any] struct {
	box   *rcBox[T]
	label string // kept after release for error messages
}

// Option configures an allocation made by New or NewShared.
type Option func(*options)

type options struct {
	drop   any
	ledger *Ledger
	label  string
}

// WithDrop registers fn to run exactly once, when the last strong handle is
// released. fn may still read the value; it is zeroed afterwards.
func WithDrop[T any](fn func(*T)) Option {
	return func(o *options) { o.drop = fn }
}

// WithLedger records the allocation and its free in l under label.
func WithLedger(l *Ledger, label string) Option {
	return func(o *options) {
		o.ledger = l
		o.label = label
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New allocates v in a fresh box with a live count of 1.
func New[T any](v T, opts ...Option) *Rc[T] {
	r := alloc[T](buildOptions(opts))
	r.box.value = v
	return r
}

// alloc creates a box with a zero value so callers can initialise values
// that must not be copied (BorrowCell) in place.
func alloc[T any](o options) *Rc[T] {
	box := &rcBox[T]{
		strong: 1,
		gen:    randomGeneration(),
		ledger: o.ledger,
		label:  o.label,
	}
	if o.drop != nil {
		fn, ok := o.drop.(func(*T))
		if !ok {
			panic(fmt.Sprintf("memory: drop hook %T does not match value type %T", o.drop, box.value))
		}
		box.drop = fn
	}
	if box.ledger != nil {
		box.ledgerID = box.ledger.track(box.label)
	}
	return &Rc[T]{box: box, label: o.label}
}

func (r *Rc[T]) live(op string) *rcBox[T] {
	if r == nil {
		panic(&UseAfterReleaseError{Op: op})
	}
	if r.box == nil || r.box.strong <= 0 {
		panic(&UseAfterReleaseError{Op: op, Label: r.label})
	}
	return r.box
}

// Clone returns a new handle to the same allocation and bumps the live count.
func (r *Rc[T]) Clone() *Rc[T] {
	box := r.live("clone")
	box.strong++
	return &Rc[T]{box: box, label: r.label}
}

// Get returns a pointer to the shared value. It does not change the count.
// Mutating through it is only sound for values nobody else reads; shared
// mutation goes through a BorrowCell.
func (r *Rc[T]) Get() *T {
	return &r.live("get").value
}

// Count returns the current live count. Diagnostic only.
func (r *Rc[T]) Count() int {
	return r.live("count").strong
}

// WeakCount returns the number of outstanding weak handles.
func (r *Rc[T]) WeakCount() int {
	return r.live("weak count").weak
}

// Label returns the ledger label the allocation was made with.
func (r *Rc[T]) Label() string {
	return r.label
}

// Released reports whether this handle has been released.
func (r *Rc[T]) Released() bool {
	return r == nil || r.box == nil
}

// Release gives up this handle. Releasing the last handle frees the value.
// Releasing the same handle twice panics.
func (r *Rc[T]) Release() {
	box := r.live("release")
	if box.strong == 1 && box.check != nil {
		box.check(&box.value)
	}
	r.box = nil
	box.strong--
	if box.strong > 0 {
		return
	}
	box.free()
}

func (b *rcBox[T]) free() {
	b.gen = 0 // invalidate weak handles
	if b.drop != nil {
		drop := b.drop
		b.drop = nil
		drop(&b.value)
	}
	var zero T
	b.value = zero
	if b.ledger != nil {
		b.ledger.untrack(b.ledgerID, b.label)
	}
}

// Downgrade returns a non-owning handle to the allocation. It does not
// keep the value alive; use it for back-references.
func (r *Rc[T]) Downgrade() *Weak[T] {
	box := r.live("downgrade")
	box.weak++
	return &Weak[T]{box: box, gen: box.gen, label: r.label}
}

// PtrEq reports whether two live handles alias the same allocation.
func PtrEq[T any](a, b *Rc[T]) bool {
	return a.live("ptr eq") == b.live("ptr eq")
}

// String formats the shared value.
func (r *Rc[T]) String() string {
	if r.Released() {
		return "Rc(<released>)"
	}
	if s, ok := any(&r.box.value).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(r.box.value)
}
