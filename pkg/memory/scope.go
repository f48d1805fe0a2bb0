package memory

// Scopes - a scope as an owner
//
// Go has no destructor that runs when a variable goes out of scope, so a
// Scope stands in for the stack frame: handles created in the frame are
// handed to it and released together when the frame exits.
//
//	s := memory.NewScope()
//	defer s.Close()
//	a := memory.Own(s, memory.New(5))
//
// Close releases in reverse order of ownership, like nested drops.

// Releaser is anything that gives up ownership on Release.
type Releaser interface {
	Release()
}

// Scope owns handles until it is closed.
type Scope struct {
	Owned  []Releaser
	Parent *Scope
	Stats  ScopeStats
	closed bool
}

// ScopeStats tracks what a scope has done.
type ScopeStats struct {
	Owned    int
	Released int
	Children int
}

// NewScope creates a root scope.
func NewScope() *Scope {
	return &Scope{}
}

// Enter creates a child scope. Closing the parent closes open children
// first.
func (s *Scope) Enter() *Scope {
	child := &Scope{Parent: s}
	s.Owned = append(s.Owned, child)
	s.Stats.Children++
	return child
}

// Add hands h to the scope. Adding to a closed scope panics.
func (s *Scope) Add(h Releaser) {
	if s.closed {
		panic(&UseAfterReleaseError{Op: "own in closed scope"})
	}
	s.Owned = append(s.Owned, h)
	s.Stats.Owned++
}

// Own hands h to s and returns it, for use in assignments.
func Own[H Releaser](s *Scope, h H) H {
	s.Add(h)
	return h
}

// Release closes the scope so it can itself be owned by a parent.
func (s *Scope) Release() {
	s.Close()
}

// Close releases every owned handle in reverse order. It is idempotent.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.Owned) - 1; i >= 0; i-- {
		h := s.Owned[i]
		s.Owned[i] = nil
		if child, ok := h.(*Scope); ok {
			child.Close()
			continue
		}
		h.Release()
		s.Stats.Released++
	}
	s.Owned = nil
}

// Closed reports whether the scope has been closed.
func (s *Scope) Closed() bool {
	return s.closed
}
