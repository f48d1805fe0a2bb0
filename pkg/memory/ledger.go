package memory

import (
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rccell/pkg/config"
)

// Ledger counts allocations and frees per label. Tests use it as the
// instrumented drop counter; programs check it on exit to find leaks,
// such as cycles built from strong handles.
//
// Not safe for concurrent use, like the handles that report to it.
type Ledger struct {
	logger *zap.Logger
	allocs map[string]int
	frees  map[string]int
	live   map[uint64]string
	nextID uint64
}

// LedgerStats summarises a ledger.
type LedgerStats struct {
	Allocs int
	Frees  int
	Live   int
}

// NewLedger creates an empty ledger. A nil logger disables logging.
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger: logger,
		allocs: make(map[string]int),
		frees:  make(map[string]int),
		live:   make(map[uint64]string),
	}
}

// NewLedgerFromConfig returns a ledger when cfg enables one, nil otherwise.
// WithLedger accepts the nil ledger and records nothing.
func NewLedgerFromConfig(cfg config.LedgerConfig, logger *zap.Logger) *Ledger {
	if !cfg.Enabled {
		return nil
	}
	return NewLedger(logger)
}

func (l *Ledger) track(label string) uint64 {
	l.nextID++
	id := l.nextID
	l.allocs[label]++
	l.live[id] = label
	l.logger.Debug("alloc", zap.String("label", label), zap.Uint64("id", id))
	return id
}

func (l *Ledger) untrack(id uint64, label string) {
	if _, ok := l.live[id]; !ok {
		l.logger.Error("free of untracked allocation", zap.String("label", label), zap.Uint64("id", id))
		return
	}
	delete(l.live, id)
	l.frees[label]++
	l.logger.Debug("free", zap.String("label", label), zap.Uint64("id", id))
}

// Allocs returns how many allocations were made under label.
func (l *Ledger) Allocs(label string) int {
	return l.allocs[label]
}

// Frees returns how many allocations under label have been freed.
func (l *Ledger) Frees(label string) int {
	return l.frees[label]
}

// Live returns the number of allocations not yet freed.
func (l *Ledger) Live() int {
	return len(l.live)
}

// LiveByLabel returns live allocation counts keyed by label.
func (l *Ledger) LiveByLabel() map[string]int {
	out := make(map[string]int)
	for _, label := range l.live {
		out[label]++
	}
	return out
}

// Stats returns the totals.
func (l *Ledger) Stats() LedgerStats {
	var s LedgerStats
	for _, n := range l.allocs {
		s.Allocs += n
	}
	for _, n := range l.frees {
		s.Frees += n
	}
	s.Live = len(l.live)
	return s
}

// Check returns one *LeakError per label that still has live allocations,
// combined with multierr, or nil.
func (l *Ledger) Check() error {
	byLabel := l.LiveByLabel()
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var err error
	for _, label := range labels {
		n := byLabel[label]
		l.logger.Warn("leaked allocations", zap.String("label", label), zap.Int("live", n))
		err = multierr.Append(err, &LeakError{Label: label, Live: n})
	}
	return err
}
