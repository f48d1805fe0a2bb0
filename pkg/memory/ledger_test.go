package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rccell/pkg/config"
)

func TestLedgerCountsAndStats(t *testing.T) {
	l := NewLedger(zap.NewNop())
	a := New(1, WithLedger(l, "x"))
	b := New(2, WithLedger(l, "x"))
	c := New(3, WithLedger(l, "y"))

	require.Equal(t, 2, l.Allocs("x"))
	require.Equal(t, map[string]int{"x": 2, "y": 1}, l.LiveByLabel())

	a.Release()
	c.Release()
	require.Equal(t, LedgerStats{Allocs: 3, Frees: 2, Live: 1}, l.Stats())

	b.Release()
	require.Equal(t, 0, l.Live())
	require.NoError(t, l.Check())
}

func TestLedgerCheckReportsEveryLabel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := NewLedger(zap.New(core))
	New(1, WithLedger(l, "b"))
	New(2, WithLedger(l, "a"))
	New(3, WithLedger(l, "a"))

	err := l.Check()
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	require.Equal(t, &LeakError{Label: "a", Live: 2}, errs[0])
	require.Equal(t, &LeakError{Label: "b", Live: 1}, errs[1])
	require.Equal(t, 2, logs.FilterMessage("leaked allocations").Len())
}

func TestLedgerNilLogger(t *testing.T) {
	l := NewLedger(nil)
	r := New("v", WithLedger(l, ""))
	r.Release()
	require.Equal(t, 1, l.Frees(""))
}

func TestNewLedgerFromConfig(t *testing.T) {
	require.Nil(t, NewLedgerFromConfig(config.LedgerConfig{Enabled: false}, nil))

	l := NewLedgerFromConfig(config.LedgerConfig{Enabled: true}, zap.NewNop())
	require.NotNil(t, l)
	r := New(1, WithLedger(l, "x"))
	require.Equal(t, 1, l.Live())
	r.Release()
	require.NoError(t, l.Check())
}

func TestWithNilLedgerRecordsNothing(t *testing.T) {
	r := New(1, WithLedger(NewLedgerFromConfig(config.LedgerConfig{}, nil), "x"))
	require.Equal(t, "x", r.Label())
	r.Release()
}
