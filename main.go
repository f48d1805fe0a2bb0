package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"rccell/pkg/config"
	"rccell/pkg/list"
	"rccell/pkg/logutil"
	"rccell/pkg/memory"
)

var (
	configFile = flag.String("config", "", "Config file (.toml or .yaml)")
	verbose    = flag.Bool("v", false, "Verbose output (debug logging)")
	addend     = flag.Int("add", 10, "Amount added to the shared cell")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rccell - shared cells in structurally shared lists\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logutil.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ledger := memory.NewLedgerFromConfig(cfg.Ledger, logger.Named("ledger"))

	if err := run(os.Stdout, ledger, *addend); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}

	if ledger != nil {
		if err := ledger.Check(); err != nil {
			logger.Warn("allocations outlived their owners", zap.Error(err))
			if cfg.Ledger.FailOnLeak {
				os.Exit(1)
			}
		}
		stats := ledger.Stats()
		logger.Info("ledger", zap.Int("allocs", stats.Allocs), zap.Int("frees", stats.Frees))
	}
}

func track(ledger *memory.Ledger, label string) []memory.Option {
	if ledger == nil {
		return nil
	}
	return []memory.Option{memory.WithLedger(ledger, label)}
}

func run(out io.Writer, ledger *memory.Ledger, add int) error {
	s := memory.NewScope()
	defer s.Close()

	value := memory.NewShared(5, track(ledger, "value")...)
	a := memory.Own(s, list.Cons(value.Clone(),
		list.Cons(memory.NewShared(10, track(ledger, "ten")...), list.Nil(track(ledger, "nil")...), track(ledger, "a.1")...),
		track(ledger, "a.0")...))
	s.Add(value)
	fmt.Fprintf(out, "count after creating a = %d\n", a.Count())

	b := memory.Own(s, list.Prepend(6, a, track(ledger, "b")...))
	fmt.Fprintf(out, "count after creating b = %d\n", a.Count())

	inner := s.Enter()
	c := memory.Own(inner, list.Prepend(4, a, track(ledger, "c")...))
	fmt.Fprintf(out, "count after creating c = %d\n", a.Count())

	if err := value.Update(func(v *int) { *v += add }); err != nil {
		return err
	}

	fmt.Fprintf(out, "a after = %s\n", list.Format(a))
	fmt.Fprintf(out, "b after = %s\n", list.Format(b))
	fmt.Fprintf(out, "c after = %s\n", list.Format(c))

	inner.Close()
	fmt.Fprintf(out, "count after c goes out of scope = %d\n", a.Count())
	return nil
}
