// farmarena runs a headless farming simulation on top of fixed-capacity
// memory arenas.
//
// Usage:
//
//	farmarena demo           - Walk through the allocator step by step
//	farmarena sim            - Run a scripted simulation and record it
//	farmarena runs           - Show the best recorded runs
//	farmarena inspect <file> - Summarise a world snapshot
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.farmarena, ./configs)
//	--db <path>         - Run database (default: from config)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/farmtotable/arena"
	"github.com/farmtotable/arena/budget"
	"github.com/farmtotable/arena/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "farmarena",
	Short: "Headless farming simulation backed by memory arenas",
	Long: `farmarena keeps a small farming world in two bump allocators: a
permanent arena for the entity table and a scratch arena that is reset
every frame.

Examples:
  farmarena demo
  farmarena sim --ticks 36000 --seed 7 --save world.farm
  farmarena runs
  farmarena inspect world.farm`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(inspectCmd)
}

// setup loads the config, applies flag overrides and builds the logger.
func setup() (config.Config, *log.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "farmarena",
		Level:           level,
	})
	return cfg, logger, nil
}

// arenas holds the two arenas a world runs on and the budget they share.
type arenas struct {
	perm    *arena.Arena
	scratch *arena.Arena
	budget  *budget.Budget
}

func newArenas(ctx context.Context, cfg config.ArenaConfig, logger *log.Logger) (*arenas, error) {
	b := budget.New(cfg.BudgetBytes)
	opts := []arena.Option{arena.WithLogger(logger), arena.WithMemoryAcquirer(b)}
	if cfg.OffHeap {
		opts = append(opts, arena.WithOffHeap())
	}

	perm, err := arena.NewContext(ctx, cfg.PermanentBytes, opts...)
	if err != nil {
		return nil, fmt.Errorf("permanent arena: %w", err)
	}
	scratch, err := arena.NewContext(ctx, cfg.ScratchBytes, opts...)
	if err != nil {
		perm.Release()
		return nil, fmt.Errorf("scratch arena: %w", err)
	}
	logger.Debug("arenas ready",
		"permanent", cfg.PermanentBytes, "scratch", cfg.ScratchBytes,
		"off_heap", cfg.OffHeap, "reserved", b.InUse())
	return &arenas{perm: perm, scratch: scratch, budget: b}, nil
}

func (a *arenas) Release() {
	a.scratch.Release()
	a.perm.Release()
}

func (a *arenas) Peak() int {
	return a.perm.Peak() + a.scratch.Peak()
}
