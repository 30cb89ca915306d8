package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/farmtotable/arena"
	"github.com/farmtotable/arena/internal/storage"
	"github.com/farmtotable/arena/internal/world"
)

var (
	flagTicks    int
	flagSeed     uint64
	flagSaveFile string
	flagNoRecord bool
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a scripted simulation and record it",
	Long: `Populate a world from a seed and let a scripted farmer walk and
harvest until the tick limit or until it runs out of energy. Every frame
formats the status line in the scratch arena and resets it.

Examples:
  farmarena sim
  farmarena sim --ticks 36000 --seed 7
  farmarena sim --save world.farm --no-record`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	simCmd.Flags().IntVar(&flagTicks, "ticks", 60*60*10, "Maximum number of ticks")
	simCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "World seed (0 = random based on time)")
	simCmd.Flags().StringVar(&flagSaveFile, "save", "", "Write a world snapshot to this file")
	simCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not store the run in the database")
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if need := world.Footprint(cfg.World); need > cfg.Arena.PermanentBytes {
		return fmt.Errorf("permanent arena of %s cannot hold the world (needs %s)",
			humanize.IBytes(uint64(cfg.Arena.PermanentBytes)), humanize.IBytes(uint64(need)))
	}

	ar, err := newArenas(cmd.Context(), cfg.Arena, logger)
	if err != nil {
		return err
	}
	defer ar.Release()

	w, err := world.New(cfg.World, ar.perm, ar.scratch, world.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := w.Populate(seed); err != nil {
		return err
	}
	w.Start()
	logger.Info("simulation started", "seed", seed, "ticks", flagTicks)

	rng := rand.New(rand.NewPCG(seed, 1))
	dt := 1 / float64(cfg.World.TicksPerSec)
	actEvery := max(cfg.World.TicksPerSec/4, 1)

	for i := 0; i < flagTicks && w.Phase() == world.PhasePlay; i++ {
		w.Step(dt)
		if i%actEvery == 0 {
			scriptedTurn(w, rng)
		}
		line, err := w.StatusLine()
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if i%(cfg.World.TicksPerSec*60) == 0 {
			logger.Debug(line)
		}
		w.EndFrame()
	}

	out := cmd.OutOrStdout()
	if err := w.HUD(func(line string) { fmt.Fprintln(out, line) }); err != nil {
		return err
	}
	printArena(out, "permanent", ar.perm)
	printArena(out, "scratch", ar.scratch)

	if flagSaveFile != "" {
		if err := saveSnapshot(w, flagSaveFile); err != nil {
			return err
		}
		logger.Info("snapshot written", "file", flagSaveFile)
	}

	if flagNoRecord {
		return nil
	}
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	inv := w.Inventory()
	id, err := store.SaveRun(storage.Run{
		Seed:      seed,
		Days:      w.Day(),
		Ticks:     w.Ticks(),
		Stone:     inv.Stone,
		Fiber:     inv.Fiber,
		PeakBytes: ar.Peak(),
	})
	if err != nil {
		return err
	}
	logger.Info("run recorded", "id", id, "score", inv.Stone+inv.Fiber, "phase", w.Phase())
	return nil
}

var directions = [4]world.Tile{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// scriptedTurn harvests a neighbouring rock or weed, otherwise steps onto
// a neighbouring drop, otherwise wanders.
func scriptedTurn(w *world.World, rng *rand.Rand) {
	p := w.Player()
	var drop, open []world.Tile
	for _, d := range directions {
		t := world.Tile{X: p.X + d.X, Y: p.Y + d.Y}
		if !w.InBounds(t) {
			continue
		}
		e, ok := w.At(t)
		switch {
		case ok && e.Kind.Solid():
			_ = w.Harvest(t)
			return
		case ok && e.Kind == world.KindDrop:
			drop = append(drop, t)
		default:
			open = append(open, t)
		}
	}
	if len(drop) > 0 {
		_ = w.MoveTo(drop[0])
		return
	}
	if len(open) > 0 {
		_ = w.MoveTo(open[rng.IntN(len(open))])
	}
}

func printArena(out io.Writer, name string, a *arena.Arena) {
	m := a.Metrics()
	fmt.Fprintf(out, "%-9s arena: %s of %s in use, peak %s, %d allocations\n",
		name, humanize.IBytes(uint64(m.SizeInUse)), humanize.IBytes(uint64(m.Capacity)),
		humanize.IBytes(uint64(m.Peak)), m.NumAllocs)
}

func saveSnapshot(w *world.World, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return w.Save(f)
}
