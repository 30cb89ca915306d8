package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/farmtotable/arena"
	"github.com/farmtotable/arena/internal/world"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Summarise a world snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	hdr, body, err := world.ReadSnapshotHeader(f)
	if err != nil {
		f.Close()
		return err
	}
	body.Close()
	f.Close()

	// Size the world after the snapshot, not the config.
	wcfg := cfg.World
	wcfg.Width = int(hdr.Width)
	wcfg.Height = int(hdr.Height)
	wcfg.MaxEntities = max(wcfg.MaxEntities, int(hdr.Count))

	// ReadSnapshotHeader bounds the map and entity count, so this stays small.
	perm, err := arena.New(world.Footprint(wcfg), arena.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("permanent arena: %w", err)
	}
	defer perm.Release()
	scratch, err := arena.New(cfg.Arena.ScratchBytes, arena.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("scratch arena: %w", err)
	}
	defer scratch.Release()

	w, err := world.New(wcfg, perm, scratch, world.WithLogger(logger))
	if err != nil {
		return err
	}
	f, err = os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := w.Load(f); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	counts := w.Counts()
	fmt.Fprintf(out, "%s (%s)\n", path, humanize.IBytes(uint64(info.Size())))
	fmt.Fprintf(out, "  map      %dx%d tiles, %d entity slots\n", hdr.Width, hdr.Height, hdr.Count)
	fmt.Fprintf(out, "  phase    %s after %s ticks\n", w.Phase(), humanize.Comma(int64(w.Ticks())))
	fmt.Fprintf(out, "  entities %d rocks, %d weeds, %d drops\n", counts[world.KindRock], counts[world.KindWeed], counts[world.KindDrop])
	return w.HUD(func(line string) { fmt.Fprintln(out, "  "+line) })
}
