package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/farmtotable/arena/internal/storage"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the best recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 10, "Number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.TopRuns(flagRunsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "Run 'farmarena sim' to record one.")
		return nil
	}

	fmt.Fprintf(out, "  %-4s  %-6s  %-5s  %-5s  %-5s  %-10s  %-20s  %s\n", "Rank", "Score", "Stone", "Fiber", "Days", "Peak", "Seed", "When")
	fmt.Fprintf(out, "  %-4s  %-6s  %-5s  %-5s  %-5s  %-10s  %-20s  %s\n", "----", "-----", "-----", "-----", "----", "----", "----", "----")
	for i, r := range runs {
		fmt.Fprintf(out, "  %-4d  %-6d  %-5d  %-5d  %-5d  %-10s  %-20d  %s\n",
			i+1, r.Score(), r.Stone, r.Fiber, r.Days,
			humanize.IBytes(uint64(r.PeakBytes)), r.Seed, humanize.Time(r.CreatedAt))
	}
	return nil
}
