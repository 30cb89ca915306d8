package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/farmtotable/arena"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through the allocator step by step",
	Long: `Replay a short allocation sequence on a 1 KiB arena and print both
offsets after every step: aligned allocations, in-place growth of the last
allocation, a checkpoint rollback and an exhausted request.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	a, err := arena.New(1024, arena.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Release()

	out := cmd.OutOrStdout()
	step := func(label string) {
		prev, curr := a.Offsets()
		fmt.Fprintf(out, "  %-28s prev %4d  curr %4d\n", label, prev, curr)
	}

	fmt.Fprintf(out, "Arena of %s\n", humanize.IBytes(uint64(a.Capacity())))
	step("init")

	if _, err := a.Alloc(16, 16); err != nil {
		return err
	}
	step("alloc 16 @16")

	p, err := a.Alloc(8, 8)
	if err != nil {
		return err
	}
	step("alloc 8 @8")

	if _, err := a.Resize(p, 40, 8); err != nil {
		return err
	}
	step("resize last 8 -> 40")

	if _, err := a.Alloc(4, 4); err != nil {
		return err
	}
	step("alloc 4 @4")

	cp := a.BeginCheckpoint()
	line, err := arena.Sprintf(a, "day %d energy %d", 1, 100)
	if err != nil {
		return err
	}
	step(fmt.Sprintf("sprintf %q", line))
	cp.End()
	step("end checkpoint")

	if _, err := a.Alloc(2048, 8); errors.Is(err, arena.ErrOutOfMemory) {
		fmt.Fprintf(out, "  %-28s %v\n", "alloc 2048 @8", err)
	} else if err != nil {
		return err
	}
	step("after failed alloc")

	fmt.Fprintln(out, a)
	return nil
}
