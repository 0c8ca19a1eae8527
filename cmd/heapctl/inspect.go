package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

var inspectBase int

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <arena-file>",
		Short: "List the blocks of an arena file from its in-band headers",
		Long: `The inspect command maps an arena image read-only and walks the block
headers stored in front of every block. Arena files are written by any
command run with --backing file:<path>; the file keeps the acquired span
after the command exits.

A damaged header stops the walk. The blocks decoded before it are still
printed and the command exits with an error.

Example:
  heapctl serve --backing file:/tmp/arena.bin
  heapctl inspect /tmp/arena.bin
  heapctl inspect /tmp/arena.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}

	cmd.Flags().IntVar(&inspectBase, "base", 0, "Offset of the first block header")
	return cmd
}

func runInspect(path string) error {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return fmt.Errorf("failed to map %s: %w", path, err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("unmap failed", "path", path, "error", err)
		}
	}()

	printVerbose("Mapped %s (%d bytes)\n", path, len(data))
	blocks, scanErr := alloc.ScanArena(data, inspectBase)
	logger.Debug("arena scanned", "path", path, "blocks", len(blocks), "error", scanErr)

	opts := printer.DefaultOptions()
	if jsonOut {
		opts.Format = printer.FormatJSON
		opts.Indent = true
	}
	if !quiet || jsonOut {
		if err := printer.New(stdout, opts).PrintHeap(blocks, printer.NoHighlight); err != nil {
			return err
		}
	}
	if scanErr != nil {
		return fmt.Errorf("%s: %w", path, scanErr)
	}
	return nil
}
