package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/backing"
	"github.com/joshuapare/heapkit/heap/demo"
	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	demoTrace  string
	demoSeed   uint64
	demoGroup  bool
	demoFormat string
)

func init() {
	cmd := newDemoCmd()
	cmd.Flags().StringVar(&demoTrace, "trace", "", "Append a JSON-lines heap history to this file (e.g. heap_history.jsonl)")
	cmd.Flags().Uint64Var(&demoSeed, "seed", 12345, "Seed for request sizes and free order")
	cmd.Flags().BoolVar(&demoGroup, "group-digits", false, "Print byte counts with thousands separators")
	cmd.Flags().StringVar(&demoFormat, "format", "text", "Heap dump format: text or json")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the visual allocation walkthrough",
		Long: `The demo command allocates ten blocks of 32..512 bytes, frees five of them
at random and re-allocates five, dumping the heap after every re-allocation
with the new block highlighted. It runs once per selected policy on a
640-byte arena.

Example:
  heapctl demo
  heapctl demo --policy best
  heapctl demo --trace heap_history.jsonl
  heapexplorer heap_history.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	return cmd
}

// demoOptions builds the walkthrough options from flags.
func demoOptions(out io.Writer) (demo.Options, error) {
	opts := demo.DefaultOptions(out)
	opts.Seed = demoSeed
	opts.Arena = arenaConfig(alloc.VisualConfig)
	opts.Backing = backing.Kind(backingFlag)
	if limit > 0 {
		opts.Limit = limit
	}
	opts.Logger = logger.L

	f, err := printer.ParseFormat(demoFormat)
	if err != nil {
		return opts, err
	}
	opts.Printer.Format = f
	opts.Printer.GroupDigits = demoGroup
	return opts, nil
}

func runDemo() error {
	policies, err := parsePolicies(policyFlag)
	if err != nil {
		return err
	}

	out := stdout
	if quiet || jsonOut {
		out = io.Discard
	}
	opts, err := demoOptions(out)
	if err != nil {
		return err
	}

	if demoTrace != "" {
		f, err := os.OpenFile(demoTrace, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		defer f.Close()
		opts.Trace = f
	}

	var results []demo.WalkthroughResult
	for _, p := range policies {
		logger.Info("walkthrough", "policy", p.String())
		res, err := demo.Walkthrough(opts, p)
		if err != nil {
			return fmt.Errorf("%s walkthrough: %w", p, err)
		}
		results = append(results, res)
	}

	if jsonOut {
		type summary struct {
			Policy string `json:"policy"`
			Sizes  []int  `json:"sizes"`
			Freed  []int  `json:"freed"`
			Blocks int    `json:"total_blocks"`
		}
		var out []summary
		for _, r := range results {
			out = append(out, summary{r.Policy.String(), r.Sizes, r.Freed, len(r.Final)})
		}
		return printJSON(out)
	}

	if demoTrace != "" {
		printInfo("Heap history written to %s\n", demoTrace)
	}
	return nil
}
