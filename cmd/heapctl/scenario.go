package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/demo"
)

func init() {
	rootCmd.AddCommand(newScenarioCmd())
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run the hole-reuse and hole-selection script",
		Long: `The scenario command acquires a 1 MiB pool and runs a fixed script:

  1. allocate 100, 500 and 200 bytes, free the 500, allocate 300 with
     first-fit and check that it lands in the freed hole;
  2. allocate 100, 2000, 100, 500 and 100 bytes, free the 2000 and the 500,
     and allocate 400 with the selected policy.

First-fit takes the 2000-byte hole, best-fit the 500-byte hole, and
worst-fit the untouched rest of the pool.

Example:
  heapctl scenario
  heapctl scenario --policy best --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario()
		},
	}
	return cmd
}

func runScenario() error {
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

	type summary struct {
		Policy     string `json:"policy"`
		ReusedHole bool   `json:"reused_hole"`
		Landed     string `json:"landed"`
	}
	var results []summary
	for _, p := range policies {
		res, err := demo.Scenario(opts, p)
		if err != nil {
			return fmt.Errorf("%s scenario: %w", p, err)
		}
		results = append(results, summary{p.String(), res.ReusedHole, string(res.Landed)})
	}

	if jsonOut {
		return printJSON(results)
	}
	printInfo("\n%-10s %-12s %s\n", "POLICY", "REUSED HOLE", "400 BYTES LANDED IN")
	for _, r := range results {
		printInfo("%-10s %-12t %s\n", r.Policy, r.ReusedHole, r.Landed)
	}
	return nil
}
