package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/backing"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string

	// Arena flags
	policyFlag  string
	backingFlag string
	capacity    int
	growthUnit  int
	limit       int
)

// stdout is where command output goes; tests swap it for a buffer.
var stdout io.Writer = os.Stdout

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect the heapkit free-list allocator",
	Long: `heapctl runs the heapkit allocator through its demo scripts and
benchmarks, and can host an allocator over HTTP for interactive use.

Placement policies are first-fit, best-fit and worst-fit. Every command that
builds a heap accepts the arena flags (--capacity, --growth-unit, --limit,
--backing). Defaults for those flags can come from a TOML file given with
--config; see "heapctl config".`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Log to stderr at this level (debug, info, warn, error)")

	// Arena flags
	rootCmd.PersistentFlags().
		StringVarP(&policyFlag, "policy", "p", defaultPolicy, "Placement policy: first, best, worst or all")
	rootCmd.PersistentFlags().
		StringVar(&backingFlag, "backing", string(backing.KindHeap), "Backing source: heap, mmap or file:<path>")
	rootCmd.PersistentFlags().IntVar(&capacity, "capacity", 0, "Initial arena size in bytes (0 = command default)")
	rootCmd.PersistentFlags().IntVar(&growthUnit, "growth-unit", 0, "Arena growth granularity in bytes (0 = command default)")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 0, "Backing reservation in bytes (0 = 64 MiB)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// prepare merges the --config file into the flags and sets up logging.
func prepare(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		applyConfig(cfg)
	}
	return setupLogging(cmd, args)
}

// setupLogging routes the shared logger to stderr when asked.
func setupLogging(_ *cobra.Command, _ []string) error {
	level := logLevel
	if level == "" && verbose {
		level = "debug"
	}
	if level == "" {
		return logger.Init(logger.Options{Enabled: false})
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger.SetWriter(os.Stderr, lvl)
	return nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parsePolicies expands the --policy flag.
func parsePolicies(s string) ([]alloc.Policy, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return alloc.Policies(), nil
	}
	var out []alloc.Policy
	for _, part := range strings.Split(s, ",") {
		p, err := alloc.ParsePolicy(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// arenaConfig overlays the arena flags on def.
func arenaConfig(def alloc.Config) alloc.Config {
	cfg := def
	if capacity > 0 {
		cfg.Capacity = capacity
	}
	if growthUnit > 0 {
		cfg.GrowthUnit = growthUnit
	}
	cfg.Logger = logger.L
	return cfg
}

// openAllocator builds an allocator from the arena flags.
func openAllocator(def alloc.Config) (*alloc.Allocator, error) {
	src, err := backing.Open(backing.Kind(backingFlag), limit)
	if err != nil {
		return nil, err
	}
	cfg := arenaConfig(def)
	printVerbose("Backing: %s, limit %d bytes\n", backingFlag, src.Limit())
	return alloc.New(src, &cfg), nil
}
