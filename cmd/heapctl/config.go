package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/backing"
)

var configPath string

// fileConfig is the layout of a --config file. A value from the file applies
// when the matching flag is left at its default.
type fileConfig struct {
	Arena arenaSection `toml:"arena" json:"arena"`
	Log   logSection   `toml:"log" json:"log"`
	Serve serveSection `toml:"serve" json:"serve"`
}

type arenaSection struct {
	Policy     string `toml:"policy" json:"policy"`
	Backing    string `toml:"backing" json:"backing"`
	Capacity   int    `toml:"capacity" json:"capacity"`
	GrowthUnit int    `toml:"growth_unit" json:"growth_unit"`
	Limit      int    `toml:"limit" json:"limit"`
}

type logSection struct {
	Level string `toml:"level" json:"level"`
}

type serveSection struct {
	Addr string `toml:"addr" json:"addr"`
}

const (
	defaultPolicy    = "all"
	defaultServeAddr = ":8080"
)

var errConfig = errors.New("invalid config file")

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Read arena, log and serve defaults from this TOML file")
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as TOML",
		Long: `The config command prints the settings a command would run with after
the --config file and the flags are merged. The output is a valid config
file.

Example:
  heapctl config > heapctl.toml
  heapctl config --config heapctl.toml --policy best
  heapctl config --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig()
			if jsonOut {
				return printJSON(cfg)
			}
			return toml.NewEncoder(stdout).Encode(cfg)
		},
	}
}

// loadConfig decodes path and rejects keys it does not know.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%w %s: %w", errConfig, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fileConfig{}, fmt.Errorf("%w %s: unknown keys %s", errConfig, path, strings.Join(keys, ", "))
	}
	if cfg.Arena.Capacity < 0 || cfg.Arena.GrowthUnit < 0 || cfg.Arena.Limit < 0 {
		return fileConfig{}, fmt.Errorf("%w %s: negative arena size", errConfig, path)
	}
	return cfg, nil
}

// applyConfig fills every flag still at its default from cfg.
func applyConfig(cfg fileConfig) {
	if policyFlag == defaultPolicy && cfg.Arena.Policy != "" {
		policyFlag = cfg.Arena.Policy
	}
	if backingFlag == string(backing.KindHeap) && cfg.Arena.Backing != "" {
		backingFlag = cfg.Arena.Backing
	}
	if capacity == 0 {
		capacity = cfg.Arena.Capacity
	}
	if growthUnit == 0 {
		growthUnit = cfg.Arena.GrowthUnit
	}
	if limit == 0 {
		limit = cfg.Arena.Limit
	}
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	if serveAddr == defaultServeAddr && cfg.Serve.Addr != "" {
		serveAddr = cfg.Serve.Addr
	}
}

func currentConfig() fileConfig {
	return fileConfig{
		Arena: arenaSection{
			Policy:     policyFlag,
			Backing:    backingFlag,
			Capacity:   capacity,
			GrowthUnit: growthUnit,
			Limit:      limit,
		},
		Log:   logSection{Level: logLevel},
		Serve: serveSection{Addr: serveAddr},
	}
}
