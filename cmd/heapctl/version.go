package main

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCheck string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information.

With --check, exit non-zero unless this build satisfies the given semver
constraint. Development builds never satisfy a constraint.

Example:
  heapctl version
  heapctl version --check ">= 0.2, < 1.0"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionCheck != "" {
			return checkVersion(version, versionCheck)
		}
		printInfo("heapctl %s\n", version)
		printInfo("  commit: %s\n", commit)
		printInfo("  built: %s\n", date)
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionCheck, "check", "", "Semver constraint this build must satisfy")
	rootCmd.AddCommand(versionCmd)
}

// checkVersion reports whether v satisfies constraint.
func checkVersion(v, constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid constraint %q: %w", constraint, err)
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("build version %q is not a release version", v)
	}
	if ok, errs := c.Validate(sv); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("heapctl %s: %w", sv, errs[0])
		}
		return fmt.Errorf("heapctl %s does not satisfy %q", sv, constraint)
	}
	printInfo("heapctl %s satisfies %s\n", sv, constraint)
	return nil
}
