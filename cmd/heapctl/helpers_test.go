package main

import (
	"bytes"
	"testing"
)

// runCmd executes heapctl with args and returns what it wrote to stdout.
// Flag variables are reset first since cobra binds them globally.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	verbose, quiet, jsonOut, logLevel = false, false, false, ""
	policyFlag, backingFlag = "all", "heap"
	capacity, growthUnit, limit = 0, 0, 0
	demoTrace, demoSeed, demoGroup, demoFormat = "", 12345, false, "text"
	benchMode, benchOps, benchSeed, benchOut = "phased", 0, 12345, ""
	versionCheck = ""
	inspectBase = 0
	configPath, serveAddr = "", defaultServeAddr

	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = orig })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
