package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Policy      string // "" for benchmarks that do not split by policy
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult holds one operation measured under every policy it was run with.
type ComparisonResult struct {
	Operation string
	ByPolicy  map[string]BenchmarkResult
	Fastest   string
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// Lines look like:
// BenchmarkAlloc_Free/FIRST_FIT-8    10000    12450 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons, standalone := generateComparisons(results)
	report := generateMarkdownReport(comparisons, standalone, time.Now())

	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

// parseBenchmarks reads plain `go test -bench` output or `go test -json` events.
func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	for scanner.Scan() {
		line := scanner.Text()

		var event struct {
			Output string `json:"Output"`
		}
		if strings.HasPrefix(line, "{") && jsoniter.UnmarshalFromString(line, &event) == nil {
			line = event.Output
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp, allocsPerOp int64
		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		operation, policy := splitName(name)
		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Policy:      policy,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// splitName turns Benchmark<Operation>[/<POLICY>][-<procs>] into its parts.
// The policy is returned in its canonical spelling.
func splitName(name string) (operation, policy string) {
	name = strings.TrimPrefix(name, "Benchmark")
	if i := strings.LastIndex(name, "-"); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			name = name[:i]
		}
	}

	operation, sub, found := strings.Cut(name, "/")
	if !found {
		return operation, ""
	}
	p, err := alloc.ParsePolicy(sub)
	if err != nil {
		return name, ""
	}
	return operation, p.String()
}

// generateComparisons groups policy runs by operation. Results without a
// policy are returned separately in input order.
func generateComparisons(results []BenchmarkResult) ([]ComparisonResult, []BenchmarkResult) {
	grouped := make(map[string]map[string]BenchmarkResult)
	var standalone []BenchmarkResult

	for _, r := range results {
		if r.Policy == "" {
			standalone = append(standalone, r)
			continue
		}
		if grouped[r.Operation] == nil {
			grouped[r.Operation] = make(map[string]BenchmarkResult)
		}
		grouped[r.Operation][r.Policy] = r
	}

	comparisons := make([]ComparisonResult, 0, len(grouped))
	for op, byPolicy := range grouped {
		c := ComparisonResult{Operation: op, ByPolicy: byPolicy}
		// Walk policies in declaration order so ties go to the earlier one.
		for _, p := range alloc.Policies() {
			r, ok := byPolicy[p.String()]
			if !ok {
				continue
			}
			if c.Fastest == "" || r.NsPerOp < byPolicy[c.Fastest].NsPerOp {
				c.Fastest = p.String()
			}
		}
		comparisons = append(comparisons, c)
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Operation < comparisons[j].Operation
	})

	return comparisons, standalone
}

func generateMarkdownReport(comparisons []ComparisonResult, standalone []BenchmarkResult, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Allocator Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format("2006-01-02 15:04:05")))

	wins := make(map[string]int)
	for _, c := range comparisons {
		wins[c.Fastest]++
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Policy comparisons**: %d\n", len(comparisons)))
	for _, p := range alloc.Policies() {
		sb.WriteString(fmt.Sprintf("  - %s fastest: %d\n", p, wins[p.String()]))
	}
	sb.WriteString(fmt.Sprintf("- **Policy-independent benchmarks**: %d\n", len(standalone)))
	sb.WriteString("\n")

	if len(comparisons) > 0 {
		sb.WriteString("## By Policy\n\n")
		sb.WriteString("| Operation |")
		for _, p := range alloc.Policies() {
			sb.WriteString(fmt.Sprintf(" %s (ns/op) |", p))
		}
		sb.WriteString(" Fastest | vs FIRST_FIT |\n")
		sb.WriteString("|-----------|")
		for range alloc.Policies() {
			sb.WriteString("------|")
		}
		sb.WriteString("---------|--------------|\n")

		for _, c := range comparisons {
			sb.WriteString(fmt.Sprintf("| %s |", c.Operation))
			for _, p := range alloc.Policies() {
				r, ok := c.ByPolicy[p.String()]
				if !ok {
					sb.WriteString(" *N/A* |")
					continue
				}
				sb.WriteString(fmt.Sprintf(" %s |", formatNumber(r.NsPerOp)))
			}
			sb.WriteString(fmt.Sprintf(" **%s** | %s |\n", c.Fastest, speedup(c)))
		}
		sb.WriteString("\n")
	}

	if len(standalone) > 0 {
		sb.WriteString("## Other Benchmarks\n\n")
		sb.WriteString("| Benchmark | ns/op | Memory (B/op) | Allocs |\n")
		sb.WriteString("|-----------|-------|---------------|--------|\n")
		for _, r := range standalone {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				r.Operation,
				formatNumber(r.NsPerOp),
				formatBytes(r.BytesPerOp),
				formatNumber(float64(r.AllocsPerOp)),
			))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **vs FIRST_FIT**: FIRST_FIT time divided by the fastest policy's time\n")
	sb.WriteString("- Times are per operation; lower is better\n")

	return sb.String()
}

// speedup compares the fastest policy against first fit, the baseline search.
func speedup(c ComparisonResult) string {
	base, ok := c.ByPolicy[alloc.FirstFit.String()]
	best := c.ByPolicy[c.Fastest]
	if !ok || best.NsPerOp == 0 {
		return "*N/A*"
	}
	return fmt.Sprintf("%.2fx", base.NsPerOp/best.NsPerOp)
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
