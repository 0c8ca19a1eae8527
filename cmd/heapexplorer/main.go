package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse flags first (before positional args)
	args := os.Args[1:]
	debugMode := false
	follow := false

	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "--debug", "-d":
			debugMode = true
		case "--follow", "-f":
			follow = true
		default:
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: debugMode,
		App:     "heapexplorer",
		Level:   slog.LevelDebug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	if filteredArgs[0] == "--help" || filteredArgs[0] == "-h" {
		printHelp()
		os.Exit(0)
	}

	if filteredArgs[0] == "--version" || filteredArgs[0] == "-v" {
		fmt.Printf("heapexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	historyPath := filteredArgs[0]
	resultsPath := ""
	if len(filteredArgs) > 1 {
		resultsPath = filteredArgs[1]
	}
	logger.Info("starting heapexplorer", "history", historyPath, "results", resultsPath, "follow", follow)

	if _, err := os.Stat(historyPath); err != nil {
		logger.Error("history file not found", "path", historyPath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: history file not found: %s\n", historyPath)
		os.Exit(1)
	}

	m := NewModel(historyPath, resultsPath)
	if follow {
		if err := m.Follow(); err != nil {
			logger.Warn("follow disabled", "error", err)
			fmt.Fprintf(os.Stderr, "Warning: cannot watch %s: %v\n", historyPath, err)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			logger.Warn("error closing watcher", "error", err)
		}
	}

	logger.Info("heapexplorer exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options] <heap_history.jsonl> [results.json]\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapexplorer - Interactive TUI for allocator heap histories")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapexplorer [options] <heap_history.jsonl> [results.json]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Replays the snapshots written by 'heapctl demo --trace' one step at a time")
	fmt.Println("  and shows the benchmark results written by 'heapctl bench -o'.")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    n/→         Next step")
	fmt.Println("    p/←         Previous step")
	fmt.Println("    g/G         First/last step")
	fmt.Println("    ↑/↓         Scroll the memory map")
	fmt.Println("    y           Copy current step as JSON")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -f, --follow   Reload the history whenever the file changes")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.heapexplorer/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  heapexplorer heap_history.jsonl")
	fmt.Println("  heapexplorer --follow heap_history.jsonl results.json")
}
