package main

import (
	"errors"
	"io/fs"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/heapkit/heap/bench"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Layout constants
const (
	HeaderHeight = 3  // Bordered single-line header
	StatsHeight  = 10 // Distribution and benchmark panes, borders included
	StatusHeight = 1
	MinMapHeight = 3
	DefaultWidth = 100
)

// Model is the main application model
type Model struct {
	historyPath string
	resultsPath string

	steps   []trace.Step
	index   int
	results []bench.Result

	keys     KeyMap
	help     help.Model
	memMap   viewport.Model
	showHelp bool
	width    int
	height   int

	// Set when --follow is active
	watcher *watcher

	// Status message for temporary feedback
	statusMessage string

	err error
}

// NewModel creates a model from a history file and an optional results file.
// A missing or unreadable results file leaves the benchmark pane empty.
func NewModel(historyPath, resultsPath string) Model {
	m := Model{
		historyPath: historyPath,
		resultsPath: resultsPath,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		memMap:      viewport.New(DefaultWidth, MinMapHeight),
		width:       DefaultWidth,
	}

	steps, err := trace.ReadFile(historyPath)
	if err != nil {
		logger.Error("failed to load history", "path", historyPath, "error", err)
		m.err = err
		return m
	}
	m.steps = steps
	logger.Debug("history loaded", "path", historyPath, "steps", len(steps))

	if resultsPath != "" {
		results, err := bench.ReadFile(resultsPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("no benchmark results", "path", resultsPath)
		case err != nil:
			logger.Warn("ignoring benchmark results", "path", resultsPath, "error", err)
		default:
			m.results = results
		}
	}

	m.refreshMap()
	return m
}

// Init returns the first watch command when following.
func (m Model) Init() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.wait()
}

// Follow starts watching the history file. Call before the program starts.
func (m *Model) Follow() error {
	w, err := newWatcher(m.historyPath)
	if err != nil {
		return err
	}
	m.watcher = w
	return nil
}

// Close stops the watcher, if any.
func (m Model) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

// CurrentStep returns the step on screen, or nil when the history is empty.
func (m Model) CurrentStep() *trace.Step {
	if len(m.steps) == 0 {
		return nil
	}
	return &m.steps[m.index]
}

// Index returns the position of the current step.
func (m Model) Index() int { return m.index }

// StepCount returns the number of loaded steps.
func (m Model) StepCount() int { return len(m.steps) }

func (m *Model) setIndex(i int) {
	if len(m.steps) == 0 {
		m.index = 0
		return
	}
	m.index = max(0, min(i, len(m.steps)-1))
	m.refreshMap()
}

// reload re-reads the history. A viewer parked on the last step moves to the
// new last step; otherwise the position is kept.
func (m *Model) reload() {
	steps, err := trace.ReadFile(m.historyPath)
	if err != nil {
		// A writer may be mid-line; keep what parsed and wait for the next event.
		logger.Debug("partial reload", "path", m.historyPath, "error", err)
		if len(steps) == 0 {
			return
		}
	}

	atTail := len(m.steps) == 0 || m.index == len(m.steps)-1
	m.steps = steps
	if atTail {
		m.setIndex(len(steps) - 1)
	} else {
		m.setIndex(m.index)
	}
	logger.Debug("history reloaded", "steps", len(steps), "index", m.index)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	m.memMap.Width = max(width-4, 10)
	m.memMap.Height = max(height-HeaderHeight-StatsHeight-StatusHeight-2, MinMapHeight)
	m.refreshMap()
}

func (m *Model) refreshMap() {
	st := m.CurrentStep()
	if st == nil {
		m.memMap.SetContent("")
		return
	}
	m.memMap.SetContent(renderMemoryMap(*st, m.memMap.Width))
}
