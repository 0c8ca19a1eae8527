package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeClipboard is swapped out by tests.
var writeClipboard = clipboard.WriteAll

// copiedMsg reports the outcome of a clipboard copy.
type copiedMsg struct {
	step int
	err  error
}

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			logger.Warn("clipboard copy failed", "error", msg.err)
			m.statusMessage = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			m.statusMessage = fmt.Sprintf("Copied step %d to clipboard", msg.step)
		}
		return m, nil

	case historyChangedMsg:
		m.reload()
		m.statusMessage = fmt.Sprintf("Reloaded %d steps", len(m.steps))
		return m, m.watchCmd()

	case watchErrMsg:
		logger.Warn("watch error", "error", msg.err)
		m.statusMessage = fmt.Sprintf("Watch error: %v", msg.err)
		return m, m.watchCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// If help is showing, only dismiss keys and quit apply
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Esc), key.Matches(msg, m.keys.Help):
			m.showHelp = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	// Clear the previous status on any key
	m.statusMessage = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Next):
		m.setIndex(m.index + 1)

	case key.Matches(msg, m.keys.Prev):
		m.setIndex(m.index - 1)

	case key.Matches(msg, m.keys.First):
		m.setIndex(0)

	case key.Matches(msg, m.keys.Last):
		m.setIndex(len(m.steps) - 1)

	case key.Matches(msg, m.keys.Copy):
		if st := m.CurrentStep(); st != nil {
			return m, copyStep(*st)
		}
		m.statusMessage = "Nothing to copy"

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.memMap, cmd = m.memMap.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.wait()
}

// copyStep puts the step on the clipboard in its history line form.
func copyStep(st trace.Step) tea.Cmd {
	return func() tea.Msg {
		data, err := json.Marshal(st)
		if err != nil {
			return copiedMsg{step: st.Step, err: err}
		}
		return copiedMsg{step: st.Step, err: writeClipboard(string(data))}
	}
}
