package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TestHelper provides utilities for testing TUI components
type TestHelper struct {
	model Model
	last  tea.Cmd
}

// NewTestHelper creates a test helper with a model
func NewTestHelper(historyPath, resultsPath string) *TestHelper {
	return &TestHelper{
		model: NewModel(historyPath, resultsPath),
	}
}

// SendKey simulates a special key press. The returned command is kept but
// not executed; see RunLastCmd.
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.SendMsg(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.SendMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.SendMsg(tea.WindowSizeMsg{Width: width, Height: height})
}

// SendMsg delivers any message to the model
func (h *TestHelper) SendMsg(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.last = cmd
	return h
}

// RunLastCmd executes the command from the previous message and returns its
// result without feeding it back.
func (h *TestHelper) RunLastCmd() tea.Msg {
	if h.last == nil {
		return nil
	}
	return h.last()
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}
