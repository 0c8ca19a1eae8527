package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	got := make(chan tea.Msg, 1)
	go func() { got <- cmd() }()
	select {
	case msg := <-got:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher")
		return nil
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	history, _ := writeFixtures(t)

	w, err := newWatcher(history)
	require.NoError(t, err)
	defer w.Close()

	appendHistory(t, history, fixtureSteps()[0])
	assert.IsType(t, historyChangedMsg{}, waitMsg(t, w.wait()))
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	history, _ := writeFixtures(t)

	w, err := newWatcher(history)
	require.NoError(t, err)
	defer w.Close()

	sibling := filepath.Join(filepath.Dir(history), "other.txt")
	require.NoError(t, os.WriteFile(sibling, []byte("x"), 0o644))

	select {
	case <-w.evC:
		t.Fatal("sibling write must not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFollowWiresWatcher(t *testing.T) {
	history, results := writeFixtures(t)

	m := NewModel(history, results)
	require.NoError(t, m.Follow())
	defer m.Close()

	cmd := m.Init()
	require.NotNil(t, cmd)
	assert.Contains(t, m.renderStatus(), "following")

	appendHistory(t, history, fixtureSteps()[2])
	msg := waitMsg(t, cmd)
	require.IsType(t, historyChangedMsg{}, msg)

	updated, next := m.Update(msg)
	assert.Equal(t, 4, updated.(Model).StepCount())
	assert.NotNil(t, next, "watch command re-armed")
}

func TestFollowMissingDirectory(t *testing.T) {
	m := NewModel(filepath.Join(t.TempDir(), "gone", "h.jsonl"), "")
	assert.Error(t, m.Follow())
	assert.NoError(t, m.Close())
}
