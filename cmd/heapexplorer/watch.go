package main

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// historyChangedMsg is sent when the followed history file was written.
type historyChangedMsg struct{}

// watchErrMsg carries an error from the file watcher.
type watchErrMsg struct{ err error }

// watcher reports writes to one file. The parent directory is watched so
// that a file replaced by rename is still seen.
type watcher struct {
	w    *fsnotify.Watcher
	path string
	evC  chan struct{}
	erC  chan error
}

func newWatcher(path string) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	fw := &watcher{w: w, path: abs, evC: make(chan struct{}, 1), erC: make(chan error, 1)}
	go fw.loop()
	return fw, nil
}

func (fw *watcher) loop() {
	defer close(fw.evC)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// Bursts collapse into one pending notification.
			select {
			case fw.evC <- struct{}{}:
			default:
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			default:
			}
		}
	}
}

// wait blocks until the next change or error. It returns a nil message once
// the watcher is closed.
func (fw *watcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-fw.evC:
			if !ok {
				return nil
			}
			return historyChangedMsg{}
		case err := <-fw.erC:
			return watchErrMsg{err: err}
		}
	}
}

func (fw *watcher) Close() error { return fw.w.Close() }
