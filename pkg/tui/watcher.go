package tui

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/stefanpenner/tempo/pkg/store"
)

const watchDebounce = 200 * time.Millisecond

// isStateFile reports whether name is the state database or one of its
// journal files.
func isStateFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), store.DBName)
}

// StartWatcher watches the data directory for writes to the state database
// made by other tempo processes and sends StateChangedMsg.
func StartWatcher(dataDir string, program *tea.Program, logger *slog.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dataDir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})

	go func() {
		var debounceTimer *time.Timer

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isStateFile(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(watchDebounce, func() {
					program.Send(StateChangedMsg{})
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("state watcher", "error", err)

			case <-done:
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()

	cleanup := func() {
		close(done)
		watcher.Close()
	}

	return cleanup, nil
}
