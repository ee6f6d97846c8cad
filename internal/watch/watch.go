// Package watch re-runs a build when site sources change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"

	"github.com/MorrisonWill/willmorrison.com/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change before
// rebuilding.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls Rebuild after changes settle under any of Paths.
type Watcher struct {
	Paths    []string
	Debounce time.Duration
	Rebuild  func(ctx context.Context) error
	Log      *logger.Logger
}

// Run watches until ctx is cancelled. Directories that do not exist are
// skipped; directories created later are added as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range w.Paths {
		if !isDir(root) {
			w.Log.Warn("directory not found, not watching", "dir", root)
			continue
		}
		w.addTree(watcher, root)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	defer wg.Wait()
	defer cancel()

	// Rebuilds run one at a time. Changes that settle during a rebuild leave a
	// single pending request behind.
	pending := make(chan struct{}, 1)
	wg.Go(func() { w.rebuildLoop(ctx, pending) })

	var buildTimer *time.Timer
	defer func() {
		if buildTimer != nil {
			buildTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.Log.Debug("change detected", "file", event.Name, "op", event.Op.String())

			// Children of a new directory are not watched automatically.
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				w.addTree(watcher, event.Name)
			}

			if buildTimer != nil {
				buildTimer.Stop()
			}
			buildTimer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context, pending <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
			if ctx.Err() != nil {
				return
			}
			w.Log.Info("rebuilding site due to changes")
			if err := w.Rebuild(ctx); err != nil {
				w.Log.Error("error during rebuild", "error", err)
			}
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.Log.Warn("error walking directory", "dir", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if watchErr := watcher.Add(path); watchErr != nil {
				w.Log.Error("failed to watch directory", "dir", path, "error", watchErr)
			}
		}
		return nil
	})
	if err != nil {
		w.Log.Error("error during directory walk", "dir", root, "error", err)
	}
}

func isDir(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}
