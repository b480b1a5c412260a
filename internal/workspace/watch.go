package workspace

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrylabs/quarry/internal/fragment"
)

const debounceDelay = 100 * time.Millisecond

// Watch blocks until ctx is done, re-extracting a fragment's
// dependencies whenever its file is written. onChange, when non-nil,
// runs after each successful refresh with the fragment name.
func (w *Workspace) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.store.Dir()); err != nil {
		return err
	}

	// Debounce per fragment: editors fire several writes per save, and
	// our own header rewrite lands as a rename.
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := fragmentName(event.Name)
			if name == "" {
				continue
			}

			if timer, ok := timers[name]; ok {
				timer.Stop()
			}
			timers[name] = time.AfterFunc(debounceDelay, func() {
				w.logger.Debug("fragment file changed", "fragment", name)
				if _, err := w.Refresh(name); err != nil {
					w.logger.Error("refresh failed", "fragment", name, "error", err)
					return
				}
				if onChange != nil {
					onChange(name)
				}
			})

		case err := <-watcher.Errors:
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// fragmentName maps a file path to its fragment name, empty for files
// the workspace does not own.
func fragmentName(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".sql") {
		return ""
	}
	name := strings.TrimSuffix(base, ".sql")
	if !fragment.ValidName.MatchString(name) {
		return ""
	}
	return name
}
