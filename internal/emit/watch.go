package emit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// DefaultDebounce is how long Watch waits after the last change before
// emitting again.
const DefaultDebounce = 100 * time.Millisecond

// WatchFunc receives the outcome of every emission in watch mode.
type WatchFunc func(*Result, error)

// Watch emits once, then again whenever a source file or tsconfig.json
// changes, until ctx is done. Fatal compile results are passed to onResult
// and do not stop the loop. Emits run on the calling goroutine, so no
// onResult call happens after Watch returns. A missing src directory is
// picked up once it is created.
func (e *Emitter) Watch(ctx context.Context, overrides tc.OptionSet, debounce time.Duration, onResult WatchFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	run := func() {
		res, err := e.EmitDeclarations(ctx, overrides)
		if onResult != nil {
			onResult(res, err)
		}
	}

	run()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(e.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.root, err)
	}
	if err := watchDir(watcher, filepath.Join(e.root, SourceDir)); err != nil {
		return fmt.Errorf("failed to watch sources: %w", err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-fire:
			fire = nil
			run()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if e.isNewSourceDir(event) {
				// files may have landed before the directory was watched
				_ = watchDir(watcher, event.Name)
			} else if !e.relevant(event.Name) {
				continue
			}

			e.sink.Debug("change detected", "file", filepath.Base(event.Name))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.sink.Warn(fmt.Sprintf("watcher error: %v", err))
		}
	}
}

// relevant reports whether a changed path can affect emitted declarations.
func (e *Emitter) relevant(path string) bool {
	if path == e.resolver.ConfigPath() {
		return true
	}
	if !e.inSources(path) || strings.HasSuffix(path, ".d.ts") {
		return false
	}
	return slices.Contains(SourceExtensions, filepath.Ext(path))
}

func (e *Emitter) isNewSourceDir(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == 0 || !e.inSources(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

func (e *Emitter) inSources(path string) bool {
	rel, err := filepath.Rel(filepath.Join(e.root, SourceDir), path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// watchDir recursively adds a directory to the watcher. A missing dir is
// not an error.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			// Skip node_modules and hidden directories
			if info.Name() == "node_modules" || (len(info.Name()) > 1 && info.Name()[0] == '.') {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
