package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/toyz/anchor/internal/scanner"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports batches of changed Go source files below a set of
// directories
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
	files    scanner.FileFilter
	dirs     scanner.DirectoryFilter
}

// NewWatcher starts watching the directories patterns resolve to
func NewWatcher(patterns []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	dirs, err := scanner.ResolvePatterns(patterns)
	if err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		debounce: debounce,
		logger:   logger,
		files:    scanner.DefaultGoFileFilter(),
		dirs:     scanner.DefaultDirectoryFilter(),
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, err
		}
		logger.Debug("watching", zap.String("dir", dir))
	}
	return w, nil
}

// Close stops watching
func (w *Watcher) Close() error { return w.fs.Close() }

// Run calls onChange with the sorted files changed since the last call until
// ctx is cancelled
func (w *Watcher) Run(ctx context.Context, onChange func(files []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.track(event) {
				pending[event.Name] = true
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for file := range pending {
				files = append(files, file)
			}
			sort.Strings(files)
			pending = make(map[string]bool)
			onChange(files)
		}
	}
}

// track reports whether event touches a source file. New directories are
// added to the watch list.
func (w *Watcher) track(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	info, err := os.Stat(event.Name)
	if err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) && w.dirs(event.Name, dirEntry{info}) {
			if err := w.fs.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
			}
		}
		return false
	}

	name := filepath.Base(event.Name)
	return w.files(event.Name, fakeFile(name))
}

// dirEntry adapts os.FileInfo for the scanner filters
type dirEntry struct{ os.FileInfo }

func (d dirEntry) Type() os.FileMode          { return d.Mode().Type() }
func (d dirEntry) Info() (os.FileInfo, error) { return d.FileInfo, nil }

// fakeFile is the entry of a removed or renamed file
type fakeFile string

func (f fakeFile) Name() string               { return string(f) }
func (f fakeFile) IsDir() bool                { return false }
func (f fakeFile) Type() os.FileMode          { return 0 }
func (f fakeFile) Info() (os.FileInfo, error) { return nil, os.ErrNotExist }
