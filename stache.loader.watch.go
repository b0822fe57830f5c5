package stache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// TemplateWatcher reports changed template files under a root directory.
// Events are debounced: a burst of writes to the same files produces one
// notification per file once the directory has been quiet for the debounce delay.
type TemplateWatcher struct {
	root     string
	debounce time.Duration
	logger   *zap.Logger
}

// NewTemplateWatcher creates a watcher for root. A non-positive debounce uses DefaultWatchDebounce.
func NewTemplateWatcher(root string, debounce time.Duration, logger *zap.Logger) *TemplateWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateWatcher{
		root:     root,
		debounce: debounce,
		logger:   logger,
	}
}

// Watch blocks until ctx is done, calling onChange with the name of every template
// that was created, written, removed or renamed. Directories created while watching
// are watched too.
func (w *TemplateWatcher) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &LoaderError{Message: ErrMsgWatchFailed, Name: w.root, Cause: err}
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return &LoaderError{Message: ErrMsgWatchFailed, Name: w.root, Cause: err}
	}

	w.logger.Debug(LogMsgWatchStarted, zap.String(LogFieldPath, w.root))
	defer w.logger.Debug(LogMsgWatchStopped, zap.String(LogFieldPath, w.root))

	pending := make(map[string]struct{})
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

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(watcher, event.Name); err != nil {
						w.logger.Warn(LogMsgWatchError, zap.String(LogFieldPath, event.Name), zap.Error(err))
					}
					continue
				}
			}
			name, ok := templateNameFor(w.root, event.Name)
			if !ok {
				continue
			}
			w.logger.Debug(LogMsgWatchEvent,
				zap.String(LogFieldTemplate, name),
				zap.String(LogFieldOp, event.Op.String()))
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(LogMsgWatchError, zap.String(LogFieldPath, w.root), zap.Error(err))

		case <-fire:
			fire = nil
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			clear(pending)
			sort.Strings(names)
			for _, name := range names {
				onChange(name)
			}
		}
	}
}

func (w *TemplateWatcher) addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// Watch implements WatchableLoader.
func (l *FilesystemLoader) Watch(ctx context.Context, onChange func(name string)) error {
	return NewTemplateWatcher(l.root, DefaultWatchDebounce, l.logger).Watch(ctx, onChange)
}

// Watch error message constants
const (
	ErrMsgWatchFailed = "failed to watch templates"
)
