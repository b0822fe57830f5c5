package stache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FilesystemLoader stores templates as plain files under a root directory.
// Template names are slash-separated paths relative to the root:
//
//	<root>/
//	  page.html            # "page.html"
//	  layouts/
//	    base.html          # "layouts/base.html"
//
// Names that would resolve outside the root are rejected.
type FilesystemLoader struct {
	mu     sync.RWMutex
	root   string
	logger *zap.Logger
	closed bool
}

// FilesystemLoaderDriver is the driver for creating FilesystemLoader instances.
type FilesystemLoaderDriver struct{}

func init() {
	RegisterLoaderDriver(LoaderDriverNameFilesystem, &FilesystemLoaderDriver{})
}

// Open creates a new FilesystemLoader instance.
// The connection string is the root directory path.
func (d *FilesystemLoaderDriver) Open(connectionString string) (TemplateStore, error) {
	return NewFilesystemLoader(connectionString, nil)
}

// NewFilesystemLoader creates a new filesystem-based loader.
// The root directory will be created if it doesn't exist.
func NewFilesystemLoader(root string, logger *zap.Logger) (*FilesystemLoader, error) {
	if root == StringValueEmpty {
		return nil, &LoaderError{Message: ErrMsgInvalidLoaderRoot}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &LoaderError{
			Message: ErrMsgCreateLoaderDir,
			Name:    root,
			Cause:   err,
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &LoaderError{Message: ErrMsgInvalidLoaderRoot, Name: root, Cause: err}
	}

	return &FilesystemLoader{
		root:   abs,
		logger: logger,
	}, nil
}

// Root returns the absolute root directory.
func (l *FilesystemLoader) Root() string {
	return l.root
}

// Load reads a template file.
func (l *FilesystemLoader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return StringValueEmpty, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return StringValueEmpty, NewLoaderClosedError()
	}

	path, err := l.pathFor(name)
	if err != nil {
		return StringValueEmpty, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StringValueEmpty, NewLoaderNotFoundError(name)
		}
		return StringValueEmpty, &LoaderError{Message: ErrMsgReadTemplate, Name: name, Cause: err}
	}
	return string(data), nil
}

// Save writes a template file, creating parent directories as needed.
func (l *FilesystemLoader) Save(ctx context.Context, name, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return NewLoaderClosedError()
	}

	path, err := l.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions); err != nil {
		return &LoaderError{Message: ErrMsgCreateLoaderDir, Name: name, Cause: err}
	}
	if err := os.WriteFile(path, []byte(source), FilesystemFilePermissions); err != nil {
		return &LoaderError{Message: ErrMsgWriteTemplate, Name: name, Cause: err}
	}
	return nil
}

// Delete removes a template file.
func (l *FilesystemLoader) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return NewLoaderClosedError()
	}

	path, err := l.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewLoaderNotFoundError(name)
		}
		return &LoaderError{Message: ErrMsgDeleteTemplate, Name: name, Cause: err}
	}
	return nil
}

// List returns the names of all regular files under the root in sorted order.
func (l *FilesystemLoader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, NewLoaderClosedError()
	}

	var names []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name, ok := l.nameFor(path)
		if ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, &LoaderError{Message: ErrMsgListTemplates, Name: l.root, Cause: err}
	}

	sort.Strings(names)
	return names, nil
}

// Exists checks if a template file exists.
func (l *FilesystemLoader) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return false, NewLoaderClosedError()
	}

	path, err := l.pathFor(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &LoaderError{Message: ErrMsgReadTemplate, Name: name, Cause: err}
	}
	return info.Mode().IsRegular(), nil
}

// Close marks the loader as closed.
func (l *FilesystemLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	return nil
}

// pathFor maps a template name to a file path inside the root.
func (l *FilesystemLoader) pathFor(name string) (string, error) {
	if err := validateTemplateName(name); err != nil {
		return StringValueEmpty, err
	}
	path := filepath.Join(l.root, filepath.FromSlash(name))
	if _, ok := l.nameFor(path); !ok {
		return StringValueEmpty, &LoaderError{Message: ErrMsgPathTraversalDetected, Name: name}
	}
	return path, nil
}

// nameFor maps a file path back to a template name. It reports false for paths outside the root.
func (l *FilesystemLoader) nameFor(path string) (string, bool) {
	return templateNameFor(l.root, path)
}

func templateNameFor(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == PathCurrent || rel == PathParent || strings.HasPrefix(rel, PathParent+string(filepath.Separator)) {
		return StringValueEmpty, false
	}
	return filepath.ToSlash(rel), true
}
