package stache

import (
	"context"
	"sort"
	"sync"
)

// MemoryLoader is an in-memory TemplateStore.
// It is primarily intended for testing and development.
// All data is lost when the process terminates.
type MemoryLoader struct {
	mu        sync.RWMutex
	templates map[string]string
	closed    bool
}

// MemoryLoaderDriver is the driver for creating MemoryLoader instances.
type MemoryLoaderDriver struct{}

func init() {
	RegisterLoaderDriver(LoaderDriverNameMemory, &MemoryLoaderDriver{})
}

// Open creates a new MemoryLoader instance.
// The connection string is ignored.
func (d *MemoryLoaderDriver) Open(connectionString string) (TemplateStore, error) {
	return NewMemoryLoader(nil), nil
}

// NewMemoryLoader creates a new in-memory loader seeded with templates (name to source).
func NewMemoryLoader(templates map[string]string) *MemoryLoader {
	l := &MemoryLoader{templates: make(map[string]string, len(templates))}
	for name, source := range templates {
		l.templates[name] = source
	}
	return l
}

// Load retrieves a template's source by name.
func (l *MemoryLoader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return StringValueEmpty, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return StringValueEmpty, NewLoaderClosedError()
	}

	source, ok := l.templates[name]
	if !ok {
		return StringValueEmpty, NewLoaderNotFoundError(name)
	}
	return source, nil
}

// Save stores a template, replacing any previous source.
func (l *MemoryLoader) Save(ctx context.Context, name, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTemplateName(name); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return NewLoaderClosedError()
	}
	l.templates[name] = source
	return nil
}

// Delete removes a template by name.
func (l *MemoryLoader) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return NewLoaderClosedError()
	}
	if _, ok := l.templates[name]; !ok {
		return NewLoaderNotFoundError(name)
	}
	delete(l.templates, name)
	return nil
}

// List returns all template names in sorted order.
func (l *MemoryLoader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, NewLoaderClosedError()
	}

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Exists checks if a template with the given name exists.
func (l *MemoryLoader) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return false, NewLoaderClosedError()
	}
	_, ok := l.templates[name]
	return ok, nil
}

// Close marks the loader as closed.
func (l *MemoryLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.templates = nil
	return nil
}
