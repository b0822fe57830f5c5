package stache

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// TemplateLoader fetches template source by canonical name (for example "layouts/base.html").
// Implementations must be safe for concurrent use and report missing templates with an
// error wrapping ErrTemplateNotFound.
type TemplateLoader interface {
	Load(ctx context.Context, name string) (string, error)
}

// TemplateStore is a TemplateLoader that can also be written to.
// Implementations must be safe for concurrent use.
type TemplateStore interface {
	TemplateLoader

	// Save creates or replaces the template stored under name.
	Save(ctx context.Context, name, source string) error

	// Delete removes a template.
	// Returns an error wrapping ErrTemplateNotFound if it doesn't exist.
	Delete(ctx context.Context, name string) error

	// List returns all template names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Exists checks if a template with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Close releases any resources held by the store.
	// After Close, the store should not be used.
	Close() error
}

// WatchableLoader reports changes to its templates.
// Watch blocks until ctx is done, calling onChange with the canonical name of every
// template that was written, removed or renamed.
type WatchableLoader interface {
	Watch(ctx context.Context, onChange func(name string)) error
}

// LoaderDriver is a factory for creating stores.
// Drivers register themselves during init().
type LoaderDriver interface {
	// Open creates a new store with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (TemplateStore, error)
}

// Loader driver registry
var (
	loaderDriversMu sync.RWMutex
	loaderDrivers   = make(map[string]LoaderDriver)
)

// RegisterLoaderDriver registers a loader driver by name.
// This is typically called from a driver's init() function.
// Panics if driver is nil or a driver with the same name is already registered.
func RegisterLoaderDriver(name string, driver LoaderDriver) {
	loaderDriversMu.Lock()
	defer loaderDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilLoaderDriver)
	}
	if _, exists := loaderDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	loaderDrivers[name] = driver
}

// OpenLoader opens a store using the named driver.
//
// Example:
//
//	store, err := stache.OpenLoader("memory", "")
//	store, err := stache.OpenLoader("filesystem", "/path/to/templates")
//	store, err := stache.OpenLoader("postgres", "postgres://localhost/app?sslmode=disable")
func OpenLoader(driverName, connectionString string) (TemplateStore, error) {
	loaderDriversMu.RLock()
	driver, ok := loaderDrivers[driverName]
	loaderDriversMu.RUnlock()

	if !ok {
		return nil, &LoaderError{Message: ErrMsgLoaderDriverNotFound, Name: driverName}
	}

	return driver.Open(connectionString)
}

// ListLoaderDrivers returns the names of all registered loader drivers in sorted order.
func ListLoaderDrivers() []string {
	loaderDriversMu.RLock()
	defer loaderDriversMu.RUnlock()

	names := make([]string, 0, len(loaderDrivers))
	for name := range loaderDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Loader error message constants
const (
	ErrMsgNilLoaderDriver         = "loader driver is nil"
	ErrMsgDriverAlreadyRegistered = "loader driver already registered"
	ErrMsgLoaderDriverNotFound    = "loader driver not found"
	ErrMsgLoaderClosed            = "loader is closed"
	ErrMsgTemplateNotFound        = "template not found"
	ErrMsgInvalidTemplateName     = "invalid template name"
	ErrMsgPathTraversalDetected   = "path traversal detected"
	ErrMsgInvalidLoaderRoot       = "invalid loader root directory"
	ErrMsgCreateLoaderDir         = "failed to create loader directory"
	ErrMsgReadTemplate            = "failed to read template"
	ErrMsgWriteTemplate           = "failed to write template"
	ErrMsgDeleteTemplate          = "failed to delete template"
	ErrMsgListTemplates           = "failed to list templates"
	ErrMsgReadOnlyLoader          = "loader is read-only"
)

// LoaderError represents a loader-related error.
type LoaderError struct {
	Message string
	Name    string
	Cause   error
}

// Error implements the error interface.
func (e *LoaderError) Error() string {
	result := e.Message
	if e.Name != StringValueEmpty {
		result += ": " + e.Name
	}
	if e.Cause != nil && e.Cause != ErrTemplateNotFound {
		result += ": " + e.Cause.Error()
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *LoaderError) Unwrap() error {
	return e.Cause
}

// NewLoaderNotFoundError creates an error for a template missing from a loader.
func NewLoaderNotFoundError(name string) error {
	return &LoaderError{
		Message: ErrMsgTemplateNotFound,
		Name:    name,
		Cause:   ErrTemplateNotFound,
	}
}

// NewLoaderClosedError creates an error for operations on a closed loader.
func NewLoaderClosedError() error {
	return &LoaderError{Message: ErrMsgLoaderClosed}
}

// validateTemplateName checks that name is a canonical, relative, slash-separated path.
func validateTemplateName(name string) error {
	if name == StringValueEmpty {
		return &LoaderError{Message: ErrMsgInvalidTemplateName}
	}
	if strings.Contains(name, "\\") || strings.ContainsRune(name, 0) {
		return &LoaderError{Message: ErrMsgInvalidTemplateName, Name: name}
	}
	if path.IsAbs(name) || path.Clean(name) != name {
		return &LoaderError{Message: ErrMsgInvalidTemplateName, Name: name}
	}
	if name == PathParent || strings.HasPrefix(name, PathParent+PathSeparator) {
		return &LoaderError{Message: ErrMsgPathTraversalDetected, Name: name}
	}
	return nil
}
