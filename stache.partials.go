package stache

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-stache/internal"
)

// PartialResolver maps a partial name, as written in {{>name}}, to a parsed template.
// from is the ID of the including template; relative names are resolved against it.
// Implementations must map the same name and from to the same template ID every time.
type PartialResolver interface {
	ResolvePartial(ctx context.Context, name, from string) (*Template, error)
}

// LoaderPartialResolver resolves partials through a TemplateLoader and caches the
// parsed result per canonical ID. Registered partials take precedence over the loader.
//
// Canonical IDs are slash-separated paths relative to the loader's base:
//
//	from "pages/home.html", {{>header}}         -> "pages/header.html"
//	from "pages/home.html", {{>../shared/nav}}  -> "shared/nav.html"
//	from "pages/home.html", {{>/layouts/base}}  -> "layouts/base.html"
//
// Names that climb above the base are rejected.
type LoaderPartialResolver struct {
	loader    TemplateLoader
	extension string
	logger    *zap.Logger

	mu         sync.RWMutex
	registered map[string]*Template
	cache      map[string]*Template
}

// NewLoaderPartialResolver creates a resolver. loader may be nil, in which case only
// registered partials resolve. extension is appended to names without one.
func NewLoaderPartialResolver(loader TemplateLoader, extension string, logger *zap.Logger) *LoaderPartialResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoaderPartialResolver{
		loader:     loader,
		extension:  extension,
		logger:     logger,
		registered: make(map[string]*Template),
		cache:      make(map[string]*Template),
	}
}

// Canonicalize maps a partial name written in the template identified by from to its canonical ID.
func (r *LoaderPartialResolver) Canonicalize(name, from string) (string, error) {
	if strings.TrimSpace(name) == StringValueEmpty {
		return StringValueEmpty, NewCollaboratorError(ErrMsgEmptyPartialName, from, name, nil)
	}

	var joined string
	if strings.HasPrefix(name, PathSeparator) {
		joined = path.Clean(strings.TrimLeft(name, PathSeparator))
	} else {
		joined = path.Join(path.Dir(from), name)
	}

	if joined == PathCurrent || joined == PathParent || strings.HasPrefix(joined, PathParent+PathSeparator) {
		return StringValueEmpty, NewCollaboratorError(ErrMsgPartialEscapesBase, from, name, nil)
	}
	if path.Ext(joined) == StringValueEmpty && r.extension != StringValueEmpty {
		joined += r.extension
	}
	return joined, nil
}

// ResolvePartial implements PartialResolver.
func (r *LoaderPartialResolver) ResolvePartial(ctx context.Context, name, from string) (*Template, error) {
	id, err := r.Canonicalize(name, from)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	tmpl, ok := r.registered[id]
	if !ok {
		tmpl, ok = r.cache[id]
	}
	r.mu.RUnlock()
	if ok {
		r.logger.Debug(LogMsgPartialCacheHit, zap.String(LogFieldPartial, id))
		return tmpl, nil
	}

	if r.loader == nil {
		return nil, NewCollaboratorError(ErrMsgLoadFailed, from, id, NewLoaderNotFoundError(id))
	}
	source, err := r.loader.Load(ctx, id)
	if err != nil {
		return nil, NewCollaboratorError(ErrMsgLoadFailed, from, id, err)
	}

	tmpl, err = parseTemplate(id, source, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.cache[id]; ok {
		tmpl = cached
	} else {
		r.cache[id] = tmpl
	}
	r.mu.Unlock()

	r.logger.Debug(LogMsgPartialLoaded, zap.String(LogFieldPartial, id), zap.String(LogFieldTemplate, from))
	return tmpl, nil
}

// Register parses source and registers it under the canonical form of name.
func (r *LoaderPartialResolver) Register(name, source string) error {
	id, err := r.Canonicalize(name, StringValueEmpty)
	if err != nil {
		return err
	}
	tmpl, err := parseTemplate(id, source, r.logger)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.registered[id] = tmpl
	r.mu.Unlock()

	r.logger.Debug(LogMsgPartialRegistered, zap.String(LogFieldPartial, id))
	return nil
}

// Unregister removes a registered partial. It reports whether one was removed.
func (r *LoaderPartialResolver) Unregister(name string) bool {
	id, err := r.Canonicalize(name, StringValueEmpty)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registered[id]; !ok {
		return false
	}
	delete(r.registered, id)
	return true
}

// Has reports whether a partial is registered under name.
func (r *LoaderPartialResolver) Has(name string) bool {
	id, err := r.Canonicalize(name, StringValueEmpty)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registered[id]
	return ok
}

// List returns the canonical IDs of all registered partials in sorted order.
func (r *LoaderPartialResolver) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.registered))
	for id := range r.registered {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Invalidate drops the cached parse of a loaded partial. name may be a canonical ID
// or a name relative to the base.
func (r *LoaderPartialResolver) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cache, name)
	if id, err := r.Canonicalize(name, StringValueEmpty); err == nil {
		delete(r.cache, id)
	}
	r.logger.Debug(LogMsgPartialInvalidated, zap.String(LogFieldPartial, name))
}

// Clear drops every cached parse. Registered partials are kept.
func (r *LoaderPartialResolver) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]*Template)
	r.mu.Unlock()

	r.logger.Debug(LogMsgPartialCacheClear)
}

// CacheSize returns the number of cached loaded partials.
func (r *LoaderPartialResolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// rendererPartials adapts a PartialResolver to the renderer.
type rendererPartials struct {
	resolver PartialResolver
}

func (p rendererPartials) ResolvePartial(ctx context.Context, name, from string) (*internal.Partial, error) {
	tmpl, err := p.resolver.ResolvePartial(ctx, name, from)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, NewCollaboratorError(ErrMsgLoadFailed, from, name, NewLoaderNotFoundError(name))
	}
	return &internal.Partial{ID: tmpl.id, Root: tmpl.root}, nil
}
