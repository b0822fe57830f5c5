package stache

import (
	"context"
	"io"
	"slices"

	"go.uber.org/zap"

	"github.com/itsatony/go-stache/internal"
)

// Engine parses and renders templates. It owns the partial resolver and its cache,
// and is safe for concurrent use.
type Engine struct {
	config   *engineConfig
	loader   TemplateLoader
	closer   func() error
	partials *LoaderPartialResolver
	resolver PartialResolver
	renderer *internal.Renderer
	logger   *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if config.maxDepth < 0 {
		return nil, NewConfigError(ErrMsgInvalidMaxDepth, StringValueEmpty, nil)
	}

	loader := config.loader
	var closer func() error
	if loader == nil && config.baseDir != StringValueEmpty {
		fsLoader, err := NewFilesystemLoader(config.baseDir, logger)
		if err != nil {
			return nil, NewConfigError(ErrMsgInvalidConfig, config.baseDir, err)
		}
		loader = fsLoader
		closer = fsLoader.Close
	}
	if loader != nil && config.cache != nil {
		loader = NewCachedLoader(loader, *config.cache)
	}

	partials := NewLoaderPartialResolver(loader, config.extension, logger)
	var resolver PartialResolver = partials
	if config.resolver != nil {
		resolver = config.resolver
	}

	renderer := internal.NewRenderer(
		rendererPartials{resolver: resolver},
		internal.RendererConfig{MaxDepth: config.maxDepth},
		logger,
	)

	logger.Debug(LogMsgEngineCreated, zap.Int(LogFieldMaxDepth, config.maxDepth))

	return &Engine{
		config:   config,
		loader:   loader,
		closer:   closer,
		partials: partials,
		resolver: resolver,
		renderer: renderer,
		logger:   logger,
	}, nil
}

// MustNew creates a new Engine and panics on error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Parse parses an anonymous template. Its relative partial names resolve against the base directory.
func (e *Engine) Parse(source string) (*Template, error) {
	return e.ParseNamed(StringValueEmpty, source)
}

// ParseNamed parses a template whose ID is name. name is used in errors, for
// circular include detection and as the base of relative partial names.
func (e *Engine) ParseNamed(name, source string) (*Template, error) {
	tmpl, err := parseTemplate(name, source, e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Debug(LogMsgTemplateParsed, zap.String(LogFieldTemplate, name))
	return tmpl.bind(e), nil
}

// MustParse parses source and panics on error.
func (e *Engine) MustParse(source string) *Template {
	tmpl, err := e.Parse(source)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Execute parses and renders source in one step.
func (e *Engine) Execute(ctx context.Context, source string, data any) (string, error) {
	tmpl, err := e.Parse(source)
	if err != nil {
		return StringValueEmpty, err
	}
	return tmpl.Execute(ctx, data)
}

// Load resolves a named template through the partial resolver, so it shares the
// partial cache and canonical naming: "pages/home" loads "pages/home.html".
func (e *Engine) Load(ctx context.Context, name string) (*Template, error) {
	tmpl, err := e.resolver.ResolvePartial(ctx, name, StringValueEmpty)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, NewCollaboratorError(ErrMsgLoadFailed, StringValueEmpty, name, NewLoaderNotFoundError(name))
	}
	return tmpl.bind(e), nil
}

// Loader returns the loader partials are read from, or nil.
func (e *Engine) Loader() TemplateLoader {
	return e.loader
}

// RegisterPartial parses source and makes it available as {{>name}}.
// Registered partials take precedence over the loader. They are not consulted
// when a custom resolver was installed with WithPartialResolver.
func (e *Engine) RegisterPartial(name, source string) error {
	return e.partials.Register(name, source)
}

// MustRegisterPartial registers a partial and panics on error.
func (e *Engine) MustRegisterPartial(name, source string) {
	if err := e.RegisterPartial(name, source); err != nil {
		panic(err)
	}
}

// UnregisterPartial removes a registered partial. Returns true if it existed.
func (e *Engine) UnregisterPartial(name string) bool {
	return e.partials.Unregister(name)
}

// HasPartial checks if a partial is registered under name.
func (e *Engine) HasPartial(name string) bool {
	return e.partials.Has(name)
}

// ListPartials returns the canonical IDs of all registered partials in sorted order.
func (e *Engine) ListPartials() []string {
	return e.partials.List()
}

// InvalidatePartial drops the cached parse and source of a loaded partial.
func (e *Engine) InvalidatePartial(name string) {
	e.partials.Invalidate(name)
	if cached, ok := e.loader.(*CachedLoader); ok {
		cached.Invalidate(name)
		if id, err := e.partials.Canonicalize(name, StringValueEmpty); err == nil {
			cached.Invalidate(id)
		}
	}
}

// ClearPartialCache drops every cached partial parse and source.
func (e *Engine) ClearPartialCache() {
	e.partials.Clear()
	if cached, ok := e.loader.(*CachedLoader); ok {
		cached.InvalidateAll()
	}
}

// Watch invalidates cached partials whenever the loader reports a change.
// It blocks until ctx is done. The loader must implement WatchableLoader.
func (e *Engine) Watch(ctx context.Context) error {
	watchable, ok := e.loader.(WatchableLoader)
	if !ok {
		return NewCollaboratorError(ErrMsgWatchUnsupported, StringValueEmpty, StringValueEmpty, nil)
	}
	err := watchable.Watch(ctx, e.InvalidatePartial)
	if err != nil {
		return NewCollaboratorError(ErrMsgWatchFailed, StringValueEmpty, StringValueEmpty, err)
	}
	return nil
}

// Close releases the loader when the engine opened it.
func (e *Engine) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

// render writes t rendered against data to w.
func (e *Engine) render(ctx context.Context, t *Template, data any, w io.Writer) error {
	if err := e.renderer.Render(ctx, t.root, data, w, t.id); err != nil {
		return wrapRenderError(err)
	}
	return nil
}

// validate resolves every partial reachable from t. chain holds the IDs being validated, outermost first.
func (e *Engine) validate(ctx context.Context, t *Template, chain []string) error {
	var err error
	internal.Walk(t.root, func(n internal.Node) bool {
		if err != nil {
			return false
		}
		if p, ok := n.(*internal.PartialNode); ok {
			err = e.validatePartial(ctx, t, p, chain)
		}
		return true
	})
	return err
}

func (e *Engine) validatePartial(ctx context.Context, t *Template, p *internal.PartialNode, chain []string) error {
	failure := &internal.RenderError{
		Kind:     internal.RenderErrorCollaborator,
		Partial:  p.PartialName,
		Position: p.Pos(),
		Template: t.id,
	}

	if err := ctx.Err(); err != nil {
		failure.Message = internal.ErrMsgRenderCanceled
		failure.Cause = err
		return wrapRenderError(failure)
	}

	partial, err := e.resolver.ResolvePartial(ctx, p.PartialName, t.id)
	if err == nil && partial == nil {
		err = NewLoaderNotFoundError(p.PartialName)
	}
	if err != nil {
		failure.Message = internal.ErrMsgPartialFailed
		failure.Cause = err
		return wrapRenderError(failure)
	}

	failure.Kind = internal.RenderErrorResolution
	failure.Partial = partial.id
	if slices.Contains(chain, partial.id) {
		failure.Message = internal.ErrMsgCircularInclude
		return wrapRenderError(failure)
	}
	if e.config.maxDepth > 0 && len(chain) > e.config.maxDepth {
		failure.Message = internal.ErrMsgMaxDepthExceeded
		return wrapRenderError(failure)
	}

	return e.validate(ctx, partial, append(slices.Clone(chain), partial.id))
}
