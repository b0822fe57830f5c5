package stache

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	maxDepth  int
	logger    *zap.Logger
	loader    TemplateLoader
	baseDir   string
	extension string
	resolver  PartialResolver
	cache     *CacheConfig
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		maxDepth:  DefaultMaxDepth,
		extension: DefaultTemplateExtension,
	}
}

// WithMaxDepth sets the maximum partial nesting depth.
// Use 0 for unlimited depth.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithLoader sets the loader used for named templates and partials.
// Takes precedence over WithBaseDir.
func WithLoader(loader TemplateLoader) Option {
	return func(c *engineConfig) {
		c.loader = loader
	}
}

// WithBaseDir loads templates and partials from a filesystem directory.
func WithBaseDir(dir string) Option {
	return func(c *engineConfig) {
		c.baseDir = dir
	}
}

// WithExtension sets the extension appended to partial names that have none.
// Default: ".html"
func WithExtension(ext string) Option {
	return func(c *engineConfig) {
		c.extension = ext
	}
}

// WithPartialResolver replaces the default loader-backed partial resolver.
func WithPartialResolver(resolver PartialResolver) Option {
	return func(c *engineConfig) {
		c.resolver = resolver
	}
}

// WithCache wraps the configured loader in a CachedLoader.
func WithCache(config CacheConfig) Option {
	return func(c *engineConfig) {
		c.cache = &config
	}
}
