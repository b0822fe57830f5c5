package stache

import (
	"bytes"
	"errors"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the file form of an engine configuration.
//
//	base_dir: ./templates
//	extension: .html
//	max_depth: 50
//	loader:
//	  driver: postgres
//	  dsn: postgres://localhost/app?sslmode=disable
//	cache:
//	  ttl: 5m
//	  max_entries: 500
//	  negative_ttl: 30s
//	watch: true
//	log_level: debug
type Config struct {
	// BaseDir is the filesystem root for templates. Ignored when Loader.Driver is set.
	BaseDir string `yaml:"base_dir"`

	// Extension is appended to partial names without one.
	// Default: ".html"
	Extension string `yaml:"extension"`

	// MaxDepth bounds partial nesting; 0 means unlimited.
	// Default: 100
	MaxDepth int `yaml:"max_depth"`

	// Loader selects a registered loader driver.
	Loader LoaderConfig `yaml:"loader"`

	// Cache enables loader caching when present.
	Cache *CacheConfig `yaml:"cache"`

	// Watch reloads changed templates while the process runs.
	Watch bool `yaml:"watch"`

	// LogLevel is a zap level name.
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// LoaderConfig selects a loader driver.
type LoaderConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Extension: DefaultTemplateExtension,
		MaxDepth:  DefaultMaxDepth,
		LogLevel:  DefaultLogLevel,
	}
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(ErrMsgReadConfig, path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, withMetadata(err, MetaKeyPath, path)
	}
	return cfg, nil
}

// ParseConfig parses YAML configuration. Unknown keys are rejected and missing
// keys keep their defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, NewConfigError(ErrMsgInvalidConfig, StringValueEmpty, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return NewConfigError(ErrMsgInvalidMaxDepth, StringValueEmpty, nil)
	}
	if c.Loader.Driver != StringValueEmpty && !slices.Contains(ListLoaderDrivers(), c.Loader.Driver) {
		return withMetadata(NewConfigError(ErrMsgLoaderDriverNotFound, StringValueEmpty, nil), MetaKeyDriver, c.Loader.Driver)
	}
	if c.Cache != nil && (c.Cache.TTL < 0 || c.Cache.NegativeCacheTTL < 0 || c.Cache.MaxEntries < 0) {
		return NewConfigError(ErrMsgInvalidCacheConfig, StringValueEmpty, nil)
	}
	if _, err := zapcore.ParseLevel(c.logLevel()); err != nil {
		return NewConfigError(ErrMsgInvalidLogLevel, StringValueEmpty, err)
	}
	return nil
}

func (c *Config) logLevel() string {
	if c.LogLevel == StringValueEmpty {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// Logger builds a production zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.logLevel())
	if err != nil {
		return nil, NewConfigError(ErrMsgInvalidLogLevel, StringValueEmpty, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Options converts the configuration into engine options. The returned cleanup
// closes any store opened for a loader driver.
func (c *Config) Options() ([]Option, func() error, error) {
	opts := []Option{
		WithMaxDepth(c.MaxDepth),
	}
	if c.Extension != StringValueEmpty {
		opts = append(opts, WithExtension(c.Extension))
	}
	if c.Cache != nil {
		opts = append(opts, WithCache(*c.Cache))
	}

	cleanup := func() error { return nil }
	switch {
	case c.Loader.Driver != StringValueEmpty:
		store, err := OpenLoader(c.Loader.Driver, c.Loader.DSN)
		if err != nil {
			return nil, nil, NewConfigError(ErrMsgInvalidConfig, c.Loader.DSN, err)
		}
		opts = append(opts, WithLoader(store))
		cleanup = store.Close
	case c.BaseDir != StringValueEmpty:
		opts = append(opts, WithBaseDir(c.BaseDir))
	}
	return opts, cleanup, nil
}

// NewFromConfig builds an engine from cfg. Extra options are applied last.
// Stores opened for cfg.Loader are closed by Engine.Close.
func NewFromConfig(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfgOpts, cleanup, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	engine, err := New(append(cfgOpts, opts...)...)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	if cfg.Loader.Driver != StringValueEmpty {
		engine.closer = cleanup
	}
	engine.logger.Debug(LogMsgConfigLoaded,
		zap.String(LogFieldDriver, cfg.Loader.Driver),
		zap.String(LogFieldPath, cfg.BaseDir))
	return engine, nil
}

// Configuration defaults
const (
	DefaultLogLevel   = "info"
	DefaultConfigFile = ".stache.yml"
)

// Configuration error messages
const (
	ErrMsgInvalidCacheConfig = "cache settings cannot be negative"
	ErrMsgInvalidLogLevel    = "invalid log level"
)
