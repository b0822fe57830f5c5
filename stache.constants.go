package stache

import "time"

// Default configuration values
const (
	DefaultMaxDepth           = 100
	DefaultTemplateExtension  = ".html"
	DefaultCacheTTL           = 5 * time.Minute
	DefaultCacheMaxEntries    = 1000
	DefaultNegativeCacheTTL   = 30 * time.Second
	DefaultWatchDebounce      = 100 * time.Millisecond
	FilesystemDirPermissions  = 0o755
	FilesystemFilePermissions = 0o644
)

// Loader driver names
const (
	LoaderDriverNameMemory     = "memory"
	LoaderDriverNameFilesystem = "filesystem"
	LoaderDriverNamePostgres   = "postgres"
)

// PostgreSQL loader defaults
const (
	PostgresTablePrefix            = "stache_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
	PostgresDriverName             = "postgres"
)

// Error categories recorded under MetaKeyCategory
const (
	CategorySyntax       = "syntax"
	CategoryStructure    = "structure"
	CategoryResolution   = "resolution"
	CategoryCollaborator = "collaborator"
)

// Error code constants for categorization
const (
	ErrCodeSyntax       = "STACHE_SYNTAX"
	ErrCodeStructure    = "STACHE_STRUCTURE"
	ErrCodeResolution   = "STACHE_RESOLUTION"
	ErrCodeCollaborator = "STACHE_COLLABORATOR"
	ErrCodeConfig       = "STACHE_CONFIG"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyCategory = "category"
	MetaKeyLine     = "line"
	MetaKeyColumn   = "column"
	MetaKeyOffset   = "offset"
	MetaKeyName     = "name"
	MetaKeySegment  = "segment"
	MetaKeyExpected = "expected"
	MetaKeyActual   = "actual"
	MetaKeyPartial  = "partial"
	MetaKeyTemplate = "template"
	MetaKeyPath     = "path"
	MetaKeyDriver   = "driver"
)

// Log message constants
const (
	LogMsgEngineCreated      = "engine created"
	LogMsgTemplateParsed     = "template parsed"
	LogMsgPartialRegistered  = "partial registered"
	LogMsgPartialLoaded      = "partial loaded"
	LogMsgPartialCacheHit    = "partial cache hit"
	LogMsgPartialInvalidated = "partial invalidated"
	LogMsgPartialCacheClear  = "partial cache cleared"
	LogMsgWatchStarted       = "watching templates"
	LogMsgWatchStopped       = "template watch stopped"
	LogMsgWatchEvent         = "template changed"
	LogMsgWatchError         = "template watch error"
	LogMsgConfigLoaded       = "configuration loaded"
)

// Log field names
const (
	LogFieldTemplate = "template"
	LogFieldPartial  = "partial"
	LogFieldPath     = "path"
	LogFieldOp       = "op"
	LogFieldDriver   = "driver"
	LogFieldMaxDepth = "max_depth"
	LogFieldError    = "error"
)

// String constants
const (
	StringValueEmpty = ""
	PathSeparator    = "/"
	PathParent       = ".."
	PathCurrent      = "."
)
