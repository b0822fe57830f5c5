package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
)

// Flag names - long form
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagBaseDir   = "base-dir"
	FlagExtension = "extension"
	FlagMaxDepth  = "max-depth"
	FlagDriver    = "driver"
	FlagDSN       = "dsn"
	FlagTemplate  = "template"
	FlagName      = "name"
	FlagData      = "data"
	FlagDataFile  = "data-file"
	FlagOutput    = "output"
	FlagWatch     = "watch"
	FlagFormat    = "format"
)

// Flag names - short form
const (
	FlagLogLevelShort = "l"
	FlagTemplateShort = "t"
	FlagNameShort     = "n"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Configuration keys, matching the keys of .stache.yml
const (
	ConfigKeyBaseDir   = "base_dir"
	ConfigKeyExtension = "extension"
	ConfigKeyMaxDepth  = "max_depth"
	ConfigKeyDriver    = "loader.driver"
	ConfigKeyDSN       = "loader.dsn"
	ConfigKeyWatch     = "watch"
	ConfigKeyLogLevel  = "log_level"
)

// Environment
const (
	EnvPrefix     = "STACHE"
	EnvConfigFile = "STACHE_CONFIG"
	ConfigName    = ".stache"
	ConfigType    = "yaml"
	ConfigPath    = "."
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages
const (
	ErrMsgMissingTemplate     = "template file or name required"
	ErrMsgTemplateAndName     = "--template and --name are mutually exclusive"
	ErrMsgDataAndDataFile     = "--data and --data-file are mutually exclusive"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgInvalidData         = "invalid data"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgParseTemplateFailed = "template parsing failed"
	ErrMsgExecuteFailed       = "template execution failed"
	ErrMsgLoadTemplateFailed  = "template loading failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgConfigFailed        = "configuration failed"
	ErrMsgEngineFailed        = "failed to create engine"
	ErrMsgWatchNeedsName      = "--watch requires --name"
	ErrMsgWatchFailed         = "watch failed"
	ErrMsgLoggerFailed        = "failed to create logger"
)

// Log messages
const (
	LogMsgConfigFile  = "using config file"
	LogMsgRendered    = "template rendered"
	LogMsgRerendering = "template changed, rendering again"
)

// Log fields
const (
	LogFieldPath     = "path"
	LogFieldTemplate = "template"
	LogFieldBytes    = "bytes"
)

// Help text
const (
	HelpRootShort = "Logic-less template renderer"
	HelpRootLong  = `stache renders Mustache-style templates against YAML or JSON data.

Configuration is read from .stache.yml in the working directory (or the file
named by --config or STACHE_CONFIG). Flags override STACHE_* environment
variables, which override the file.`
	HelpRenderShort   = "Render a template with data"
	HelpRenderExample = `  stache render -t page.html -d 'name: Alice'
  stache render -t page.html -f data.yml -o page.out.html
  cat page.html | stache render -t - -d '{"name": "Bob"}'
  stache render --base-dir templates -n pages/home -f data.yml --watch`
	HelpValidateShort   = "Parse a template and resolve all of its partials"
	HelpValidateExample = `  stache validate -t page.html
  stache validate --base-dir templates -n pages/home -F json`
	HelpVersionShort = "Show version information"
)

// Flag usage text
const (
	UsageConfig    = "config file (default .stache.yml, or STACHE_CONFIG)"
	UsageLogLevel  = "log level (debug, info, warn, error)"
	UsageBaseDir   = "directory templates and partials are loaded from"
	UsageExtension = "extension appended to partial names without one"
	UsageMaxDepth  = "maximum partial nesting depth (0 = unlimited)"
	UsageDriver    = "loader driver (memory, filesystem, postgres)"
	UsageDSN       = "loader driver connection string"
	UsageTemplate  = `template file (use "-" for stdin)`
	UsageName      = "template name to load from the configured loader"
	UsageData      = "inline YAML or JSON data"
	UsageDataFile  = "YAML or JSON data file"
	UsageOutput    = "output file (default: stdout)"
	UsageWatch     = "render again whenever a template changes"
	UsageFormat    = "output format: text, json"
)

// Version output
const (
	VersionTextTemplate = "go-stache version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output
const (
	ValidationTextSuccess = "Template is valid"
	ValidationTextFailure = "Template is invalid: %v"
)

// CLI metadata
const (
	CLIName = "stache"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithCause = "%s: %v\n"
	FmtNewline        = "\n"
)
