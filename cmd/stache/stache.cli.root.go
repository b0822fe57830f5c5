package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsatony/go-stache"
)

// cli holds the state shared by all subcommands of one invocation
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper
}

// newRootCmd builds the command tree. Each call gets its own viper instance so
// invocations do not share configuration.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, v: viper.New()}

	root := &cobra.Command{
		Use:           CLIName,
		Short:         HelpRootShort,
		Long:          HelpRootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String(FlagConfig, "", UsageConfig)
	flags.StringP(FlagLogLevel, FlagLogLevelShort, stache.DefaultLogLevel, UsageLogLevel)
	flags.String(FlagBaseDir, "", UsageBaseDir)
	flags.String(FlagExtension, stache.DefaultTemplateExtension, UsageExtension)
	flags.Int(FlagMaxDepth, stache.DefaultMaxDepth, UsageMaxDepth)
	flags.String(FlagDriver, "", UsageDriver)
	flags.String(FlagDSN, "", UsageDSN)
	c.bindFlags(flags)

	root.AddCommand(
		c.newRenderCmd(),
		c.newValidateCmd(),
		c.newVersionCmd(),
	)
	return root
}

func (c *cli) bindFlags(flags *pflag.FlagSet) {
	bindings := map[string]string{
		ConfigKeyLogLevel:  FlagLogLevel,
		ConfigKeyBaseDir:   FlagBaseDir,
		ConfigKeyExtension: FlagExtension,
		ConfigKeyMaxDepth:  FlagMaxDepth,
		ConfigKeyDriver:    FlagDriver,
		ConfigKeyDSN:       FlagDSN,
	}
	for key, name := range bindings {
		// Lookup cannot fail for flags declared above
		_ = c.v.BindPFlag(key, flags.Lookup(name))
	}

	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()
}

// loadConfig layers flags over STACHE_* environment variables over the config file.
func (c *cli) loadConfig(cmd *cobra.Command) (*stache.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		c.v.SetConfigFile(path)
	} else {
		c.v.SetConfigName(ConfigName)
		c.v.SetConfigType(ConfigType)
		c.v.AddConfigPath(ConfigPath)
	}

	cfg := stache.DefaultConfig()
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		// The file is decoded strictly by the library; viper only locates it
		fileCfg, err := stache.LoadConfig(c.v.ConfigFileUsed())
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if c.v.IsSet(ConfigKeyBaseDir) {
		cfg.BaseDir = c.v.GetString(ConfigKeyBaseDir)
	}
	if c.v.IsSet(ConfigKeyExtension) {
		cfg.Extension = c.v.GetString(ConfigKeyExtension)
	}
	if c.v.IsSet(ConfigKeyMaxDepth) {
		cfg.MaxDepth = c.v.GetInt(ConfigKeyMaxDepth)
	}
	if c.v.IsSet(ConfigKeyDriver) {
		cfg.Loader.Driver = c.v.GetString(ConfigKeyDriver)
	}
	if c.v.IsSet(ConfigKeyDSN) {
		cfg.Loader.DSN = c.v.GetString(ConfigKeyDSN)
	}
	if c.v.IsSet(ConfigKeyWatch) {
		cfg.Watch = c.v.GetBool(ConfigKeyWatch)
	}
	if c.v.IsSet(ConfigKeyLogLevel) {
		cfg.LogLevel = c.v.GetString(ConfigKeyLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine loads the layered configuration and builds an engine logging to stderr.
func (c *cli) newEngine(cmd *cobra.Command) (*stache.Engine, *stache.Config, *zap.Logger, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, fail(ExitCodeUsageError, ErrMsgConfigFailed, err)
	}

	logger, err := c.logger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fail(ExitCodeUsageError, ErrMsgLoggerFailed, err)
	}
	if used := c.v.ConfigFileUsed(); used != "" {
		logger.Debug(LogMsgConfigFile, zap.String(LogFieldPath, used))
	}

	engine, err := stache.NewFromConfig(cfg, stache.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, fail(ExitCodeError, ErrMsgEngineFailed, err)
	}
	return engine, cfg, logger, nil
}

// logger builds a JSON logger writing to the command's stderr
func (c *cli) logger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(c.stderr),
		lvl,
	)
	return zap.New(core), nil
}
