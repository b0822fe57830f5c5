package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itsatony/go-stache"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	name         string
	data         string
	dataFilePath string
	outputPath   string
}

func (c *cli) newRenderCmd() *cobra.Command {
	cfg := &renderConfig{}

	cmd := &cobra.Command{
		Use:     CmdNameRender + " [template]",
		Short:   HelpRenderShort,
		Example: HelpRenderExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && cfg.templatePath == "" {
				cfg.templatePath = args[0]
			}
			return c.runRender(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	flags.StringVarP(&cfg.name, FlagName, FlagNameShort, "", UsageName)
	flags.StringVarP(&cfg.data, FlagData, FlagDataShort, "", UsageData)
	flags.StringVarP(&cfg.dataFilePath, FlagDataFile, FlagDataFileShort, "", UsageDataFile)
	flags.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, UsageOutput)
	flags.Bool(FlagWatch, false, UsageWatch)
	_ = c.v.BindPFlag(ConfigKeyWatch, flags.Lookup(FlagWatch))

	cmd.MarkFlagsMutuallyExclusive(FlagTemplate, FlagName)
	cmd.MarkFlagsMutuallyExclusive(FlagData, FlagDataFile)
	return cmd
}

func (c *cli) runRender(cmd *cobra.Command, cfg *renderConfig) error {
	if cfg.templatePath == "" && cfg.name == "" {
		return fail(ExitCodeUsageError, ErrMsgMissingTemplate, errors.New(UsageTemplate))
	}

	data, err := readData(cfg.data, cfg.dataFilePath)
	if err != nil {
		return fail(ExitCodeInputError, ErrMsgInvalidData, err)
	}

	engine, config, logger, err := c.newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	if config.Watch && cfg.name == "" {
		return fail(ExitCodeUsageError, ErrMsgWatchNeedsName, errors.New(UsageWatch))
	}

	ctx := cmd.Context()
	tmpl, err := c.template(ctx, engine, config, cfg.templatePath, cfg.name)
	if err != nil {
		return err
	}
	if err := c.renderTo(ctx, tmpl, data, cfg.outputPath, logger); err != nil {
		return err
	}

	if !config.Watch {
		return nil
	}
	return c.watch(ctx, engine, cfg, data, logger)
}

// template parses a template file or loads a named template
func (c *cli) template(ctx context.Context, engine *stache.Engine, config *stache.Config, path, name string) (*stache.Template, error) {
	if name != "" {
		tmpl, err := engine.Load(ctx, name)
		if err != nil {
			code := ExitCodeInputError
			if stache.IsSyntaxError(err) || stache.IsStructuralError(err) {
				code = ExitCodeValidationError
			}
			return nil, fail(code, ErrMsgLoadTemplateFailed, err)
		}
		return tmpl, nil
	}

	source, err := readInput(path, c.stdin)
	if err != nil {
		return nil, fail(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	tmpl, err := engine.ParseNamed(templateID(path, config), string(source))
	if err != nil {
		return nil, fail(ExitCodeValidationError, ErrMsgParseTemplateFailed, err)
	}
	return tmpl, nil
}

func (c *cli) renderTo(ctx context.Context, tmpl *stache.Template, data any, outputPath string, logger *zap.Logger) error {
	result, err := tmpl.Execute(ctx, data)
	if err != nil {
		return fail(ExitCodeError, ErrMsgExecuteFailed, err)
	}
	if err := writeOutput(outputPath, []byte(result), c.stdout); err != nil {
		return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	logger.Debug(LogMsgRendered,
		zap.String(LogFieldTemplate, tmpl.ID()),
		zap.Int(LogFieldBytes, len(result)))
	return nil
}

// watch renders the named template again after every change until interrupted
func (c *cli) watch(ctx context.Context, engine *stache.Engine, cfg *renderConfig, data any, logger *zap.Logger) error {
	watchable, ok := engine.Loader().(stache.WatchableLoader)
	if !ok {
		return fail(ExitCodeUsageError, ErrMsgWatchFailed, errors.New(stache.ErrMsgWatchUnsupported))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := watchable.Watch(ctx, func(changed string) {
		engine.InvalidatePartial(changed)
		logger.Info(LogMsgRerendering, zap.String(LogFieldPath, changed))

		tmpl, err := engine.Load(ctx, cfg.name)
		if err == nil {
			err = c.renderTo(ctx, tmpl, data, cfg.outputPath, logger)
		}
		if err != nil {
			logger.Error(ErrMsgExecuteFailed, zap.Error(err))
		}
	})
	if err != nil {
		return fail(ExitCodeError, ErrMsgWatchFailed, err)
	}
	return nil
}
