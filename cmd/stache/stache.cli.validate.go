package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/itsatony/go-stache"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	name         string
	format       string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid    bool   `json:"valid"`
	Template string `json:"template,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func (c *cli) newValidateCmd() *cobra.Command {
	cfg := &validateConfig{}

	cmd := &cobra.Command{
		Use:     CmdNameValidate + " [template]",
		Short:   HelpValidateShort,
		Example: HelpValidateExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && cfg.templatePath == "" {
				cfg.templatePath = args[0]
			}
			return c.runValidate(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	flags.StringVarP(&cfg.name, FlagName, FlagNameShort, "", UsageName)
	flags.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	cmd.MarkFlagsMutuallyExclusive(FlagTemplate, FlagName)
	return cmd
}

func (c *cli) runValidate(cmd *cobra.Command, cfg *validateConfig) error {
	if cfg.templatePath == "" && cfg.name == "" {
		return fail(ExitCodeUsageError, ErrMsgMissingTemplate, errors.New(UsageTemplate))
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return fail(ExitCodeUsageError, ErrMsgInvalidFormat, errors.New(cfg.format))
	}

	engine, config, _, err := c.newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := cmd.Context()
	tmpl, err := c.template(ctx, engine, config, cfg.templatePath, cfg.name)
	if err == nil {
		err = tmpl.Validate(ctx)
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) && exitErr.code != ExitCodeValidationError {
		// Unreadable input is not a validation result
		return err
	}
	if exitErr != nil {
		err = exitErr.err
	}

	if cfg.format == OutputFormatJSON {
		outputValidationJSON(err, cfg, c.stdout)
	} else {
		outputValidationText(err, c.stdout)
	}
	if err != nil {
		return fail(ExitCodeValidationError, ErrMsgParseTemplateFailed, err)
	}
	return nil
}

func outputValidationText(err error, stdout io.Writer) {
	if err == nil {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return
	}
	fmt.Fprintf(stdout, ValidationTextFailure+FmtNewline, err)
}

func outputValidationJSON(err error, cfg *validateConfig, stdout io.Writer) {
	output := validationOutput{
		Valid:    err == nil,
		Template: cfg.templatePath,
	}
	if cfg.name != "" {
		output.Template = cfg.name
	}
	if err != nil {
		output.Category = stache.ErrorCategory(err)
		output.Message = err.Error()
		if pos, ok := stache.ErrorPosition(err); ok {
			output.Line = pos.Line
			output.Column = pos.Column
		}
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))
}
