package cli

import (
	"github.com/giantswarm/lantern/internal/app"
	"github.com/giantswarm/lantern/internal/formatting"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/spf13/cobra"
)

// CommandFlags holds the flag values shared by every lantern command.
type CommandFlags struct {
	// ConfigPath is the configuration directory. Empty means ~/.config/lantern.
	ConfigPath string
	// Debug enables debug logging.
	Debug bool
	// Quiet suppresses progress indicators and informational logs.
	Quiet bool
	// LogFormat is "text" or "json".
	LogFormat string
	// OutputFormat is "text", "json" or "yaml".
	OutputFormat string
	// NoColor disables colored table output.
	NoColor bool
}

// RegisterCommonFlags registers the shared flags as persistent flags of cmd.
//
// The registered flags are:
//   - --config-path: Configuration directory
//   - --debug: Enable debug logging
//   - --quiet/-q: Suppress progress output
//   - --log-format: Log line format (text, json)
//   - --output/-o: Output format (text, json, yaml)
//   - --no-color: Disable colored output
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", "", "Configuration directory (default ~/.config/lantern)")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress progress output")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", string(logging.FormatText), "Log format (text, json)")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(formatting.FormatText), "Output format (text, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
}

// AppConfig converts the flags into an application configuration.
func (f *CommandFlags) AppConfig(yolo bool) (*app.Config, error) {
	format, err := logging.ParseFormat(f.LogFormat)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	cfg := app.NewConfig(f.Debug, yolo, f.ConfigPath)
	cfg.Quiet = f.Quiet
	cfg.LogFormat = format
	return cfg, nil
}

// FormatterOptions converts the flags into formatter options.
func (f *CommandFlags) FormatterOptions() (formatting.Options, error) {
	format, err := formatting.ParseFormat(f.OutputFormat)
	if err != nil {
		return formatting.Options{}, &UsageError{Err: err}
	}
	return formatting.Options{
		Format: format,
		Quiet:  f.Quiet,
		Color:  !f.NoColor,
	}, nil
}
