package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/giantswarm/lantern/internal/app"
	"github.com/giantswarm/lantern/internal/cli"
	"github.com/giantswarm/lantern/internal/formatting"

	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags shared by every subcommand.
var rootFlags cli.CommandFlags

// rootCmd represents the base command for the lantern application.
var rootCmd = &cobra.Command{
	Use:   "lantern",
	Short: "Progressive disclosure for MCP capability servers",
	Long: `lantern connects to a fleet of MCP capability servers and compiles
their operations into compact per-server manifests. An agent reads a manifest
only when it needs a server, then invokes operations through lantern's small
set of meta-tools instead of loading every tool schema up front.

Configuration lives in ~/.config/lantern (override with --config-path):
  config.yaml   runtime settings
  servers/      one YAML file per capability server`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "lantern version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

// newApplication bootstraps the runtime from the persistent flags.
func newApplication(cmd *cobra.Command, yolo bool) (*app.Application, error) {
	cfg, err := rootFlags.AppConfig(yolo)
	if err != nil {
		return nil, err
	}
	return app.NewApplication(commandContext(cmd), cfg)
}

// newFormatter builds the output formatter writing to the command's stdout.
func newFormatter(cmd *cobra.Command) (formatting.Formatter, error) {
	opts, err := rootFlags.FormatterOptions()
	if err != nil {
		return nil, err
	}
	opts.Writer = cmd.OutOrStdout()
	return formatting.New(opts), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// closeApplication releases the runtime, logging rather than masking the
// command's own error.
func closeApplication(cmd *cobra.Command, a *app.Application) {
	if err := a.Close(context.WithoutCancel(commandContext(cmd))); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: shutdown: %v\n", err)
	}
}

func init() {
	cli.RegisterCommonFlags(rootCmd, &rootFlags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newServersCmd())
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newDescribeCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMockServerCmd())
}
