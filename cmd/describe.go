package cmd

import (
	"fmt"

	"github.com/giantswarm/lantern/internal/app"
	"github.com/giantswarm/lantern/internal/cli"

	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe SERVER OPERATION",
		Short: "Show the full schema of one operation",
		Args:  cobra.ExactArgs(2),
		RunE:  runDescribe,
	}
}

func runDescribe(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd, false)
	if err != nil {
		return err
	}
	defer closeApplication(cmd, application)

	if err := connectServer(cmd, application, args[0]); err != nil {
		return err
	}

	handle, err := application.Resolver().Resolve(args[0], args[1])
	if err != nil {
		return err
	}
	return formatter.FormatOperation(handle.Operation())
}

// connectServer connects only the named server, showing a spinner.
func connectServer(cmd *cobra.Command, application *app.Application, name string) error {
	s, err := application.Registry().Get(name)
	if err != nil {
		return err
	}
	return cli.Progress(rootFlags.Quiet,
		fmt.Sprintf("Connecting to %s...", name),
		fmt.Sprintf("Failed to connect to %s", name),
		func() error { return s.Connect(commandContext(cmd)) },
	)
}
