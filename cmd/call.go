package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/cli"

	"github.com/spf13/cobra"
)

var (
	callArgs string
	callYolo bool
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call SERVER OPERATION",
		Short: "Invoke an operation on a server",
		Long: `Connects to SERVER, validates the arguments against the operation's
parameters and invokes it. The result is printed in the selected output
format. A remote error result exits non-zero.`,
		Example: `  lantern call fs read_file --args '{"path": "/etc/hosts"}'
  lantern call github list_issues --args '{"repo": "giantswarm/lantern"}' -o json`,
		Args: cobra.ExactArgs(2),
		RunE: runCall,
	}
	cmd.Flags().StringVar(&callArgs, "args", "", "Arguments as a JSON object")
	cmd.Flags().BoolVar(&callYolo, "yolo", false, "Allow destructive operations")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	arguments, err := parseArguments(callArgs)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd, callYolo)
	if err != nil {
		return err
	}
	defer closeApplication(cmd, application)

	if err := connectServer(cmd, application, args[0]); err != nil {
		return err
	}

	req := api.InvocationRequest{Server: args[0], Operation: args[1], Arguments: arguments}
	var result *api.InvocationResult
	invokeErr := cli.Progress(rootFlags.Quiet, "Invoking "+args[0]+"/"+args[1]+"...", "", func() error {
		var err error
		result, err = application.Invoker().InvokeRequest(commandContext(cmd), application.Resolver(), req)
		return err
	})

	if result != nil {
		if err := formatter.FormatResult(result); err != nil {
			return err
		}
	}
	return invokeErr
}

// parseArguments decodes the --args flag. An empty value means no arguments.
func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var arguments map[string]any
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, &cli.UsageError{Err: fmt.Errorf("--args must be a JSON object: %w", err)}
	}
	return arguments, nil
}
