package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/cli"
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/internal/formatting"
	"github.com/giantswarm/lantern/internal/manifest"

	"github.com/spf13/cobra"
)

var (
	serversConnect bool

	addTransport   string
	addCommand     string
	addArgs        []string
	addEnv         []string
	addURL         string
	addHeaders     []string
	addDescription string
	addTimeout     time.Duration
	addAllow       []string
	addBlock       []string
)

func newServersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "servers",
		Aliases: []string{"server"},
		Short:   "List and manage capability servers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured servers",
		Long: `Lists every configured server with its transport and whether a manifest
has been published. With --connect the servers are connected first and their
state and operation counts are shown.`,
		Args: cobra.NoArgs,
		RunE: runServersList,
	}
	list.Flags().BoolVar(&serversConnect, "connect", false, "Connect to every server before listing")

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add or replace a server definition",
		Example: `  lantern servers add fs --command npx --arg -y --arg @modelcontextprotocol/server-filesystem --arg /tmp
  lantern servers add github --transport streamable-http --url https://api.githubcopilot.com/mcp/ --header "Authorization=Bearer ${GITHUB_TOKEN}"`,
		Args: cobra.ExactArgs(1),
		RunE: runServersAdd,
	}
	add.Flags().StringVar(&addTransport, "transport", string(api.TransportStdio), "Transport (stdio, streamable-http, sse)")
	add.Flags().StringVar(&addCommand, "command", "", "Command to spawn (stdio)")
	add.Flags().StringArrayVar(&addArgs, "arg", nil, "Command argument, repeatable (stdio)")
	add.Flags().StringArrayVar(&addEnv, "env", nil, "Environment variable KEY=VALUE, repeatable (stdio)")
	add.Flags().StringVar(&addURL, "url", "", "Server URL (streamable-http, sse)")
	add.Flags().StringArrayVar(&addHeaders, "header", nil, "HTTP header KEY=VALUE, repeatable (streamable-http, sse)")
	add.Flags().StringVar(&addDescription, "description", "", "Human readable description")
	add.Flags().DurationVar(&addTimeout, "timeout", 0, "Per-step timeout (default from config.yaml)")
	add.Flags().StringSliceVar(&addAllow, "allow", nil, "Only expose these operations")
	add.Flags().StringSliceVar(&addBlock, "block", nil, "Hide these operations")

	remove := &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a server definition",
		Args:    cobra.ExactArgs(1),
		RunE:    runServersRemove,
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func runServersList(cmd *cobra.Command, _ []string) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd, false)
	if err != nil {
		return err
	}
	defer closeApplication(cmd, application)

	ctx := commandContext(cmd)
	if serversConnect {
		_ = cli.Progress(rootFlags.Quiet, "Connecting to servers...", "", func() error {
			application.Connect(ctx)
			return nil
		})
	}

	hasManifest, err := manifest.Published(ctx, application.Store(), application.Registry().ListServerNames())
	if err != nil {
		return err
	}

	var statuses []formatting.ServerStatus
	for _, s := range application.Registry().Sessions() {
		snap := s.Snapshot()
		server := s.Server()
		statuses = append(statuses, formatting.ServerStatus{
			Name:       server.Name,
			Transport:  string(server.Transport),
			State:      snap.State.String(),
			Operations: len(snap.Operations),
			Manifest:   hasManifest[server.Name],
			Error:      errorText(snap.Err),
		})
	}
	return formatter.FormatServers(statuses)
}

func runServersAdd(cmd *cobra.Command, args []string) error {
	env, err := parsePairs("--env", addEnv)
	if err != nil {
		return err
	}
	headers, err := parsePairs("--header", addHeaders)
	if err != nil {
		return err
	}

	server := api.CapabilityServer{
		Name:        args[0],
		Description: addDescription,
		Transport:   api.TransportKind(addTransport),
		Command:     addCommand,
		Args:        addArgs,
		Env:         env,
		URL:         addURL,
		Headers:     headers,
		Timeout:     addTimeout,
		Filter:      api.ToolFilter{Allow: addAllow, Block: addBlock},
	}

	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := config.NewStorageWithPath(configPath).SaveServer(server); err != nil {
		return &cli.UsageError{Err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server %s saved. Run 'lantern compile' to publish its manifest.\n", server.Name)
	return nil
}

func runServersRemove(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := config.NewStorageWithPath(configPath).DeleteServer(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server %s removed.\n", args[0])
	return nil
}

func resolveConfigPath() (string, error) {
	if rootFlags.ConfigPath != "" {
		return rootFlags.ConfigPath, nil
	}
	return config.GetDefaultConfigPath()
}

// parsePairs splits KEY=VALUE flag values into a map.
func parsePairs(flag string, values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, &cli.UsageError{Err: fmt.Errorf("%s expects KEY=VALUE, got %q", flag, v)}
		}
		out[key] = value
	}
	return out, nil
}
