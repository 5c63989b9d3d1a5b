package cmd

import (
	"github.com/giantswarm/lantern/internal/app"
	"github.com/giantswarm/lantern/internal/cli"
	"github.com/giantswarm/lantern/internal/formatting"
	"github.com/giantswarm/lantern/internal/manifest"

	"github.com/spf13/cobra"
)

var compileYolo bool

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Connect to every server and write its manifest",
		Long: `Connects to every configured server concurrently, lists its operations
and writes one manifest per Ready server. Manifests of servers that failed
are withdrawn so agents never read stale content.

The command exits non-zero when any server failed; the manifests of the
other servers are still written.`,
		Args: cobra.NoArgs,
		RunE: runCompile,
	}
	cmd.Flags().BoolVar(&compileYolo, "yolo", false, "Include destructive operations in manifests")
	return cmd
}

func runCompile(cmd *cobra.Command, _ []string) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd, compileYolo)
	if err != nil {
		return err
	}
	defer closeApplication(cmd, application)

	ctx := commandContext(cmd)
	var results []manifest.PublishResult
	_ = cli.Progress(rootFlags.Quiet, "Compiling manifests...", "", func() error {
		application.Connect(ctx)
		results = application.Publish(ctx)
		return nil
	})

	if err := formatter.FormatServers(publishStatuses(application, results)); err != nil {
		return err
	}

	var failed []string
	for _, r := range results {
		if !r.Published {
			failed = append(failed, r.Server)
		}
	}
	if len(failed) > 0 {
		return &cli.PartialFailureError{Failed: failed, Total: len(results)}
	}
	return nil
}

// publishStatuses turns publish results into listing rows.
func publishStatuses(application *app.Application, results []manifest.PublishResult) []formatting.ServerStatus {
	statuses := make([]formatting.ServerStatus, 0, len(results))
	for _, r := range results {
		status := formatting.ServerStatus{
			Name:       r.Server,
			State:      r.State.String(),
			Operations: r.Operations,
			Manifest:   r.Published,
			Error:      errorText(r.Err),
		}
		if server, ok := application.LanternConfig().Server(r.Server); ok {
			status.Transport = string(server.Transport)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
