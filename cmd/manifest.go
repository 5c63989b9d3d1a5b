package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest [SERVER]",
		Short: "Print a published manifest",
		Long: `Prints the manifest last published for SERVER by 'lantern compile' or
'lantern serve'. Without SERVER, lists the servers that have a manifest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runManifest,
	}
}

func runManifest(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, false)
	if err != nil {
		return err
	}
	defer closeApplication(cmd, application)

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		names, err := application.Store().List(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No manifests published. Run 'lantern compile' first.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	body, err := application.Store().Read(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(out, body)
	return nil
}
