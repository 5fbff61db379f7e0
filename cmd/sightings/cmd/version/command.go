// Package version provides the version command.
package version

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
)

// NewCommand creates the version command. --verbose adds build details.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("sightings %s\n", appCtx.Version())
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				cmd.Printf("  commit:   %s\n", appCtx.Commit())
				cmd.Printf("  built:    %s\n", appCtx.Date())
				cmd.Printf("  built by: %s\n", appCtx.BuiltBy())
			}
		},
	}
}
