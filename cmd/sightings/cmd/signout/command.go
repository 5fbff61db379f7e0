// Package signout provides the signout command.
package signout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/i18n"
)

// NewCommand creates the signout command.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "signout",
		GroupID: "management",
		Short:   "Clear the signed-in user from the local mirror",
		Long: `Signout forgets the resolved user and clears the signed-in flag kept in
the local mirror. Unset SIGHTINGS_API_TOKEN to stop authenticating requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := appCtx.Client()
			if err != nil {
				return err
			}
			if err := client.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.Messages().Sprintf(i18n.SessionCleared))
			return nil
		},
	}
}
