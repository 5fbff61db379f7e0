// Package fave provides the fave command.
package fave

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/cmd/cmdutil"
	"github.com/agentstation/sightings/internal/i18n"
)

// NewCommand creates the fave command.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "fave <observation-uuid>",
		GroupID: "core",
		Short:   "Toggle whether you faved an observation",
		Long: `Fave adds the observation to your favorites, or removes it if it is
already there. Requires a signed-in API token.`,
		Args: cmdutil.ObservationArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid, _ := cmdutil.ObservationUUID(args[0])

			client, err := appCtx.Client()
			if err != nil {
				return err
			}

			d, err := client.Open(cmd.Context(), uuid)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.ToggleFave(cmd.Context()); err != nil {
				return err
			}

			key := i18n.RemovedFromFavorites
			if d.Faved() {
				key = i18n.AddedToFavorites
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.Messages().Sprintf(key))
			return nil
		},
	}
}
