// Package syncviewed provides the sync-viewed command.
package syncviewed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/i18n"
)

// NewCommand creates the sync-viewed command.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "sync-viewed",
		GroupID: "management",
		Short:   "Send viewed flags the service has not acknowledged",
		Long: `Observations marked viewed while the service was unreachable keep a
pending flag in the local mirror. sync-viewed sends them now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := appCtx.Client()
			if err != nil {
				return err
			}

			n, err := client.SyncViewed(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), client.Messages().Sprintf(i18n.ViewedFlagsSynced, n))
			return err
		},
	}
}
