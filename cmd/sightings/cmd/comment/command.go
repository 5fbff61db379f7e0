// Package comment provides the comment command.
package comment

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/cmd/cmdutil"
	"github.com/agentstation/sightings/internal/i18n"
)

// NewCommand creates the comment command.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "comment <observation-uuid> <text>...",
		GroupID: "core",
		Short:   "Comment on an observation",
		Args:    cmdutil.ObservationArgs(2, 1),
		Example: `  sightings comment 9b2a6c1e-0000-4000-8000-000000000001 "Lovely find"`,
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

			d.SetCommentDraft(strings.Join(args[1:], " "))
			if err := d.SubmitComment(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), client.Messages().Sprintf(i18n.CommentAdded))
			return nil
		},
	}
}
