// Package show provides the show command.
package show

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings"
	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/cmd/cmdutil"
	"github.com/agentstation/sightings/internal/cmd/output"
	"github.com/agentstation/sightings/internal/cmd/table"
	"github.com/agentstation/sightings/internal/i18n"
	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

// View is the structured form of the show output.
type View struct {
	Observation     *observations.Observation `json:"observation" yaml:"observation"`
	Identifications []reconcile.Entry         `json:"identifications" yaml:"identifications"`
	Faved           bool                      `json:"faved" yaml:"faved"`
}

// NewCommand creates the show command.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "show <observation-uuid>",
		GroupID: "core",
		Short:   "Show an observation and mark it viewed",
		Long: `Show opens an observation, prints it with its identifications and comments,
and marks its updates as viewed both remotely and in the local mirror.

When the service cannot be reached the locally mirrored copy is shown.`,
		Args: cmdutil.ObservationArgs(1, 1),
		Example: `  sightings show 9b2a6c1e-0000-4000-8000-000000000001
  sightings show 9b2a6c1e-0000-4000-8000-000000000001 -o yaml`,
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

			obs := d.Observation()
			unknown := client.Messages().Sprintf(i18n.UnknownOrganism)
			w := cmd.OutOrStdout()

			switch format := output.DetectFormat(appCtx.OutputFormat()); format {
			case output.FormatTable:
				return writeTables(w, d, obs, unknown)
			case output.FormatMarkdown:
				f := &output.MarkdownFormatter{UnknownTaxon: unknown}
				return f.Format(w, obs)
			default:
				view := View{Observation: obs, Identifications: d.Identifications(), Faved: d.Faved()}
				return output.NewFormatter(format).Format(w, view)
			}
		},
	}
}

func writeTables(w io.Writer, d *sightings.Detail, obs *observations.Observation, unknown string) error {
	now := time.Now()
	f := output.NewFormatter(output.FormatTable)

	if err := f.Format(w, table.ObservationToTableData(obs, unknown, now)); err != nil {
		return err
	}
	if entries := d.Identifications(); len(entries) > 0 {
		if err := f.Format(w, table.IdentificationsToTableData(entries, now)); err != nil {
			return err
		}
	}
	if comments := d.Comments(); len(comments) > 0 {
		return f.Format(w, table.CommentsToTableData(comments, now))
	}
	return nil
}
