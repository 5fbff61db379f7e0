// Package identify provides the identify command.
package identify

import (
	stdctx "context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/sightings"
	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/cmd/cmdutil"
	"github.com/agentstation/sightings/internal/cmd/output"
	"github.com/agentstation/sightings/internal/i18n"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

// Result is the structured outcome for one observation.
type Result struct {
	ObservationUUID string           `json:"observation_uuid" yaml:"observation_uuid"`
	Identification  *reconcile.Entry `json:"identification,omitempty" yaml:"identification,omitempty"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewCommand creates the identify command.
func NewCommand(appCtx context.Context) *cobra.Command {
	var (
		taxonID int
		body    string
	)

	cmd := &cobra.Command{
		Use:     "identify <observation-uuid>... --taxon <id>",
		GroupID: "core",
		Short:   "Add an identification to one or more observations",
		Long: `Identify proposes a taxon for the given observations.

Each identification is shown as pending until the service confirms it.
If the service rejects it the pending entry is rolled back and the reason
is printed.`,
		Args: cmdutil.ObservationArgs(1, -1),
		Example: `  sightings identify 9b2a6c1e-0000-4000-8000-000000000001 --taxon 47851
  sightings identify <uuid> <uuid> --taxon 47851 --body "lobed leaves"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if taxonID <= 0 {
				return errors.NewValidationError("taxon", taxonID, "a positive taxon ID is required")
			}

			client, err := appCtx.Client()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ws := sightings.NewWorkspace()
			details := make(map[string]*sightings.Detail, len(args))
			defer func() {
				for _, d := range details {
					d.Close()
				}
			}()

			for _, arg := range args {
				uuid, _ := cmdutil.ObservationUUID(arg)
				if _, ok := details[uuid]; ok {
					continue
				}
				d, err := client.Open(ctx, uuid)
				if err != nil {
					return err
				}
				details[uuid] = d
				d.AddToWorkspace(ws)
			}

			draft := reconcile.Draft{Taxon: &observations.Taxon{ID: taxonID}, Body: body}
			results, failed := identifyAll(ctx, ws, details, draft, appCtx.Logger())

			format := output.DetectFormat(appCtx.OutputFormat())
			if format == output.FormatTable {
				msgs := client.Messages()
				for _, r := range results {
					if r.Error != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.ObservationUUID, r.Error)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.ObservationUUID, msgs.Sprintf(i18n.IdentificationAdded))
				}
			} else if err := output.NewFormatter(format).Format(cmd.OutOrStdout(), results); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d identifications failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&taxonID, "taxon", "t", 0, "taxon ID to propose")
	cmd.Flags().StringVarP(&body, "body", "b", "", "optional remark")
	_ = cmd.MarkFlagRequired("taxon")

	return cmd
}

// identifyAll submits draft to every observation in the workspace and
// waits for each outcome.
func identifyAll(ctx stdctx.Context, ws *sightings.Workspace, details map[string]*sightings.Detail, draft reconcile.Draft, logger *zerolog.Logger) ([]Result, int) {
	obs := ws.Observations()
	logger.Debug().Int("observations", ws.Len()).Msg("Submitting identification")

	subs := make([]*reconcile.Submission, len(obs))
	for i, o := range obs {
		subs[i] = details[o.UUID].AddIdentification(ctx, draft)
		logger.Debug().
			Str("observation_uuid", o.UUID).
			Str("identification_uuid", subs[i].UUID()).
			Msg("Identification pending")
	}

	results := make([]Result, len(obs))
	failed := 0
	for i, o := range obs {
		r := Result{ObservationUUID: o.UUID}
		if err := subs[i].Wait(ctx); err != nil {
			r.Error = err.Error()
			failed++
		}
		if e, ok := findEntry(details[o.UUID], subs[i].StoredUUID()); ok {
			r.Identification = &e
		}
		results[i] = r
	}
	return results, failed
}

// findEntry returns the visible entry for uuid. Rolled-back entries are gone.
func findEntry(d *sightings.Detail, uuid string) (reconcile.Entry, bool) {
	if uuid == "" {
		return reconcile.Entry{}, false
	}
	for _, e := range d.Identifications() {
		if e.UUID() == uuid {
			return e, true
		}
	}
	return reconcile.Entry{}, false
}
