// Package export provides the export command.
package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/cmd/cmdutil"
	"github.com/agentstation/sightings/internal/cmd/output"
	"github.com/agentstation/sightings/internal/i18n"
	"github.com/agentstation/sightings/pkg/constants"
	"github.com/agentstation/sightings/pkg/errors"
)

// NewCommand creates the export command.
func NewCommand(appCtx context.Context) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:     "export <observation-uuid>",
		GroupID: "core",
		Short:   "Export an observation as markdown, YAML or JSON",
		Long: `Export writes one observation to stdout or a file. Unlike show it does
not mark the observation viewed.`,
		Args: cmdutil.ObservationArgs(1, 1),
		Example: `  sightings export 9b2a6c1e-0000-4000-8000-000000000001 > oak.md
  sightings export <uuid> --format yaml --out oak.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid, _ := cmdutil.ObservationUUID(args[0])

			f, err := output.ParseFormat(format)
			if err != nil {
				return errors.WrapValidation("format", err)
			}
			if f == output.FormatTable || f == "" {
				return errors.NewValidationError("format", format, "export supports markdown, yaml and json")
			}

			client, err := appCtx.Client()
			if err != nil {
				return err
			}

			obs, err := client.Observation(cmd.Context(), uuid)
			if err != nil {
				return err
			}

			var formatter output.Formatter = output.NewFormatter(f)
			if f == output.FormatMarkdown {
				formatter = &output.MarkdownFormatter{UnknownTaxon: client.Messages().Sprintf(i18n.UnknownOrganism)}
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				if err := os.MkdirAll(filepath.Dir(out), constants.DirPermissions); err != nil {
					return errors.WrapResource("create", "directory", filepath.Dir(out), err)
				}
				file, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
				if err != nil {
					return errors.WrapResource("create", "file", out, err)
				}
				defer file.Close()
				w = file
			}

			appCtx.Logger().Debug().Str("observation_uuid", uuid).Str("format", string(f)).Msg("Exporting observation")
			return formatter.Format(w, obs)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(output.FormatMarkdown), "export format: markdown, yaml, json")
	cmd.Flags().StringVar(&out, "out", "", "write to this file instead of stdout")

	return cmd
}
