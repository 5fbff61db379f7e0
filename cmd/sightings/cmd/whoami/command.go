// Package whoami provides the whoami command.
package whoami

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/auth"
	"github.com/agentstation/sightings/internal/cmd/output"
	"github.com/agentstation/sightings/internal/cmd/table"
	"github.com/agentstation/sightings/internal/i18n"
	"github.com/agentstation/sightings/pkg/observations"
)

// Identity is the structured form of the whoami output.
type Identity struct {
	Token string             `json:"token" yaml:"token"`
	User  *observations.User `json:"user" yaml:"user"`
}

// NewCommand creates the whoami command.
func NewCommand(appCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		GroupID: "management",
		Short:   "Show the signed-in user",
		Long: `Whoami inspects the configured API token and resolves the user it
belongs to, from the local mirror first and the service otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := appCtx.Token()
			if err != nil {
				return err
			}
			status := auth.CheckToken(token, time.Now())

			client, err := appCtx.Client()
			if err != nil {
				return err
			}

			var user *observations.User
			summary := status.Summary
			switch status.State {
			case auth.StateConfigured:
				user, err = client.CurrentUser(cmd.Context())
				if err != nil {
					return err
				}
			case auth.StateMissing:
				summary = client.Messages().Sprintf(i18n.SignedOut)
			}

			format := output.DetectFormat(appCtx.OutputFormat())
			return output.Write(cmd.OutOrStdout(), format,
				table.UserToTableData(user, summary),
				Identity{Token: status.State.String(), User: user},
			)
		},
	}
}
