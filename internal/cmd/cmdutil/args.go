// Package cmdutil provides argument and flag helpers shared by sightings commands.
package cmdutil

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/pkg/errors"
)

// ObservationUUID validates an observation UUID argument.
func ObservationUUID(arg string) (string, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return "", errors.NewValidationError("uuid", arg, "not an observation UUID")
	}
	return id.String(), nil
}

// ObservationArgs requires at least n arguments and that the first m of
// them are observation UUIDs. m < 0 checks every argument.
func ObservationArgs(n, m int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return err
		}
		check := args
		if m >= 0 && m < len(args) {
			check = args[:m]
		}
		for _, a := range check {
			if _, err := ObservationUUID(a); err != nil {
				return err
			}
		}
		return nil
	}
}
