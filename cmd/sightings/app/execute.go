package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightings/cmd/sightings/cmd/comment"
	"github.com/agentstation/sightings/cmd/sightings/cmd/export"
	"github.com/agentstation/sightings/cmd/sightings/cmd/fave"
	"github.com/agentstation/sightings/cmd/sightings/cmd/identify"
	"github.com/agentstation/sightings/cmd/sightings/cmd/show"
	"github.com/agentstation/sightings/cmd/sightings/cmd/signout"
	"github.com/agentstation/sightings/cmd/sightings/cmd/syncviewed"
	"github.com/agentstation/sightings/cmd/sightings/cmd/version"
	"github.com/agentstation/sightings/cmd/sightings/cmd/whoami"
)

// Execute runs the sightings CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sightings",
		Short:   "Species observation client",
		Version: a.version,
		Long: `Sightings views, identifies, comments on and faves species observations
held by a remote biodiversity service.

Observations are mirrored into a local database, so ones you have opened
before stay readable when the service cannot be reached.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.sightings.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", "", "output format: table, json, yaml, markdown")
	flags.StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&a.config.APIURL, "api-url", a.config.APIURL, "observation API root")
	flags.StringVar(&a.config.DBPath, "db", a.config.DBPath, "local mirror database path")
	flags.StringVar(&a.config.Locale, "locale", a.config.Locale, "language of user-facing messages (en, es, fr)")

	rootCmd.SetVersionTemplate("sightings {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(show.NewCommand(a))
	rootCmd.AddCommand(identify.NewCommand(a))
	rootCmd.AddCommand(comment.NewCommand(a))
	rootCmd.AddCommand(fave.NewCommand(a))
	rootCmd.AddCommand(export.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(syncviewed.NewCommand(a))
	rootCmd.AddCommand(whoami.NewCommand(a))
	rootCmd.AddCommand(signout.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
