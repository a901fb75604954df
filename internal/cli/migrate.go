package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		Long: `Create the users and user_data tables of the configured database.

Running it again is a no-op.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
	return cmd
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	env, err := opts.openDB()
	if err != nil {
		return err
	}
	defer env.Close()

	out.VerboseLog("Creating tables (%s)", env.DB.Dialect().Name())
	if err := env.DB.CreateTables(cmd.Context()); err != nil {
		_ = out.Error(ErrCodeQueryFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "migration failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"dialect": env.DB.Dialect().Name(), "migrated": true})
	}
	fmt.Fprintln(out.Writer, "✓ Tables created")
	return nil
}
