package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed categories and methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup already migrates; this command exists to do only that
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", e.cfg.Database.Path)
			return nil
		},
	}
}
