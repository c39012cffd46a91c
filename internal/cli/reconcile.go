package cli

import (
	"fmt"
	"text/tabwriter"

	"fintrack/internal/ledger"
	"fintrack/internal/money"

	"github.com/spf13/cobra"
)

func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare cached balances with the ledger",
		Long: "Recomputes every user's balance from their ledger entries and reports users whose " +
			"cached balance differs. With --fix the cached balance is rewritten to the ledger sum.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			drifts, err := ledger.NewService(e.db, e.logger).Reconcile(cmd.Context(), fix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drifts) == 0 {
				fmt.Fprintln(out, "all balances match the ledger")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tCACHED\tLEDGER\tDIFF")
			for _, d := range drifts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.UserID,
					money.Format(d.CachedCent), money.Format(d.LedgerCent), money.Format(d.LedgerCent-d.CachedCent))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if fix {
				fmt.Fprintf(out, "fixed %d balance(s)\n", len(drifts))
				return nil
			}
			return fmt.Errorf("%d balance(s) drifted; rerun with --fix to repair", len(drifts))
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "rewrite drifted balances")
	return cmd
}
