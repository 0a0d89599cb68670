package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"poster/pkg/persistence"
	"poster/pkg/state"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := persistence.InitializeDatabase(filepath.Join(stateDir, persistence.DBFileName))
			if err != nil {
				return err
			}
			ops := persistence.NewDatabaseOperations(db)
			defer func() { _ = ops.Close() }()

			runs, err := ops.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tOUTCOME\tSLOT\tSOURCE\tTRIES\tPOST")
			for _, r := range runs {
				post := r.Error
				if r.Post != nil {
					post = state.Preview(r.Post.Text, 30)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04"), r.Outcome, r.Slot, r.Source, r.Attempts, post)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
