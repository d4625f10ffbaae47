package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the last recorded outcome of each task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.db.ListAll()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tFINISHED\tRESULT\tCOPIED\tUNCHANGED\tEXCLUDED\tDURATION")
			for _, r := range records {
				result := "ok"
				if !r.OK {
					result = r.Reason
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.TaskName,
					r.FinishedTime().Format(time.DateTime),
					result,
					r.Copied,
					r.Unchanged,
					r.Excluded,
					r.Duration().Round(time.Millisecond),
				)
			}
			return w.Flush()
		},
	}
}
