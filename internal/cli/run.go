package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	syncer "vaultsync/internal/sync"
)

// errRunFailed 有任务失败时让进程以非零状态退出，详情已经打印过
var errRunFailed = errors.New("one or more sync tasks failed")

func newRunCmd(a *app) *cobra.Command {
	var taskRef string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Synchronize all enabled tasks, or one task with --task",
		Long: `Run synchronization once.

Without flags every enabled task runs in order. With --task the given task
(matched by id, then by name) runs even if it is disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			snap := a.store.Snapshot()
			root := a.cfg.Vault.Root

			if taskRef != "" {
				task, ok := snap.FindTask(taskRef)
				if !ok {
					return fmt.Errorf("task not found: %s", taskRef)
				}
				outcome := a.runner.RunOne(cmd.Context(), task, snap, root)
				if !outcome.OK {
					fmt.Fprintf(out, "%s: %s\n", task.Name, outcome.Reason)
					return errRunFailed
				}
				fmt.Fprintf(out, "%s: %d copied, %d unchanged, %d excluded\n",
					task.Name, outcome.Stats.Copied, outcome.Stats.Unchanged, outcome.Stats.Excluded)
				return nil
			}

			report := a.runner.RunAll(cmd.Context(), snap, root)
			printReport(out, report)
			if report.FailureCount > 0 {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskRef, "task", "t", "", "run a single task by id or name")
	return cmd
}

func printReport(w io.Writer, report syncer.Report) {
	fmt.Fprintln(w, report.Summary())
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every task's paths without copying anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			snap := a.store.Snapshot()
			if len(snap.Tasks) == 0 {
				fmt.Fprintln(out, "No tasks configured.")
				return nil
			}

			invalid := 0
			for _, t := range snap.Tasks {
				v := syncer.Validate(t, a.cfg.Vault.Root)
				state := "enabled"
				if !t.Enabled {
					state = "disabled"
				}
				if v.OK {
					fmt.Fprintf(out, "ok    %s (%s): %s -> %s\n", t.Name, state, v.Source, v.Target)
					continue
				}
				invalid++
				fmt.Fprintf(out, "error %s (%s): %s\n", t.Name, state, v.Reason)
			}
			if invalid > 0 {
				return fmt.Errorf("%d task(s) failed validation", invalid)
			}
			return nil
		},
	}
}
