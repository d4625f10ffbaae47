package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vaultsync/internal/settings"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage sync tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.store.Snapshot()
			if len(snap.Tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks configured.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENABLED\tSOURCE\tTARGET")
			for _, t := range snap.Tasks {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n", t.ID, t.Name, t.Enabled, t.SourcePath, t.TargetPath)
			}
			return w.Flush()
		},
	})

	var disabled bool
	add := &cobra.Command{
		Use:   "add <name> <source> <target>",
		Short: "Add a task; target is relative to the vault root",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := settings.NewTask(args[0], args[1], args[2])
			task.Enabled = !disabled

			err := a.store.Update(func(s *settings.Settings) error {
				s.Tasks = append(s.Tasks, task)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s)\n", task.Name, task.ID)
			return nil
		},
	}
	add.Flags().BoolVar(&disabled, "disabled", false, "add the task without enabling it")
	cmd.AddCommand(add)

	cmd.AddCommand(
		setEnabledCmd(a, "enable", true),
		setEnabledCmd(a, "disable", false),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id|name>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed settings.SyncTask
			err := a.store.Update(func(s *settings.Settings) error {
				idx := taskIndex(*s, args[0])
				if idx < 0 {
					return fmt.Errorf("task not found: %s", args[0])
				}
				removed = s.Tasks[idx]
				s.Tasks = append(s.Tasks[:idx], s.Tasks[idx+1:]...)
				return nil
			})
			if err != nil {
				return err
			}
			if err := a.db.Delete(removed.ID); err != nil {
				return fmt.Errorf("delete history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", removed.Name)
			return nil
		},
	})

	return cmd
}

func setEnabledCmd(a *app, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id|name>",
		Short: verb + " a task for bulk and scheduled runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.Update(func(s *settings.Settings) error {
				idx := taskIndex(*s, args[0])
				if idx < 0 {
					return fmt.Errorf("task not found: %s", args[0])
				}
				s.Tasks[idx].Enabled = enabled
				return nil
			})
		},
	}
}

// taskIndex 与 Settings.FindTask 相同的匹配规则，返回下标
func taskIndex(s settings.Settings, ref string) int {
	t, ok := s.FindTask(ref)
	if !ok {
		return -1
	}
	for i := range s.Tasks {
		if s.Tasks[i].ID == t.ID {
			return i
		}
	}
	return -1
}
