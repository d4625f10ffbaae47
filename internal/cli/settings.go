package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vaultsync/internal/settings"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show, export or import the sync settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write the current settings as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.store.Export()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(args[0], append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings exported to %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the settings with a JSON file; malformed input is rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			if err := a.store.Import(data); err != nil {
				return err
			}

			tasks := a.store.Snapshot().Tasks
			keep := make(map[string]bool, len(tasks))
			for _, t := range tasks {
				keep[t.ID] = true
			}
			if n, err := a.db.Prune(keep); err != nil {
				slog.Warn("清理运行历史失败", "err", err)
			} else if n > 0 {
				slog.Info("已清理不存在任务的运行历史", "count", n)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s)\n", len(tasks))
			return nil
		},
	})

	var (
		mode     string
		interval int
		daily    string
		enable   bool
		disable  bool
	)
	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Change the automatic sync schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}
			err := a.store.Update(func(s *settings.Settings) error {
				if enable {
					s.Schedule.Enabled = true
				}
				if disable {
					s.Schedule.Enabled = false
				}
				if cmd.Flags().Changed("mode") {
					switch settings.ScheduleMode(mode) {
					case settings.ScheduleInterval, settings.ScheduleDaily:
						s.Schedule.Mode = settings.ScheduleMode(mode)
					default:
						return fmt.Errorf("unknown schedule mode %q (interval|daily)", mode)
					}
				}
				if cmd.Flags().Changed("interval") {
					if interval < 1 {
						return fmt.Errorf("interval must be at least 1 minute")
					}
					s.Schedule.IntervalMinutes = interval
				}
				if cmd.Flags().Changed("daily") {
					hhmm, ok := settings.NormalizeDailyTime(daily)
					if !ok {
						return fmt.Errorf("daily time must be HH:MM, got %q", daily)
					}
					s.Schedule.DailyTime = hhmm
				}
				return nil
			})
			if err != nil {
				return err
			}

			sc := a.store.Snapshot().Schedule
			fmt.Fprintf(cmd.OutOrStdout(), "schedule enabled=%v mode=%s interval=%dm daily=%s\n",
				sc.Enabled, sc.Mode, sc.IntervalMinutes, sc.DailyTime)
			return nil
		},
	}
	schedule.Flags().StringVar(&mode, "mode", "", "interval or daily")
	schedule.Flags().IntVar(&interval, "interval", 0, "interval in minutes")
	schedule.Flags().StringVar(&daily, "daily", "", "daily fire time HH:MM")
	schedule.Flags().BoolVar(&enable, "enable", false, "turn the schedule on")
	schedule.Flags().BoolVar(&disable, "disable", false, "turn the schedule off")
	cmd.AddCommand(schedule)

	cmd.AddCommand(&cobra.Command{
		Use:   "compare <mtime|hash>",
		Short: "Choose how unchanged files are detected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compare := settings.CompareMode(args[0])
			return a.store.Update(func(s *settings.Settings) error {
				switch compare {
				case settings.CompareMTime, settings.CompareHash:
					s.CompareMode = compare
					return nil
				}
				return fmt.Errorf("unknown compare mode %q (mtime|hash)", compare)
			})
		},
	})

	return cmd
}
