package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vaultsync/internal/scheduler"
	"vaultsync/internal/settings"
)

func newReloader(t *testing.T, ctx context.Context) (*scheduleReloader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	store := settings.NewStore(path)
	err := store.Update(func(s *settings.Settings) error {
		s.Tasks = append(s.Tasks, settings.NewTask("Docs", "/ext/docs", "Docs"))
		s.Schedule.Enabled = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	sched := scheduler.New(ctx, func(context.Context) {}, nil)
	t.Cleanup(sched.Stop)

	current := store.Snapshot()
	sched.Apply(current.Schedule)
	return &scheduleReloader{ctx: ctx, store: store, sched: sched, last: current.Schedule}, path
}

func TestScheduleReloader(t *testing.T) {
	t.Run("Bad File Keeps Schedule", func(t *testing.T) {
		r, path := newReloader(t, context.Background())

		if err := os.WriteFile(path, []byte(`{"tasks":[{"id":"a"`), 0644); err != nil {
			t.Fatal(err)
		}
		r.onChange()

		if got := r.sched.State(); got != scheduler.IntervalArmed {
			t.Errorf("expected schedule to stay armed, got %s", got)
		}
		if len(r.store.Snapshot().Tasks) != 1 {
			t.Errorf("expected tasks kept, got %+v", r.store.Snapshot().Tasks)
		}
	})

	t.Run("Schedule Change Is Applied", func(t *testing.T) {
		r, path := newReloader(t, context.Background())

		body := `{"scheduleEnabled":true,"scheduleMode":"daily","dailyTime":"04:30"}`
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		r.onChange()

		if got := r.sched.State(); got != scheduler.DailyArmed {
			t.Errorf("expected daily schedule, got %s", got)
		}
	})

	t.Run("No Apply After Stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r, path := newReloader(t, ctx)

		cancel()
		r.stop()

		body := `{"scheduleEnabled":true,"scheduleMode":"daily","dailyTime":"04:30"}`
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		r.onChange()

		if got := r.sched.State(); got != scheduler.Idle {
			t.Errorf("expected scheduler to stay idle after shutdown, got %s", got)
		}
	})
}
