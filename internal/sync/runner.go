package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vaultsync/internal/database"
	"vaultsync/internal/settings"
)

// Recorder 保存每个任务最近一次的运行结果
type Recorder interface {
	Put(rec *database.RunRecord) error
}

// Runner 按顺序执行一组任务并汇总结果
type Runner struct {
	engine   *Engine
	recorder Recorder
	now      func() time.Time
}

// NewRunner recorder 可以为 nil，此时不记录历史
func NewRunner(engine *Engine, recorder Recorder) *Runner {
	if engine == nil {
		engine = NewEngine(nil)
	}
	return &Runner{engine: engine, recorder: recorder, now: time.Now}
}

// RunAll 只执行启用的任务，一个任务失败不影响后续任务
func (r *Runner) RunAll(ctx context.Context, snap settings.Settings, root string) Report {
	var report Report

	enabled := make([]settings.SyncTask, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	if len(enabled) == 0 {
		slog.Info("没有启用的同步任务")
		return report
	}

	opts := OptionsFrom(snap)
	for _, t := range enabled {
		outcome := r.run(ctx, t, root, opts)
		report.Ran++
		if outcome.OK {
			report.SuccessCount++
			continue
		}
		report.FailureCount++
		report.Failures = append(report.Failures, fmt.Sprintf("%s: %s", displayName(t), outcome.Reason))
	}

	slog.Info("批量同步结束",
		"ran", report.Ran,
		"success", report.SuccessCount,
		"failed", report.FailureCount,
	)
	return report
}

// RunOne 显式执行单个任务，不检查启用状态
func (r *Runner) RunOne(ctx context.Context, task settings.SyncTask, snap settings.Settings, root string) Outcome {
	return r.run(ctx, task, root, OptionsFrom(snap))
}

func (r *Runner) run(ctx context.Context, task settings.SyncTask, root string, opts Options) Outcome {
	started := r.now()
	outcome := r.engine.Sync(ctx, task, root, opts)
	r.record(task, outcome, started, r.now())
	return outcome
}

// record 写入运行历史，失败只记日志，不影响任务结果
func (r *Runner) record(task settings.SyncTask, o Outcome, started, finished time.Time) {
	if r.recorder == nil {
		return
	}

	rec := &database.RunRecord{
		TaskID:     task.ID,
		TaskName:   displayName(task),
		StartedAt:  started.UnixNano(),
		FinishedAt: finished.UnixNano(),
		OK:         o.OK,
		Reason:     o.Reason,
		Copied:     o.Stats.Copied,
		Unchanged:  o.Stats.Unchanged,
		Excluded:   o.Stats.Excluded,
		Bytes:      o.Stats.Bytes,
	}
	if err := r.recorder.Put(rec); err != nil {
		slog.Warn("写入运行历史失败", "task", rec.TaskName, "err", err)
	}
}
