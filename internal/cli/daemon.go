package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"vaultsync/internal/scheduler"
	"vaultsync/internal/settings"
)

func newDaemonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled synchronization until interrupted",
		Long: `Keep running and synchronize according to the schedule in the settings file.

The settings file is watched; schedule changes take effect immediately.
SIGINT or SIGTERM stops the schedule and waits for a running sync to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.daemon(ctx)
		},
	}
}

// daemon 主循环：调度器 + 设置文件监听，直到 ctx 取消
func (a *app) daemon(ctx context.Context) error {
	var wg sync.WaitGroup
	var isSyncing atomic.Bool

	// 同一时间只允许一轮同步，引擎本身不做互斥
	runSync := func(runCtx context.Context) {
		if !isSyncing.CompareAndSwap(false, true) {
			slog.Info("上一轮同步尚未结束，跳过本次触发")
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer isSyncing.Store(false)

			slog.Info(">>> 开始同步")
			report := a.runner.RunAll(runCtx, a.store.Snapshot(), a.cfg.Vault.Root)
			for _, f := range report.Failures {
				slog.Warn("任务失败", "detail", f)
			}
			slog.Info("<<< 同步结束", "summary", report.Summary())
		}()
	}

	sched := scheduler.New(ctx, runSync, nil)
	defer sched.Stop()

	current := a.store.Snapshot()
	sched.Apply(current.Schedule)

	if current.AutoRunOnStart {
		runSync(ctx)
	}

	reloader := &scheduleReloader{ctx: ctx, store: a.store, sched: sched, last: current.Schedule}

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := settings.Watch(ctx, a.store.Path(), reloader.onChange); err != nil {
			slog.Warn("无法监听设置文件，修改设置后需要重启", "err", err)
		}
	}()

	slog.Info("vaultsync 守护进程已启动", "vault", a.cfg.Vault.Root, "schedule", sched.State().String())
	<-ctx.Done()

	slog.Info("接收到退出信号，准备优雅退出...")
	reloader.stop()
	<-watchDone
	wg.Wait()
	slog.Info("所有任务已完成，程序退出")
	return nil
}

// scheduleReloader 设置文件变化时重新加载，只有定时配置变了才重新布置定时器
type scheduleReloader struct {
	ctx   context.Context
	store *settings.Store
	sched *scheduler.Scheduler

	mu   sync.Mutex
	last settings.Schedule
}

func (r *scheduleReloader) onChange() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 退出流程已经开始，不能再布置新的定时器
	if r.ctx.Err() != nil {
		return
	}

	reloaded, err := r.store.Reload()
	if err != nil {
		slog.Warn("设置文件无效，保留当前设置", "err", err)
		return
	}
	if reloaded.Schedule == r.last {
		slog.Debug("设置已重新加载，定时配置未变化")
		return
	}
	r.last = reloaded.Schedule
	r.sched.Apply(reloaded.Schedule)
}

// stop 与 onChange 互斥，之后不会再有 Apply
func (r *scheduleReloader) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sched.Stop()
}
