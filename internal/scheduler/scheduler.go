package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"vaultsync/internal/settings"
)

// State 调度器状态
type State int

const (
	Idle State = iota
	IntervalArmed
	DailyArmed
)

func (s State) String() string {
	switch s {
	case IntervalArmed:
		return "interval"
	case DailyArmed:
		return "daily"
	default:
		return "idle"
	}
}

const day = 24 * time.Hour

// Timer 由 AfterFunc 返回，只需要能停止
type Timer interface {
	Stop() bool
}

// Options 初始化选项，测试时可以替换时钟和定时器
type Options struct {
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer
}

// Scheduler 定时触发同步，任何时刻最多只有一个活动的定时器
type Scheduler struct {
	mu    sync.Mutex
	ctx   context.Context
	run   func(ctx context.Context)
	now   func() time.Time
	after func(d time.Duration, f func()) Timer

	state  State
	timer  Timer
	gen    uint64        // 每次拆除定时器都会递增，过期的回调据此作废
	period time.Duration // 触发后重新布置的周期
	next   time.Time
}

// New 创建一个处于 Idle 状态的调度器，run 在每次触发时被调用
func New(ctx context.Context, run func(ctx context.Context), opts *Options) *Scheduler {
	if opts == nil {
		opts = &Options{}
	}
	s := &Scheduler{
		ctx:   ctx,
		run:   run,
		now:   opts.Now,
		after: opts.AfterFunc,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.after == nil {
		s.after = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	return s
}

// Apply 根据最新配置重新布置定时器
// 总是先拆除已有的定时器，再按配置决定是否重新布置
func (s *Scheduler) Apply(cfg settings.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardownLocked()

	if !cfg.Enabled {
		slog.Info("定时同步已关闭")
		return
	}

	now := s.now()
	switch cfg.Mode {
	case settings.ScheduleDaily:
		next := NextDaily(now, cfg.DailyTime)
		s.state = DailyArmed
		s.period = day
		s.armLocked(next.Sub(now))
		slog.Info("定时同步: 每日模式", "time", cfg.DailyTime, "next", s.next.Format(time.DateTime))

	default:
		interval := time.Duration(max(1, cfg.IntervalMinutes)) * time.Minute
		s.state = IntervalArmed
		s.period = interval
		s.armLocked(interval)
		slog.Info("定时同步: 间隔模式", "interval", interval, "next", s.next.Format(time.DateTime))
	}
}

// Stop 无条件拆除定时器，可重复调用
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

// State 当前状态
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextFire 下一次触发时间，Idle 时为零值
func (s *Scheduler) NextFire() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) teardownLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = Idle
	s.period = 0
	s.next = time.Time{}
}

func (s *Scheduler) armLocked(d time.Duration) {
	gen := s.gen
	s.next = s.now().Add(d)
	s.timer = s.after(d, func() { s.fire(gen) })
}

// fire 定时器回调：先布置下一次，再执行同步
// 每日模式在第一次准点触发后转为固定 24 小时周期
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.armLocked(s.period)
	s.mu.Unlock()

	slog.Info("定时同步触发")
	s.run(s.ctx)
}

// NextDaily 计算 now 之后 (严格晚于) 最近一次 HH:MM
// 今天的时间点已过 (或恰好等于 now) 时取明天
func NextDaily(now time.Time, hhmm string) time.Time {
	h, m := ParseClock(hhmm)
	y, mo, d := now.Date()

	next := time.Date(y, mo, d, h, m, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, mo, d+1, h, m, 0, 0, now.Location())
	}
	return next
}

// ParseClock 解析 "HH:MM"，数值钳制到合法范围，无法解析的部分按 0 处理
func ParseClock(hhmm string) (hour, minute int) {
	hs, ms, _ := strings.Cut(strings.TrimSpace(hhmm), ":")
	hour, _ = strconv.Atoi(strings.TrimSpace(hs))
	minute, _ = strconv.Atoi(strings.TrimSpace(ms))
	return clamp(hour, 0, 23), clamp(minute, 0, 59)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
