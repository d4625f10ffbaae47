package sync

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"time"

	"vaultsync/internal/fs"
	"vaultsync/internal/fs/local"
	"vaultsync/internal/settings"
)

// EngineOptions 初始化选项
type EngineOptions struct {
	// NewFS 根据绝对路径创建文件系统，默认使用本地适配器
	NewFS func(root string) fs.FileSystem
}

// Engine 单向增量同步引擎：源 -> vault 内的目标
type Engine struct {
	opts *EngineOptions
}

func NewEngine(opts *EngineOptions) *Engine {
	if opts == nil {
		opts = &EngineOptions{}
	}
	if opts.NewFS == nil {
		opts.NewFS = func(root string) fs.FileSystem { return local.NewAdapter(root) }
	}
	return &Engine{opts: opts}
}

// Sync 执行单个任务的同步
// 校验失败直接返回具体原因；复制过程中的 I/O 错误只返回通用原因，详细信息写入日志
func (e *Engine) Sync(ctx context.Context, task settings.SyncTask, root string, opts Options) Outcome {
	// 1. 路径校验
	v := Validate(task, root)
	if !v.OK {
		slog.Warn("任务校验失败", "task", displayName(task), "reason", v.Reason)
		return failure(v.Reason)
	}

	slog.Info("开始同步任务",
		"task", displayName(task),
		"source", v.Source,
		"target", v.Target,
		"mode", opts.CompareMode,
	)
	start := time.Now()

	// 2. 源和目标各自作为一个文件系统的根，相对路径 "" 即根本身
	src := e.opts.NewFS(v.Source)
	dst := e.opts.NewFS(v.Target)

	w := &walker{
		ctx:     ctx,
		src:     src,
		dst:     dst,
		matcher: NewMatcher(opts.ExcludePatterns),
		detector: &ChangeDetector{
			Mode:   opts.CompareMode,
			Source: src,
			Dest:   dst,
		},
	}

	// 3. 递归复制
	rootMeta, err := src.Stat("")
	if err == nil {
		err = w.visit(rootMeta)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			slog.Warn("同步被中断", "task", displayName(task))
			return failure(ReasonCanceled)
		}
		slog.Error("同步任务失败",
			"task", displayName(task),
			"source", v.Source,
			"target", v.Target,
			"err", err,
		)
		return failure(ReasonCopyFailed)
	}

	slog.Info("同步任务完成",
		"task", displayName(task),
		"copied", w.stats.Copied,
		"unchanged", w.stats.Unchanged,
		"excluded", w.stats.Excluded,
		"bytes", w.stats.Bytes,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return success(w.stats)
}

// walker 一次树遍历的状态
type walker struct {
	ctx      context.Context
	src      fs.FileSystem
	dst      fs.FileSystem
	matcher  *Matcher
	detector *ChangeDetector
	stats    Stats
}

// visit 处理一个条目：先判断排除，再按类型处理
// 被排除的目录整棵子树都不会被访问
func (w *walker) visit(meta *fs.FileMeta) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	if w.matcher.IsExcluded(meta.RelPath) {
		slog.Debug("已排除", "path", meta.RelPath)
		w.stats.Excluded++
		return nil
	}

	switch {
	case meta.IsDir:
		return w.visitDir(meta)
	case meta.IsRegular():
		return w.visitFile(meta)
	default:
		slog.Debug("跳过特殊文件", "path", meta.RelPath, "mode", meta.Mode.String())
		return nil
	}
}

func (w *walker) visitDir(meta *fs.FileMeta) error {
	if err := w.dst.MkdirAll(meta.RelPath); err != nil {
		return fmt.Errorf("mkdir %q: %w", meta.RelPath, err)
	}
	w.stats.Dirs++

	children, err := w.src.ReadDir(meta.RelPath)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", meta.RelPath, err)
	}
	for _, child := range children {
		if err := w.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visitFile(meta *fs.FileMeta) error {
	existing, err := w.dst.Stat(meta.RelPath)
	if err != nil {
		if !errors.Is(err, iofs.ErrNotExist) {
			slog.Warn("无法读取目标文件信息，按需要复制处理", "path", meta.RelPath, "err", err)
		}
		existing = nil
	}

	if !w.detector.NeedsCopy(meta, existing) {
		w.stats.Unchanged++
		return nil
	}
	return w.copyFile(meta)
}

// copyFile 整体覆盖写入目标，并保留源文件的修改时间
func (w *walker) copyFile(meta *fs.FileMeta) error {
	reader, err := w.src.OpenStream(meta.RelPath)
	if err != nil {
		return fmt.Errorf("open %q: %w", meta.RelPath, err)
	}
	defer reader.Close()

	n, err := w.dst.WriteStream(meta.RelPath, reader, meta.ModTime)
	if err != nil {
		return fmt.Errorf("write %q: %w", meta.RelPath, err)
	}

	slog.Debug("已复制", "path", meta.RelPath, "bytes", n)
	w.stats.Copied++
	w.stats.Bytes += n
	return nil
}
