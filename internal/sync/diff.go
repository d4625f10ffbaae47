package sync

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"vaultsync/internal/fs"
	"vaultsync/internal/settings"
)

// ChangeDetector 判断目标文件是否已经是最新的
type ChangeDetector struct {
	Mode   settings.CompareMode
	Source fs.FileSystem
	Dest   fs.FileSystem
}

// NeedsCopy 决策函数：src 为源文件，dst 为目标上已存在的条目 (不存在时为 nil)
// 只用于普通文件，目录是否进入不经过这里
func (d *ChangeDetector) NeedsCopy(src, dst *fs.FileMeta) bool {
	// 1. 目标不存在，或目标类型不对
	if dst == nil || dst.IsDir {
		return true
	}

	switch d.Mode {
	case settings.CompareMTime:
		return !sameSizeAndMTime(src, dst)
	case settings.CompareHash:
		return !d.sameContent(src, dst)
	default:
		slog.Warn("未知的比对模式，按需要复制处理", "mode", d.Mode, "path", src.RelPath)
		return true
	}
}

// sameSizeAndMTime 大小相同且修改时间在毫秒精度上相同
// 大小相同但时间不同视为已变化
func sameSizeAndMTime(src, dst *fs.FileMeta) bool {
	if src.Size != dst.Size {
		return false
	}
	return src.ModTime.UnixMilli() == dst.ModTime.UnixMilli()
}

// sameContent 并发计算两端的 SHA-256 并比较
// 任何一端读取失败都视为内容不同，由后面的复制暴露真正的错误
func (d *ChangeDetector) sameContent(src, dst *fs.FileMeta) bool {
	// 大小不同内容必然不同，省掉一次全量读取
	if src.Size != dst.Size {
		return false
	}

	var srcHash, dstHash string
	var g errgroup.Group

	g.Go(func() error {
		var err error
		srcHash, err = d.Source.Hash(src.RelPath)
		return err
	})
	g.Go(func() error {
		var err error
		dstHash, err = d.Dest.Hash(dst.RelPath)
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Warn("计算文件摘要失败，按需要复制处理", "path", src.RelPath, "err", err)
		return false
	}
	return srcHash == dstHash
}
