package local

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"vaultsync/internal/crypto"
	"vaultsync/internal/fs"
)

// Adapter 本地文件系统适配器
type Adapter struct {
	rootDir string // 本地绝对路径根目录 (可以是目录，也可以是单个文件)
}

var _ fs.FileSystem = (*Adapter)(nil)

// NewAdapter 创建一个新的本地适配器
func NewAdapter(rootDir string) *Adapter {
	// 确保 rootDir 是绝对路径
	absDir, err := filepath.Abs(rootDir)
	if err != nil {
		absDir = filepath.Clean(rootDir)
	}
	return &Adapter{rootDir: absDir}
}

// Root 返回根目录
func (a *Adapter) Root() string {
	return a.rootDir
}

// toSysPath 将相对路径转换为本地系统绝对路径
// 输入: "docs/file.txt" -> 输出 (Windows): "D:\Data\docs\file.txt"
// 输入: "" -> 输出: 根路径本身
func (a *Adapter) toSysPath(relPath string) string {
	if relPath == "" {
		return a.rootDir
	}
	return filepath.Join(a.rootDir, filepath.FromSlash(relPath))
}

func toMeta(relPath string, info os.FileInfo) *fs.FileMeta {
	return &fs.FileMeta{
		RelPath: relPath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Mode:    info.Mode(),
	}
}

// Stat 获取单个条目状态 (跟随符号链接)
func (a *Adapter) Stat(relPath string) (*fs.FileMeta, error) {
	info, err := os.Stat(a.toSysPath(relPath))
	if err != nil {
		return nil, err
	}
	return toMeta(relPath, info), nil
}

// ReadDir 列出目录下的直接子条目
func (a *Adapter) ReadDir(relPath string) ([]*fs.FileMeta, error) {
	dir := a.toSysPath(relPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	metas := make([]*fs.FileMeta, 0, len(entries))
	for _, entry := range entries {
		childRel := path.Join(relPath, entry.Name())

		// 符号链接需要 Stat 目标才能知道是文件还是目录
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Warn("无法读取条目信息，已跳过", "path", childRel, "err", err)
			continue
		}
		metas = append(metas, toMeta(childRel, info))
	}
	return metas, nil
}

// OpenStream 打开本地文件读取流
func (a *Adapter) OpenStream(relPath string) (io.ReadCloser, error) {
	return os.Open(a.toSysPath(relPath))
}

// WriteStream 将流写入本地文件，已存在的文件会被整体覆盖
// modTime: 用于恢复文件的修改时间，保持和源文件一致
func (a *Adapter) WriteStream(relPath string, stream io.Reader, modTime time.Time) (int64, error) {
	fullPath := a.toSysPath(relPath)

	// 1. 确保父目录存在
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("create parent dir: %w", err)
	}

	// 2. 创建文件 (截断已有内容)
	f, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	// 注意：此处不能 defer f.Close()，需要在 close 后修改时间

	// 3. 写入数据
	n, err := io.Copy(f, stream)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("write data: %w", err)
	}

	// 关闭文件以刷入磁盘
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close file: %w", err)
	}

	// 4. 恢复修改时间 (增量比对依赖这个时间)
	if !modTime.IsZero() {
		if err := os.Chtimes(fullPath, time.Now(), modTime); err != nil {
			slog.Warn("无法修改文件时间", "path", relPath, "err", err)
		}
	}
	return n, nil
}

// MkdirAll 递归创建目录
func (a *Adapter) MkdirAll(relPath string) error {
	return os.MkdirAll(a.toSysPath(relPath), 0755)
}

// Hash 计算文件的 SHA-256
func (a *Adapter) Hash(relPath string) (string, error) {
	return crypto.HashFile(a.toSysPath(relPath))
}
