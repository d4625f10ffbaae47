package sync

import (
	"os"
	"path/filepath"
	"strings"

	"vaultsync/internal/settings"
)

// Validate 校验任务的源/目标路径，并解析出最终写入位置
// root 为 vault 根目录，所有目标路径都相对于它且不能越出
func Validate(task settings.SyncTask, root string) Validation {
	source := strings.TrimSpace(task.SourcePath)
	target := strings.TrimSpace(task.TargetPath)

	// 1. 非空检查
	if source == "" {
		return Validation{Reason: ReasonSourceEmpty}
	}
	if target == "" {
		return Validation{Reason: ReasonTargetEmpty}
	}

	// 2. 源必须存在
	source = normalizePath(source)
	srcInfo, err := os.Stat(source)
	if err != nil {
		return Validation{Reason: ReasonSourceMissing}
	}

	// 3. 目标只能是 vault 内的相对路径
	if filepath.IsAbs(target) || strings.HasPrefix(target, "/") {
		return Validation{Reason: ReasonTargetAbsolute}
	}

	root = normalizePath(root)
	resolved := filepath.Join(root, target)
	if !isInside(root, resolved) {
		return Validation{Reason: ReasonTargetOutside}
	}

	var existing os.FileInfo
	if info, err := os.Stat(resolved); err == nil {
		existing = info
	}

	// 4. 文件源：以分隔符结尾或目标已是目录时，复制到目录内
	if !srcInfo.IsDir() {
		final := resolved
		if hasTrailingSeparator(target) || (existing != nil && existing.IsDir()) {
			final = filepath.Join(resolved, filepath.Base(source))
		}
		if isInside(source, final) {
			return Validation{Reason: ReasonTargetInSource}
		}
		return Validation{OK: true, Source: source, Target: final}
	}

	// 5. 目录源：不能覆盖已存在的文件
	if existing != nil && !existing.IsDir() {
		return Validation{Reason: ReasonDirOntoFile}
	}

	// 6. 目标在源目录之内会把自己的输出再复制一遍，无限嵌套
	if isInside(source, resolved) {
		return Validation{Reason: ReasonTargetInSource}
	}
	return Validation{OK: true, Source: source, Target: resolved}
}

// normalizePath 清理路径，并尽量转为绝对路径
func normalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// isInside resolved 是否等于 root 或位于 root 之下
func isInside(root, resolved string) bool {
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func hasTrailingSeparator(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator))
}
