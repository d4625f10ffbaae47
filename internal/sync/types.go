package sync

import (
	"fmt"
	"strings"

	"vaultsync/internal/settings"
)

// 面向用户的失败原因
const (
	ReasonSourceEmpty    = "source path is empty"
	ReasonTargetEmpty    = "target path is empty"
	ReasonSourceMissing  = "source path does not exist"
	ReasonTargetAbsolute = "target path must be relative to the vault"
	ReasonTargetOutside  = "target path must stay inside the vault"
	ReasonDirOntoFile    = "cannot copy a directory onto an existing file"
	ReasonTargetInSource = "target path must not be inside the source"
	ReasonCopyFailed     = "sync failed; see log for details"
	ReasonCanceled       = "sync canceled"
	ReasonNoEnabledTasks = "no enabled tasks"
)

// Options 一次同步运行使用的策略，来自设置快照
type Options struct {
	ExcludePatterns []string
	CompareMode     settings.CompareMode
}

// OptionsFrom 从设置快照中提取引擎策略
func OptionsFrom(s settings.Settings) Options {
	return Options{
		ExcludePatterns: s.ExcludePatterns,
		CompareMode:     s.CompareMode,
	}
}

// Validation 路径校验结果
type Validation struct {
	OK     bool
	Source string // 归一化后的源路径
	Target string // 最终写入的目标绝对路径
	Reason string
}

// Stats 单个任务的遍历统计
type Stats struct {
	Dirs      int   // 进入的目录数
	Copied    int   // 实际写入的文件数
	Unchanged int   // 判定未变化而跳过的文件数
	Excluded  int   // 被排除规则剪掉的条目数 (目录只计一次)
	Bytes     int64 // 写入的字节数
}

// Outcome 单个任务的同步结果
type Outcome struct {
	OK     bool
	Reason string
	Stats  Stats
}

func success(stats Stats) Outcome {
	return Outcome{OK: true, Stats: stats}
}

func failure(reason string) Outcome {
	return Outcome{OK: false, Reason: reason}
}

// Report 批量运行的汇总
type Report struct {
	Ran          int      // 实际执行的任务数，0 表示没有启用的任务
	SuccessCount int      // 成功的任务数
	FailureCount int      // 失败的任务数
	Failures     []string // "<任务名>: <原因>"，按提交顺序
}

// Summary 一行汇总文案
func (r Report) Summary() string {
	if r.Ran == 0 {
		return ReasonNoEnabledTasks
	}
	return fmt.Sprintf("%d succeeded, %d failed", r.SuccessCount, r.FailureCount)
}

// FailureDetail 所有失败信息，每行一条，便于复制
func (r Report) FailureDetail() string {
	return strings.Join(r.Failures, "\n")
}

// displayName 任务名为空时退回到 ID
func displayName(t settings.SyncTask) string {
	if strings.TrimSpace(t.Name) != "" {
		return t.Name
	}
	return t.ID
}
