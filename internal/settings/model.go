package settings

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
)

// CompareMode 增量比对策略
type CompareMode string

const (
	// CompareMTime 比较大小 + 毫秒级修改时间
	CompareMTime CompareMode = "mtime"
	// CompareHash 比较 SHA-256 内容摘要
	CompareHash CompareMode = "hash"
)

// ScheduleMode 自动同步的触发方式
type ScheduleMode string

const (
	ScheduleInterval ScheduleMode = "interval"
	ScheduleDaily    ScheduleMode = "daily"
)

// SyncTask 一个 源 -> vault 目标 的同步单元
type SyncTask struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourcePath string `json:"sourcePath"` // 外部绝对路径，可以是文件或目录
	TargetPath string `json:"targetPath"` // 相对 vault 根目录
	Enabled    bool   `json:"enabled"`
}

// Schedule 定时配置，JSON 中与其它字段平铺
type Schedule struct {
	Enabled         bool         `json:"scheduleEnabled"`
	Mode            ScheduleMode `json:"scheduleMode"`
	IntervalMinutes int          `json:"intervalMinutes"`
	DailyTime       string       `json:"dailyTime"` // "HH:MM" 24 小时制
}

// Settings 进程级同步设置
type Settings struct {
	Tasks           []SyncTask  `json:"tasks"`
	ExcludePatterns []string    `json:"excludePatterns"`
	CompareMode     CompareMode `json:"compareMode"`
	Schedule
	AutoRunOnStart bool `json:"autoRunOnStart"`
}

const (
	DefaultIntervalMinutes = 60
	DefaultDailyTime       = "03:00"
)

// DefaultExcludePatterns 未配置时使用的排除规则
var DefaultExcludePatterns = []string{"**/node_modules/**", "**/.DS_Store"}

// Defaults 返回一份全新的默认设置
func Defaults() Settings {
	return Settings{
		Tasks:           []SyncTask{},
		ExcludePatterns: slices.Clone(DefaultExcludePatterns),
		CompareMode:     CompareMTime,
		Schedule: Schedule{
			Enabled:         false,
			Mode:            ScheduleInterval,
			IntervalMinutes: DefaultIntervalMinutes,
			DailyTime:       DefaultDailyTime,
		},
		AutoRunOnStart: false,
	}
}

// Clone 深拷贝，作为一次同步运行的只读快照
func (s Settings) Clone() Settings {
	s.Tasks = slices.Clone(s.Tasks)
	s.ExcludePatterns = slices.Clone(s.ExcludePatterns)
	if s.Tasks == nil {
		s.Tasks = []SyncTask{}
	}
	if s.ExcludePatterns == nil {
		s.ExcludePatterns = []string{}
	}
	return s
}

// FindTask 按 ID 或名称查找任务
func (s Settings) FindTask(idOrName string) (SyncTask, bool) {
	for _, t := range s.Tasks {
		if t.ID == idOrName {
			return t, true
		}
	}
	for _, t := range s.Tasks {
		if t.Name == idOrName {
			return t, true
		}
	}
	return SyncTask{}, false
}

// NewTask 创建一个带新 ID 的任务，默认启用
func NewTask(name, sourcePath, targetPath string) SyncTask {
	return SyncTask{
		ID:         NewID(),
		Name:       name,
		SourcePath: sourcePath,
		TargetPath: targetPath,
		Enabled:    true,
	}
}

// NewID 生成 16 位十六进制随机 ID
func NewID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
