package database

import "time"

// RunRecord 代表一个任务最近一次同步的结果
// 存入数据库时会序列化为 JSON，以任务 ID 为 Key
type RunRecord struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`

	// 开始/结束时间 (Unix Nano)
	StartedAt  int64 `json:"started_at"`
	FinishedAt int64 `json:"finished_at"`

	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"` // 失败原因 (面向用户的文案)

	// 本次运行的统计
	Copied    int   `json:"copied"`
	Unchanged int   `json:"unchanged"`
	Excluded  int   `json:"excluded"`
	Bytes     int64 `json:"bytes"`
}

// Duration 本次运行耗时
func (r *RunRecord) Duration() time.Duration {
	return time.Duration(r.FinishedAt - r.StartedAt)
}

// FinishedTime 辅助方法：转为 Go Time 对象
func (r *RunRecord) FinishedTime() time.Time {
	return time.Unix(0, r.FinishedAt)
}
