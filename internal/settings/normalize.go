package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// maxIntervalMinutes 一年，超过视为无效值
const maxIntervalMinutes = 365 * 24 * 60

var dailyTimePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// Parse 严格解析：顶层必须是 JSON 对象，否则整体拒绝
// 解析成功后仍按字段合并到默认值之上
func Parse(data []byte) (Settings, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Settings{}, fmt.Errorf("parse settings json: %w", err)
	}
	// 不允许对象后面还有多余内容
	if dec.More() {
		return Settings{}, errors.New("parse settings json: trailing data after object")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return Settings{}, errors.New("settings json must be an object")
	}
	return Normalize(obj), nil
}

// Normalize 将任意 (可能残缺或过期的) 设置对象逐字段合并到默认值之上
// 布尔值做类型转换，枚举值只接受合法取值，数字必须有限，数组缺省为空
func Normalize(raw map[string]any) Settings {
	s := Defaults()
	if raw == nil {
		return s
	}

	s.Tasks = normalizeTasks(raw["tasks"])

	if v, ok := raw["excludePatterns"]; ok {
		if patterns, ok := stringSlice(v); ok {
			s.ExcludePatterns = patterns
		}
	}

	if v, ok := raw["compareMode"].(string); ok {
		switch CompareMode(v) {
		case CompareMTime, CompareHash:
			s.CompareMode = CompareMode(v)
		}
	}

	s.Schedule.Enabled = coerceBool(raw["scheduleEnabled"], s.Schedule.Enabled)

	if v, ok := raw["scheduleMode"].(string); ok {
		switch ScheduleMode(v) {
		case ScheduleInterval, ScheduleDaily:
			s.Schedule.Mode = ScheduleMode(v)
		}
	}

	if n, ok := finiteNumber(raw["intervalMinutes"]); ok && n >= 1 && n <= maxIntervalMinutes {
		s.Schedule.IntervalMinutes = int(math.Floor(n))
	}

	if v, ok := raw["dailyTime"].(string); ok {
		if hhmm, ok := NormalizeDailyTime(v); ok {
			s.Schedule.DailyTime = hhmm
		}
	}

	s.AutoRunOnStart = coerceBool(raw["autoRunOnStart"], s.AutoRunOnStart)
	return s
}

// NormalizeDailyTime 校验 HH:MM 并补齐为两位小时
func NormalizeDailyTime(v string) (string, bool) {
	m := dailyTimePattern.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", h, m[2]), true
}

func normalizeTasks(v any) []SyncTask {
	items, ok := v.([]any)
	if !ok {
		return []SyncTask{}
	}

	tasks := make([]SyncTask, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		t := SyncTask{
			ID:         stringField(obj, "id"),
			Name:       stringField(obj, "name"),
			SourcePath: stringField(obj, "sourcePath"),
			TargetPath: stringField(obj, "targetPath"),
			Enabled:    coerceBool(obj["enabled"], true),
		}
		if strings.TrimSpace(t.ID) == "" {
			t.ID = NewID()
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func coerceBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	case json.Number, float64:
		if n, ok := finiteNumber(b); ok {
			return n != 0
		}
	}
	return def
}

func finiteNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case float64:
		n = x
	case int:
		n = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
