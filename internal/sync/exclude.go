package sync

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher 按 glob 规则判断相对路径是否被排除
// "*" 不跨目录，"**" 可跨目录，"?" 匹配单个字符，以 "." 开头的文件同样会被通配符匹配
type Matcher struct {
	patterns []string
}

// NewMatcher 预先校验所有规则，非法规则记录警告后丢弃 (等同于永不匹配)
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			slog.Warn("排除规则无效，已忽略", "pattern", p)
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Patterns 返回生效的规则
func (m *Matcher) Patterns() []string {
	return m.patterns
}

// IsExcluded 任意一条规则命中即排除；根条目 ("") 永远不排除
func (m *Matcher) IsExcluded(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, p := range m.patterns {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			slog.Warn("排除规则匹配出错", "pattern", p, "path", rel, "err", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// IsExcluded 一次性判断，适合只判断少量路径的场景
func IsExcluded(rel string, patterns []string) bool {
	return NewMatcher(patterns).IsExcluded(rel)
}
