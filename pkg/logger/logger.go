package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志输出配置
type Options struct {
	Level      string // "debug", "info", "warn", "error"
	File       string // 日志文件路径 (为空则只输出到控制台)
	MaxSizeMB  int    // 单个日志文件最大体积
	MaxBackups int    // 保留的旧日志文件数量
	MaxAgeDays int    // 旧日志保留天数
}

// ParseLevel 解析日志等级字符串，未知值按 info 处理
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New 按配置构建 Logger，但不修改全局默认 Logger
func New(opts Options, console io.Writer) (*slog.Logger, error) {
	level := ParseLevel(opts.Level)

	// 1. 配置输出目标 (Writer)
	writer := console
	if opts.File != "" {
		// 确保日志目录存在
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, err
		}

		// lumberjack 负责按大小切割，文件在第一次写入时打开
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}

		if console != nil {
			writer = io.MultiWriter(console, rotator)
		} else {
			writer = rotator
		}
	}
	if writer == nil {
		writer = io.Discard
	}

	// 2. 配置 Handler 选项
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // 仅在 Debug 模式下显示文件名和行号
	}

	return slog.New(slog.NewTextHandler(writer, handlerOpts)), nil
}

// Setup 初始化全局日志配置
func Setup(opts Options) error {
	l, err := New(opts, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}
