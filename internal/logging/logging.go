// Package logging 基于 slog 的结构化日志配置
package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetupLogger 按级别和格式配置默认 logger
// level: "debug", "info", "warn", "error"
// format: "text", "json"
func SetupLogger(level, format string) {
	slog.SetDefault(New(os.Stderr, level, format))
}

// New 构造一个写到 w 的 logger，未知级别按 info 处理
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel 把配置里的字符串转成 slog.Level
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent 返回带 component 字段的 logger
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
