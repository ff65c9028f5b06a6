// Package logging 基于 zerolog 提供统一的结构化日志配置。
//
// 约定：
//   - 组件通过 With().Str("component", ...) 派生子 logger
//   - 不记录用户 ID 等个人信息，使用 request_id 关联日志
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 是日志配置。
type Config struct {
	// Level 最低日志级别：trace / debug / info / warn / error / disabled
	Level string `koanf:"level" yaml:"level"`

	// Format 输出格式：json / console
	Format string `koanf:"format" yaml:"format"`

	// Output 输出目标，默认 os.Stderr
	Output io.Writer `koanf:"-" yaml:"-"`
}

// DefaultConfig 返回默认日志配置。
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

var (
	global = New(DefaultConfig())
	mu     sync.RWMutex
)

// New 根据配置创建 logger。
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// Init 重新配置全局 logger，通常在 main 中调用一次。
func Init(cfg Config) {
	l := New(cfg)
	mu.Lock()
	defer mu.Unlock()
	zerolog.TimeFieldFormat = time.RFC3339
	global = l
}

// Logger 返回全局 logger。
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Component 返回带 component 字段的子 logger。
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// ParseLevel 将字符串级别转为 zerolog.Level，未知级别按 info 处理。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
