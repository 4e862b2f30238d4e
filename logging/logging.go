// Package logging wraps cosmossdk.io/log with a consistent call
// convention: Debug/Info/Warn/Error(msg, category, kv...).
package logging

import (
	"os"
	"sync"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

// Category tags a log line with the pipeline stage that emitted it.
type Category string

const (
	RPC       Category = "rpc"
	Decode    Category = "decode"
	Assemble  Category = "assemble"
	Extract   Category = "extract"
	Runner    Category = "runner"
	Sink      Category = "sink"
	Progress  Category = "progress"
	Config    Category = "config"
	Partition Category = "partition"
)

var (
	mu     sync.RWMutex
	logger log.Logger = log.NewLogger(os.Stderr)
)

// Init replaces the package logger. level is one of "debug", "info",
// "warn", "error"; pretty selects the human-readable console writer
// instead of JSON (intended for local/dev use, mirroring cosmos-sdk's
// own --log_format flag).
func Init(level string, pretty bool) {
	zlvl, err := zerolog.ParseLevel(level)
	if err != nil {
		zlvl = zerolog.InfoLevel
	}
	opts := []log.Option{log.LevelOption(zlvl)}
	if !pretty {
		opts = append(opts, log.OutputJSONOption())
	}
	l := log.NewLogger(os.Stderr, opts...)
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func withCategory(category Category, kv []any) []any {
	return append([]any{"component", string(category)}, kv...)
}

func Debug(msg string, category Category, kv ...any) {
	current().Debug(msg, withCategory(category, kv)...)
}

func Info(msg string, category Category, kv ...any) {
	current().Info(msg, withCategory(category, kv)...)
}

func Warn(msg string, category Category, kv ...any) {
	current().Warn(msg, withCategory(category, kv)...)
}

func Error(msg string, category Category, kv ...any) {
	current().Error(msg, withCategory(category, kv)...)
}
