package logger

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

type Config struct {
	Debug  bool
	Writer io.Writer
}

var (
	mu     sync.RWMutex
	global = New(Config{})
)

// Setup builds a logger from cfg and installs it as the global logger.
func Setup(cfg Config) *slog.Logger {
	l := New(cfg)
	mu.Lock()
	global = l
	mu.Unlock()
	return l
}

func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// New returns a JSON logger writing to cfg.Writer. A nil Writer discards
// output. Debug lowers the level to debug and records call sites.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = io.Discard
	}

	level := slog.LevelInfo
	addSource := false
	if cfg.Debug {
		level = slog.LevelDebug
		addSource = true
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
			}
			return a
		},
	})
	return slog.New(h)
}
