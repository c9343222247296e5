// Package logger configures the process-wide slog default.
package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	LevelTrace = slog.LevelDebug - 4
	LevelFatal = slog.LevelError + 4
)

type Opts struct {
	Level     string
	Format    string // "text" (default) or "json"
	AddSource bool
}

func Init(opts *Opts) {
	if opts == nil {
		opts = &Opts{}
	}

	levels := map[string]slog.Level{
		"trace": LevelTrace,
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	lvl := slog.LevelInfo
	if cfgLvl, ok := levels[strings.ToLower(opts.Level)]; ok {
		lvl = cfgLvl
	}

	replaceAttr := func(_ []string, attr slog.Attr) slog.Attr {
		// trim source paths to basename. short-circuit: only when add-source is enabled
		if opts.AddSource && attr.Key == slog.SourceKey {
			if src, ok := attr.Value.Any().(*slog.Source); ok {
				src.File = filepath.Base(src.File)
				attr.Value = slog.AnyValue(src)
			}
		}
		// name the custom levels. short-circuit: only needed outside the slog range
		if attr.Key == slog.LevelKey {
			if level, ok := attr.Value.Any().(slog.Level); ok {
				switch level {
				case LevelTrace:
					return slog.String(slog.LevelKey, "TRACE")
				case LevelFatal:
					return slog.String(slog.LevelKey, "FATAL")
				}
			}
		}
		return attr
	}

	handlerOpts := &slog.HandlerOptions{
		AddSource:   opts.AddSource,
		Level:       lvl,
		ReplaceAttr: replaceAttr,
	}
	var baseHandler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		baseHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		baseHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	logger := slog.New(baseHandler.WithAttrs([]slog.Attr{
		slog.Int("pid", os.Getpid()),
	}))
	slog.SetDefault(logger)
}
