package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

type LogOpts struct {
	Verbose bool
	// Color is one of "auto" (default), "always"/"on" or "never"/"off".
	Color string
	// Encoding is one of "console" (default) or "json".
	Encoding      string
	DefaultLevels map[string]zapcore.Level

	// HadWarnings and HadErrors, if set, are flipped by the console encoder the first time an entry at or above
	// the respective level is written.
	HadWarnings *atomic.Bool
	HadErrors   *atomic.Bool
}

func (opts LogOpts) useColor() bool {
	switch opts.Color {
	case "always", "on":
		return true
	case "never", "off":
		return false
	default:
		return term.IsTerminal(int(os.Stderr.Fd()))
	}
}

func (opts LogOpts) Encoder() zapcore.Encoder {
	switch opts.Encoding {
	case "json":
		if opts.Verbose {
			return zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
		}
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	case "console", "":
		hadWarnings, hadErrors := opts.HadWarnings, opts.HadErrors
		if hadWarnings == nil {
			hadWarnings = atomic.NewBool(false)
		}
		if hadErrors == nil {
			hadErrors = atomic.NewBool(false)
		}
		return NewConsoleEncoder(opts.Verbose, opts.useColor(), hadWarnings, hadErrors)

	default:
		panic(fmt.Errorf("unknown encoding %q", opts.Encoding))
	}
}

// levels returns the per-logger levels, overridden by the LOG_LEVEL environment variable which takes the form
// `name=level,name2=level2`.
func (opts LogOpts) levels() map[string]zapcore.Level {
	levelEnv, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return opts.DefaultLevels
	}
	values := strings.Split(levelEnv, ",")
	levels := make(map[string]zapcore.Level, len(values))
	for _, v := range values {
		k, v, ok := strings.Cut(v, "=")
		if !ok {
			continue
		}
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			continue
		}
		levels[k] = lvl
	}
	return levels
}

func (opts LogOpts) NewCore(w zapcore.WriteSyncer) zapcore.Core {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Verbose {
		level.SetLevel(zap.DebugLevel)
	}

	core := zapcore.NewCore(opts.Encoder(), w, level)
	if levels := opts.levels(); len(levels) > 0 {
		core = NewEntryLeveller(core, levels)
	}
	return core
}

func (opts LogOpts) NewLogger() *zap.Logger {
	return zap.New(opts.NewCore(os.Stderr))
}

// SyncOrDebug flushes the logger, logging (at debug) instead of failing if it can't. Stderr commonly refuses
// fsync, which isn't worth surfacing.
func SyncOrDebug(l *zap.Logger) {
	if err := l.Sync(); err != nil {
		l.Debug("Failed to sync logger", zap.Error(err))
	}
}
