package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// EntryLeveller is a zapcore.Core that filters log entries based on the logger name, similar to Log4j or
// python's logging module. The most specific name wins: for a logger named `synth.cloudformation`, a level for
// `synth.cloudformation` takes precedence over one for `synth`, which takes precedence over the root ("").
type EntryLeveller struct {
	zapcore.Core

	levels map[string]zapcore.Level
}

func NewEntryLeveller(core zapcore.Core, levels map[string]zapcore.Level) *EntryLeveller {
	copied := make(map[string]zapcore.Level, len(levels))
	for k, v := range levels {
		copied[k] = v
	}
	return &EntryLeveller{Core: core, levels: copied}
}

func (el *EntryLeveller) With(f []zapcore.Field) zapcore.Core {
	return &EntryLeveller{Core: el.Core.With(f), levels: el.levels}
}

func (el *EntryLeveller) levelFor(name string) (zapcore.Level, bool) {
	for {
		if level, ok := el.levels[name]; ok {
			return level, true
		}
		if name == "" {
			return 0, false
		}
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			name = ""
		} else {
			name = name[:idx]
		}
	}
}

// Enabled is permissive for configured loggers so that a more verbose per-logger level can go below the core's
// own level.
func (el *EntryLeveller) Enabled(lvl zapcore.Level) bool {
	for _, l := range el.levels {
		if lvl >= l {
			return true
		}
	}
	return el.Core.Enabled(lvl)
}

func (el *EntryLeveller) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	level, ok := el.levelFor(e.LoggerName)
	if !ok {
		return el.Core.Check(e, ce)
	}
	if e.Level < level {
		return ce
	}
	return ce.AddCore(e, el)
}
