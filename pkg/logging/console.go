package logging

import (
	"github.com/fatih/color"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var (
	unitColour    = color.New(color.FgHiCyan)
	messageColour = map[zapcore.Level]*color.Color{
		zapcore.WarnLevel:   color.New(color.FgHiYellow, color.Bold),
		zapcore.ErrorLevel:  color.New(color.FgHiRed, color.Bold),
		zapcore.DPanicLevel: color.New(color.FgHiRed, color.Bold),
		zapcore.PanicLevel:  color.New(color.FgHiRed, color.Bold),
		zapcore.FatalLevel:  color.New(color.FgHiRed, color.Bold),
	}
)

// ConsoleEncoder is a console encoder for CLI output. Entries tagged with a [UnitField] are prefixed with the
// unit name, warnings and errors are coloured, and the first warning/error is recorded so the CLI can report
// it once the command completes.
type ConsoleEncoder struct {
	zapcore.Encoder

	Verbose     bool
	Color       bool
	HadWarnings *atomic.Bool
	HadErrors   *atomic.Bool

	unit string
}

func NewConsoleEncoder(verbose, useColor bool, hadWarnings, hadErrors *atomic.Bool) *ConsoleEncoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	if !verbose {
		cfg.TimeKey = ""
		cfg.LevelKey = ""
		cfg.NameKey = ""
	}
	if useColor {
		cfg.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	return &ConsoleEncoder{
		Encoder:     zapcore.NewConsoleEncoder(cfg),
		Verbose:     verbose,
		Color:       useColor,
		HadWarnings: hadWarnings,
		HadErrors:   hadErrors,
	}
}

func (enc *ConsoleEncoder) Clone() zapcore.Encoder {
	return &ConsoleEncoder{
		Encoder:     enc.Encoder.Clone(),
		Verbose:     enc.Verbose,
		Color:       enc.Color,
		HadWarnings: enc.HadWarnings,
		HadErrors:   enc.HadErrors,
		unit:        enc.unit,
	}
}

// AddString intercepts the unit field added via `logger.With(UnitField(...))` so it is rendered as a prefix
// instead of in the trailing field list.
func (enc *ConsoleEncoder) AddString(key, value string) {
	if key == unitKey {
		enc.unit = value
		return
	}
	enc.Encoder.AddString(key, value)
}

func (enc *ConsoleEncoder) colourise(c *color.Color, s string) string {
	if !enc.Color || c == nil {
		return s
	}
	return c.Sprint(s)
}

func (enc *ConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if ent.Level >= zapcore.WarnLevel {
		enc.HadWarnings.Store(true)
	}
	if ent.Level >= zapcore.ErrorLevel {
		enc.HadErrors.Store(true)
	}

	unit := enc.unit
	remaining := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == unitKey && f.Type == zapcore.StringType {
			unit = f.String
			continue
		}
		remaining = append(remaining, f)
	}

	msg := enc.colourise(messageColour[ent.Level], ent.Message)
	if unit != "" {
		msg = enc.colourise(unitColour, "["+unit+"]") + " " + msg
	}
	ent.Message = msg
	return enc.Encoder.EncodeEntry(ent, remaining)
}
