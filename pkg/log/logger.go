package log

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
)

// SetupLogger installs a zerolog logger writing to w as the process-wide
// logger. Warnings raised through pkg/errors are routed into it, and errors
// logged with a leading error field carry their cockroachdb stack.
func SetupLogger(loglevel string, w io.Writer) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}

	zerolog.ErrorStackMarshaler = marshalStack
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	SetLogger(FromZerolog(zl))

	errors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(obj)
		}
		ev.Err(warning).Msg("warning")
	})
	return nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log-level", "must be one of debug, info, warn, error", level)
	}
}
