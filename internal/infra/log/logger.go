package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv)
}

func newLogger(w io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// ForComponent возвращает логгер загрузчика с идентификатором запуска.
func ForComponent(logger zerolog.Logger, component, runID string) zerolog.Logger {
	ctx := logger.With().Str("component", component)
	if runID != "" {
		ctx = ctx.Str("run_id", runID)
	}
	return ctx.Logger()
}
