package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// traceHook adds trace and span ids to events logged with a span context.
type traceHook struct{}

func (traceHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return
	}
	e.Str("trace_id", sc.TraceID().String())
	e.Str("span_id", sc.SpanID().String())
}

// SetupLogging configures the global zerolog logger. Logs go to stderr so
// stdout stays reserved for reports.
func SetupLogging(level, format string) error {
	return setupLogging(os.Stderr, level, format)
}

func setupLogging(out io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	switch format {
	case "json":
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = zerolog.New(out).With().Timestamp().Logger().Hook(traceHook{})
	case "console", "":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Hook(traceHook{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
