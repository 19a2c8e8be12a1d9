package telemetry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/shotty/internal/config"
)

func disabledConfig() config.OTELConfig {
	return config.OTELConfig{
		ServiceName: "test-shotty",
		Traces:      config.TracesConfig{Enabled: false},
		Metrics:     config.OTELMetricsConfig{Enabled: false},
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), disabledConfig())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.NotNil(t, p.Meter())

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_WithEndpoint(t *testing.T) {
	cfg := config.OTELConfig{
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "test-shotty",
		Traces:      config.TracesConfig{Enabled: true, SampleRate: 1.0},
		Metrics:     config.OTELMetricsConfig{Enabled: true},
	}

	// exporters connect lazily, no collector needed
	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestProvider_WriteTextfile(t *testing.T) {
	p, err := NewProvider(context.Background(), disabledConfig())
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	counter, err := p.Meter().Int64Counter("shotty_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	path := filepath.Join(t.TempDir(), "shotty.prom")
	require.NoError(t, p.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shotty_test_total")
}

func TestSetupLogging_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, setupLogging(&buf, "debug", "json"))

	log.Debug().Str("instance_id", "i-123").Msg("hello")

	assert.Contains(t, buf.String(), `"instance_id":"i-123"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestSetupLogging_LevelFilter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, setupLogging(&buf, "warn", "json"))

	log.Info().Msg("quiet")
	assert.Empty(t, buf.String())
}

func TestSetupLogging_TraceIDs(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, setupLogging(&buf, "info", "json"))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	log.Info().Ctx(ctx).Msg("with span")
	assert.Contains(t, buf.String(), `"trace_id":"0102030405060708090a0b0c0d0e0f10"`)
	assert.Contains(t, buf.String(), `"span_id":"0102030405060708"`)

	buf.Reset()
	log.Info().Msg("without span")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestSetupLogging_Invalid(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, setupLogging(&buf, "loud", "json"))
	assert.Error(t, setupLogging(&buf, "info", "xml"))
}
