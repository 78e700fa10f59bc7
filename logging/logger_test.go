package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c0deZ3R0/go-note-merge/errors"
)

func TestLogger(t *testing.T) {
	configs := []Config{
		{Level: "debug", Format: "text", Environment: EnvDevelopment, AddSource: true},
		{Level: "info", Format: "json", Environment: EnvProduction, AddSource: false},
	}

	for _, config := range configs {
		t.Run("Environment_"+config.Environment, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerTo(&buf, config)

			logger.Info("Info message", slog.Int("count", 42))

			testErr := errors.New(errors.OpStore, fmt.Errorf("storage error"))
			logger.LogError(context.Background(), testErr, "Operation failed")

			childLogger := logger.WithComponent(Component("merge"))
			childLogger.Info("Child logger message")

			err := logger.LogOperation(context.Background(), Operation("merge_document"), Component("merge"),
				func() error { return nil })
			require.NoError(t, err)

			out := buf.String()
			assert.Contains(t, out, "Info message")
			assert.Contains(t, out, "Operation failed")
			assert.Contains(t, out, "storage error")
			assert.Contains(t, out, "operation completed")
		})
	}
}

func TestLogOperation_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, Config{Level: "info", Format: "json"})

	want := fmt.Errorf("boom")
	err := logger.LogOperation(context.Background(), Operation("reconcile"), Component("service"),
		func() error { return want })
	assert.Equal(t, want, err)
	assert.Contains(t, buf.String(), "operation failed")
}

func TestDynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, levelVar := NewLoggerWithDynamicLevel(&buf, Config{Level: "info", Format: "text"})

	logger.Debug("hidden debug")
	assert.NotContains(t, buf.String(), "hidden debug")

	require.True(t, levelVar.SetFromString("debug"))
	logger.Debug("visible debug")
	assert.Contains(t, buf.String(), "visible debug")

	assert.False(t, levelVar.SetFromString("loud"))
}

func TestMergeErrorValuer(t *testing.T) {
	mergeErr := &errors.MergeError{
		Op:        errors.OpStore,
		Component: "storage/sqlite",
		Code:      errors.ErrCodeStorageFailure,
		Kind:      errors.KindInternal,
		Err:       fmt.Errorf("underlying error"),
		Retryable: true,
		Metadata: map[string]interface{}{
			"note_id": "n1",
		},
	}

	logValue := MergeErrorValuer{MergeError: mergeErr}.LogValue()
	assert.Equal(t, slog.KindGroup, logValue.Kind())
}

func TestContextExtraction(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	ctx = context.WithValue(ctx, NoteIDKey, "note-456")

	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, Config{Level: "debug", Format: "json"})
	logger.WithContext(ctx).Info("Message with context")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "note-456", entry["note_id"])
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_ADD_SOURCE", "true")

	cfg := ApplyEnv(Config{Format: "text"})
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.False(t, cfg.AddSource, "production never adds source")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.Level(LevelTrace), ParseLevel("trace"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
