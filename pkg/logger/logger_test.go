package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noid254/nikosoko/pkg/logger"
)

func TestWithContextAttachesKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Default()
	logger.SetDefault(logger.New(&buf, "debug"))
	t.Cleanup(func() { logger.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, logger.SessionIDKey, "sess-9")

	logger.InfoContext(ctx, "contact initiated", "provider_id", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "contact initiated", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "sess-9", line["session_id"])
	assert.NotContains(t, line, "user_id")
	assert.EqualValues(t, 3, line["provider_id"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, "warn")

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
