package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "debug", Format: "json", ServiceName: "jurix", Output: &buf})

	ctx := WithCorrelationID(context.Background(), "cid-123")
	ctx = WithUserID(ctx, "user-1")
	log.WithFields(map[string]interface{}{"component": "test"}).
		Error(ctx, "something failed", errors.New("boom"), map[string]interface{}{"contract_id": "c-1"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "something failed", line["msg"])
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "jurix", line["service"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "cid-123", line["correlation_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "c-1", line["contract_id"])
	assert.Contains(t, line, "caller")
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "warn", Format: "json", Output: &buf})

	log.Info(context.Background(), "hidden", nil)
	log.Debug(context.Background(), "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestCorrelationID_Missing(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error(context.Background(), "discarded", errors.New("x"), nil)
	})
}

func TestLogPerformance(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "info", Format: "json", Output: &buf})

	LogPerformance(context.Background(), log, "GET /api/v1/contracts", 1500*time.Millisecond, map[string]interface{}{"status": 200})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "performance", line["event_type"])
	assert.Equal(t, "GET /api/v1/contracts", line["operation"])
	assert.Equal(t, float64(1500), line["duration_ms"])
	assert.Equal(t, float64(200), line["status"])
}
