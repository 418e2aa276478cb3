package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("prod", "info", "ticketing")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewLogger_DevEnvironment(t *testing.T) {
	log, err := NewLogger("dev", "debug", "ticketing")
	require.NoError(t, err)
	assert.NotNil(t, log)

	// Консольный энкодер не должен падать на обычных полях
	log.Debug("debug message", String("key", "value"))
	log.Info("info message", Int("count", 3))
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
}

func TestLogger_With(t *testing.T) {
	log, err := NewLogger("prod", "info", "ticketing")
	require.NoError(t, err)

	child := log.With(String("ride_id", "r-1"))
	assert.NotNil(t, child)
	assert.NotSame(t, log, child)

	child.Info("ride archived")
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, "key", String("key", "v").Key)
	assert.Equal(t, "count", Int("count", 7).Key)
	assert.Equal(t, "id", Int64("id", 42).Key)
	assert.Equal(t, "validated", Bool("validated", true).Key)
	assert.Equal(t, "ttl", Duration("ttl", time.Hour).Key)
	assert.Equal(t, "at", Time("at", time.Now()).Key)
	assert.Equal(t, "payload", Any("payload", map[string]int{"a": 1}).Key)
}

func TestErrorField(t *testing.T) {
	field := Error(errors.New("boom"))
	assert.Equal(t, "error", field.Key)

	nilField := Error(nil)
	assert.Equal(t, "error", nilField.Key)
}
