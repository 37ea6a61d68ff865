package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	prod, err := New("production", "")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	dev, err := New("development", "")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	quiet, err := New("development", "warn")
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.WarnLevel))

	_, err = New("production", "loud")
	assert.Error(t, err)
}

func TestNewCLI_QuietByDefault(t *testing.T) {
	assert.False(t, NewCLI(false).Core().Enabled(zapcore.InfoLevel))
	assert.True(t, NewCLI(true).Core().Enabled(zapcore.DebugLevel))
}

func TestNewWithDefaults(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("LOG_LEVEL", "nonsense")

	logger := NewWithDefaults()
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

// Feature: stockbook, Property 13: Production logs are structured JSON
func TestProperty_ProductionLogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every entry carries level, timestamp and message", prop.ForAll(
		func(message string, itemID int, level string) bool {
			var buf bytes.Buffer

			encoderConfig := baseConfig("production").EncoderConfig
			core := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(&buf),
				zapcore.DebugLevel,
			)
			logger := zap.New(core)

			switch level {
			case "warn":
				logger.Warn(message, zap.Int("item_id", itemID))
			case "error":
				logger.Error(message, zap.Int("item_id", itemID))
			default:
				logger.Info(message, zap.Int("item_id", itemID))
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			return entry["level"] == level &&
				entry["message"] == message &&
				entry["timestamp"] != nil &&
				entry["item_id"] == float64(itemID)
		},
		gen.AlphaString(),
		gen.IntRange(1, 100000),
		gen.OneConstOf("info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
