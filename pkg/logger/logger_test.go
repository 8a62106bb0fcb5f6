package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerWritesFlatJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug})

	log.Info("lote aplicado", UploadID("up-1"), RecordCount(42))

	entry := captureEntry(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "lote aplicado", entry["message"])
	assert.Equal(t, "up-1", entry["upload_id"])
	assert.Equal(t, float64(42), entry["record_count"])
	assert.Contains(t, entry, "timestamp")
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Debug("ruido")
	log.Info("ruido")
	assert.Zero(t, buf.Len())

	log.Warn("atención")
	assert.NotZero(t, buf.Len())
}

func TestLoggerWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug}).
		With(Component("reconciliation"), Program("PROMOVER"))

	log.Error("fallo", Err(errors.New("store down")))

	entry := captureEntry(t, &buf)
	assert.Equal(t, "reconciliation", entry["component"])
	assert.Equal(t, "PROMOVER", entry["program"])
	assert.Equal(t, "store down", entry["error"])
}

func TestLoggerReservedKeysWin(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug})

	log.Info("real", String("message", "spoofed"), String("level", "FATAL"))

	entry := captureEntry(t, &buf)
	assert.Equal(t, "real", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "k", Value: 7}, Int("k", 7))
	assert.Equal(t, Field{Key: "k", Value: true}, Bool("k", true))
	assert.Equal(t, Field{Key: "latency", Value: "1.5s"}, Latency(1500*time.Millisecond))
	assert.Nil(t, Err(nil).Value)

	ts := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-15T10:00:00Z", Time("k", ts).Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelInfo, ParseLevel("desconocido"))
	assert.Equal(t, "ERROR", LevelError.String())
}
