package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf).
		WithComponent("ingestor").
		WithRequestID("req-1").
		WithTopic("temp/1").
		WithSensor("s-1").
		WithFields(map[string]interface{}{"attempt": 2}).
		WithError(errors.New("boom"))

	log.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ingestor", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "temp/1", entry["topic"])
	assert.Equal(t, "s-1", entry["sensor_id"])
	assert.EqualValues(t, 2, entry["attempt"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNopLoggerDiscards(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.WithComponent("x").Error().Msg("ignored")
	})
}
