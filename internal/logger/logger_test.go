package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("user_id", "u-1").Msg("user registered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "contratpro", entry["service"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, "user registered", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestDevelopmentLoggerIsVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("development", &buf)

	log.Debug().Msg("step changed")
	assert.Contains(t, buf.String(), "step changed")
	assert.False(t, json.Valid(buf.Bytes()))
}
