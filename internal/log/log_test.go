package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeoracle/internal/config"
)

func restore(t *testing.T) {
	prev, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(level)
	})
}

func TestSetupJSON(t *testing.T) {
	restore(t)
	var buf bytes.Buffer

	closer, err := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Msg("hidden")
	log.Info().Str("candidate", "OpenAI").Msg("visible")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), buf.String())
	assert.Equal(t, "visible", line["message"])
	assert.Equal(t, "OpenAI", line["candidate"])
	assert.Contains(t, line, "time")
}

func TestSetupPretty(t *testing.T) {
	restore(t)
	var buf bytes.Buffer

	closer, err := Setup(config.LoggingConfig{Level: "debug", Format: "pretty"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Warn().Msg("pass degraded")
	assert.Contains(t, buf.String(), "pass degraded")
	assert.Contains(t, buf.String(), "WRN")
}

func TestSetupFile(t *testing.T) {
	restore(t)
	path := filepath.Join(t.TempDir(), "logs", "vibeoracle.log")

	closer, err := Setup(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}, &bytes.Buffer{})
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestSetupRejectsLevel(t *testing.T) {
	restore(t)
	_, err := Setup(config.LoggingConfig{Level: "loud", Format: "json"}, nil)
	assert.ErrorContains(t, err, "invalid log level")
}
