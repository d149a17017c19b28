package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestSetup_JSONWithComponent(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	Setup(Config{Level: "warn", Format: "json", Output: &buf})

	logger := NewLogger("delivery")
	logger.Info().Msg("filtered out")
	logger.Warn().Str("slug", "on-publish").Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "delivery", entry["component"])
	assert.Equal(t, "on-publish", entry["slug"])
	assert.Contains(t, entry, "time")
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	restoreGlobals(t)
	Setup(Config{Level: "chatty", Output: &bytes.Buffer{}})

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetup_Pretty(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	Setup(Config{Level: "info", Format: "pretty", Output: &buf})

	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
