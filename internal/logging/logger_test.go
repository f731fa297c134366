package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTo_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTo(&buf, slog.LevelInfo, "text")
	logger.Info("failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "error=")
}

func TestNewTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTo(&buf, slog.LevelDebug, "JSON")
	logger.Debug("step", "block", "Physics.Impulse")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step", entry["msg"])
	assert.Equal(t, "Physics.Impulse", entry["block"])
}

func TestNewTo_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTo(&buf, slog.LevelWarn, "text")
	logger.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
