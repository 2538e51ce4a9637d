package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupWriterProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "production", "info")
	Log.Info("task finished", "task", 7)

	assert.Contains(t, buf.String(), `"msg":"task finished"`)
	assert.Contains(t, buf.String(), `"task":7`)
}

func TestSetupWriterFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "development", "warn")
	Log.Info("hidden")
	Log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
