package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info", FormatJSON)
	require.NoError(t, err)

	For(l, ComponentGraph).Info("followed", zap.String("target", "bob"))
	l.Debug("dropped")
	require.NoError(t, l.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "followed", line["msg"])
	assert.Equal(t, "graph", line["component"])
	assert.Equal(t, "bob", line["target"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "", "")
	require.NoError(t, err)

	l.Warn("breaker open")
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "breaker open")
}

func TestNewWithWriter_Rejects(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)

	_, err = NewWithWriter(&bytes.Buffer{}, "nope", FormatJSON)
	assert.Error(t, err)
}

func TestFor_Nil(t *testing.T) {
	assert.NotNil(t, For(nil, ComponentStore))
}
