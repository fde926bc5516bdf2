package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsBeforeInit(t *testing.T) {
	saved := log
	log = nil
	defer func() { log = saved }()

	assert.NotPanics(t, func() {
		WithFields(Fields{"seq": 1}).Info("dropped")
		Debug("dropped")
		Warnf("dropped %d", 1)
	})
}

func TestJSONOutput(t *testing.T) {
	saved := log
	defer func() { log = saved }()

	require.NoError(t, InitWithOutput("debug", "json", "stderr"))
	var buf bytes.Buffer
	SetOutput(&buf)

	WithFields(Fields{"round": 2, "state": "revising"}).Warn("rejected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "rejected", entry["msg"])
	assert.Equal(t, "revising", entry["state"])
	assert.EqualValues(t, 2, entry["round"])
}

func TestLevelFilter(t *testing.T) {
	saved := log
	defer func() { log = saved }()

	require.NoError(t, Init("warn", "text"))
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
