package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "json", &buf)

	log.Debugf("hidden %d", 1)
	log.Infof("hidden %d", 2)
	log.Warnf("segment %s failed", "v1/0.m4s")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "segment v1/0.m4s failed", entry["message"])
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", "json", &buf)

	log.Debugf("dropped")
	log.Infof("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New("debug", "console", &buf).Debugf("Downloading segment %s", "a1/init.mp4")
	assert.Contains(t, buf.String(), "Downloading segment a1/init.mp4")
}
