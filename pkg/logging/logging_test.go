package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "text").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("chatty", "text").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("", "").GetLevel())
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", "JSON")
	log.WithField("symbol", "VNM").Info("report generated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "VNM", entry["symbol"])
	assert.Equal(t, "report generated", entry["msg"])
}
