package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Release(t *testing.T) {
	t.Setenv("GIN_MODE", "release")

	var buf bytes.Buffer
	l := New(&buf)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.WithField("userID", "user-1").Info("order settled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order settled", entry["msg"])
	assert.Equal(t, "user-1", entry["userID"])
}

func TestNew_Development(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")

	l := New(&bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, new(logrus.TextFormatter), l.Formatter)
}

func TestNew_WithLevel(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")

	l := New(&bytes.Buffer{}, WithLevel(logrus.WarnLevel))
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
}
