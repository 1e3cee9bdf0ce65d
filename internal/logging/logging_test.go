package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", "json", &buf)
	require.NoError(t, err)

	l.With("component", "worker").Info("task finished", "task", "logs", "deleted", 3)
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "task finished", rec["msg"])
	assert.Equal(t, "worker", rec["component"])
	assert.Equal(t, "logs", rec["task"])
	assert.EqualValues(t, 3, rec["deleted"])
}

func TestSetLevel_AppliesToDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("error", "text", &buf)
	require.NoError(t, err)

	child := l.With("component", "scheduler")
	child.Info("before")
	assert.Empty(t, buf.String())

	require.NoError(t, l.SetLevel("debug"))
	child.Debug("after")
	assert.Contains(t, buf.String(), "after")
	assert.Contains(t, buf.String(), "component=scheduler")
}

func TestNew_Rejects(t *testing.T) {
	_, err := New("loud", "text", nil)
	assert.Error(t, err)

	_, err = New("info", "xml", nil)
	assert.Error(t, err)
}
