package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	l := NewIsolatedLogger(path)

	l.Info("EventAudit", "quiz completed", map[string]interface{}{"session_id": "s1"})
	l.Debug("EventAudit", "below file level", nil)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"quiz completed"`)
	assert.Contains(t, string(data), `"module":"EventAudit"`)
	assert.Contains(t, string(data), `"session_id":"s1"`)
	assert.NotContains(t, string(data), "below file level")
}

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	var l ILogger = NewNopLogger()
	assert.NotPanics(t, func() {
		l.Error("Test", "boom", nil)
		l.Warn("Test", "careful", map[string]interface{}{"error": "x"})
	})
}
