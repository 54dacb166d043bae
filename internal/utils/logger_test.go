package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level string) (*Logger, string) {
	t.Helper()
	tmpDir := t.TempDir()
	logger, err := NewLogger(&LogCfg{
		LogLevel: level,
		LogDir:   tmpDir,
		LogFile:  "test.log",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })
	return logger, filepath.Join(tmpDir, "test.log")
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestNewLogger_DefaultFileName(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &LogCfg{LogDir: tmpDir}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "server.log", cfg.LogFile)
	_, err = os.Stat(filepath.Join(tmpDir, "server.log"))
	assert.NoError(t, err)
}

func TestLogger_Info(t *testing.T) {
	logger, path := newTestLogger(t, "info")

	logger.Info("test info message")

	assert.Contains(t, readLog(t, path), "test info message")
}

func TestLogger_DebugFilteredAtInfo(t *testing.T) {
	logger, path := newTestLogger(t, "info")

	logger.Debug("hidden debug message")
	logger.Info("visible message")

	content := readLog(t, path)
	assert.NotContains(t, content, "hidden debug message")
	assert.Contains(t, content, "visible message")
}

func TestLogger_LevelIsCaseInsensitive(t *testing.T) {
	logger, path := newTestLogger(t, "DEBUG")

	logger.Debug("debug message")

	assert.Contains(t, readLog(t, path), "debug message")
}

func TestLogger_FormatArgs(t *testing.T) {
	logger, path := newTestLogger(t, "info")

	logger.Warn("upload of %d bytes rejected", 42)

	assert.Contains(t, readLog(t, path), "upload of 42 bytes rejected")
}

func TestLogger_StructuredFields(t *testing.T) {
	logger, path := newTestLogger(t, "info")

	logger.InfoFields("request finished", map[string]interface{}{
		"status": 200,
		"path":   "/health",
	})

	content := readLog(t, path)
	assert.Contains(t, content, `"status":200`)
	assert.Contains(t, content, `"path":"/health"`)
}

func TestLogger_FieldsKeepPercentVerbatim(t *testing.T) {
	logger, path := newTestLogger(t, "info")

	logger.WarnFields("cpu at 95% of quota", map[string]interface{}{"node": "a"})
	logger.DebugFields("below level", map[string]interface{}{"node": "b"})

	content := readLog(t, path)
	assert.Contains(t, content, "cpu at 95% of quota")
	assert.NotContains(t, content, "%!")
	assert.Contains(t, content, `"node":"a"`)
	assert.NotContains(t, content, "below level")
}

func TestLogger_FieldsNilSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.InfoFields("ignored", map[string]interface{}{"k": 1})
	})
}

func TestLogger_TagHelpers(t *testing.T) {
	logger, path := newTestLogger(t, "debug")

	logger.InfoTag("HTTP", "listening on %s", ":8000")
	logger.ErrorTag("Model", "call failed")

	content := readLog(t, path)
	assert.Contains(t, content, "[HTTP] listening on :8000")
	assert.Contains(t, content, "[Model] call failed")
}

func TestLogger_CloseTwice(t *testing.T) {
	logger, _ := newTestLogger(t, "info")

	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestLogger_NilReceiver(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("nothing")
		logger.ErrorTag("HTTP", "nothing")
	})
}

func TestLogger_CleanOldLogs(t *testing.T) {
	logger, path := newTestLogger(t, "info")
	dir := filepath.Dir(path)

	old := time.Now().AddDate(0, 0, -(LogRetentionDays + 2)).Format("2006-01-02")
	recent := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	oldFile := filepath.Join(dir, "test-"+old+".log")
	recentFile := filepath.Join(dir, "test-"+recent+".log")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(recentFile, []byte("recent"), 0o644))

	logger.cleanOldLogs()

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(recentFile)
	assert.NoError(t, err)
}

func TestFormatLog(t *testing.T) {
	assert.Equal(t, "[HTTP] ready", FormatLog("HTTP", "ready"))
	assert.Equal(t, "ready", FormatLog("", " ready "))
	assert.Equal(t, "[Model] already tagged", FormatLog("HTTP", "[Model] already tagged"))
}

func TestSafeLogValue(t *testing.T) {
	assert.Equal(t, "meal photo.jpg", SafeLogValue("meal\nphoto.jpg\x00", 0))
	got := SafeLogValue(strings.Repeat("a", 20), 5)
	assert.Equal(t, "aaaaa...", got)
}

func TestMinDuration(t *testing.T) {
	assert.Equal(t, time.Second, MinDuration(time.Second, 2*time.Second))
	assert.Equal(t, time.Second, MinDuration(0, time.Second))
	assert.Equal(t, time.Second, MinDuration(time.Second, 0))
}
