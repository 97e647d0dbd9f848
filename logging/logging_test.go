package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	c "lautenbacher.net/gofeeder/config"
)

func TestTUIMode(t *testing.T) {
	require.NoError(t, Init(c.LogConfig{Level: "DEBUG", Format: "text"}, true))

	slog.Info("Initial log")

	var tuiPane bytes.Buffer
	require.NoError(t, SetOutput(&tuiPane))
	assert.Contains(t, tuiPane.String(), "Initial log", "buffered log should be flushed to the TUI")

	slog.Info("Live log")
	assert.Contains(t, tuiPane.String(), "Live log")

	BufferOutput()
	slog.Info("Buffered log")
	assert.NotContains(t, tuiPane.String(), "Buffered log", "log should be buffered, not written")

	require.NoError(t, SetOutput(&tuiPane))
	assert.Contains(t, tuiPane.String(), "Buffered log")

	require.NoError(t, Close())
}

func TestHWMode_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	require.NoError(t, Init(c.LogConfig{Level: "INFO", Format: "json", File: logFile}, false))

	slog.Info("RPI log", "key", "value")
	slog.Debug("hidden")

	require.NoError(t, Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"RPI log"`)
	assert.Contains(t, string(content), `"key":"value"`)
	assert.NotContains(t, string(content), "hidden", "debug lines are below the INFO level")
}

func TestTUIMode_FileGetsEveryLineOnce(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "tui.log")
	require.NoError(t, Init(c.LogConfig{Level: "INFO", Format: "text", File: logFile}, true))

	slog.Info("Before first draw")
	require.NoError(t, SetOutput(&bytes.Buffer{}))
	BufferOutput()
	slog.Info("During reload")
	require.NoError(t, SetOutput(&bytes.Buffer{}))
	require.NoError(t, Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "Before first draw"))
	assert.Equal(t, 1, strings.Count(string(content), "During reload"))
}

func TestInit_BadFile(t *testing.T) {
	err := Init(c.LogConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")}, false)
	assert.Error(t, err)
}

func TestStderrFallback(t *testing.T) {
	require.NoError(t, Init(c.LogConfig{Level: "DEBUG", Format: "text"}, true))

	slog.Info("Shutdown log")

	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	var wg sync.WaitGroup
	wg.Add(1)
	var capturedOutput string
	go func() {
		defer wg.Done()
		buf := make([]byte, 1024)
		n, _ := r.Read(buf)
		capturedOutput = string(buf[:n])
	}()

	closeErr := Close()
	w.Close()
	wg.Wait()
	os.Stderr = oldStderr

	require.NoError(t, closeErr)
	assert.True(t, strings.Contains(capturedOutput, "Shutdown log"), "got: %s", capturedOutput)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
