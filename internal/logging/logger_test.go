package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.toSlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.toSlogLevel())
	assert.Equal(t, slog.LevelInfo, Level(-1).toSlogLevel())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Service: "test"})
	logger.Info("solved", "roots", 2)

	out := buf.String()
	assert.Contains(t, out, "msg=solved")
	assert.Contains(t, out, "roots=2")
	assert.Contains(t, out, "service=test")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, JSON: true})
	logger.Warn("slow sample", "points", 500)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "slow sample", rec["msg"])
	assert.EqualValues(t, 500, rec["points"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: LevelWarn})
	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Error("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Quiet: true})
	logger.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, LogDir: dir, Service: "cli"})
	logger.Info("to both", "k", "v")
	require.NoError(t, logger.Close())

	name := "cli_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "to both", rec["msg"])
	assert.Equal(t, "cli", rec["service"])
	assert.Contains(t, buf.String(), "to both")
}

func TestNew_WithLogDir_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	var buf bytes.Buffer
	logger := New(Config{Output: &buf, LogDir: filepath.Join(blocker, "logs")})
	logger.Info("still logs")
	assert.Nil(t, logger.file)
	assert.Contains(t, buf.String(), "still logs")
	assert.NoError(t, logger.Close())
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})
	child := logger.With("command", "solve")
	child.Info("done")

	assert.Contains(t, buf.String(), "command=solve")
}

func TestLogger_Slog(t *testing.T) {
	logger := Nop()
	require.NotNil(t, logger.Slog())
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestLogger_ConcurrentUse(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := New(Config{Output: &lockedWriter{mu: &mu, w: &buf}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("worker", "n", n)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, strings.Count(buf.String(), "msg=worker"))
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
