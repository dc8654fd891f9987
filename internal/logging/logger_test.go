package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/dlogconv/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "dlogconv.log")
	l, err := NewLogger(&cfg)
	require.NoError(t, err)

	l.Info("to file")
	l.Success("converted %s", "a.mp4")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[INFO] to file")
	assert.Contains(t, string(b), "[SUCCESS] converted a.mp4")
	assert.NotContains(t, string(b), "\x1b[", "file sink is never colored")
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("hidden")
	l.Warn("careful %d", 1)
	l.Error("broken")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] careful 1")
	assert.Contains(t, out, "[ERROR] broken")
}

func TestLogger_VerboseShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "[DEBUG] shown")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).With("job", 3).Info("started")
	assert.Contains(t, buf.String(), "job=3")
}

func TestLevelSplit(t *testing.T) {
	var out, errOut bytes.Buffer
	s := levelSplit{out: &out, err: &errOut}

	_, _ = s.WriteLevel(zerolog.InfoLevel, []byte("info\n"))
	_, _ = s.WriteLevel(zerolog.NoLevel, []byte("success\n"))
	_, _ = s.WriteLevel(zerolog.ErrorLevel, []byte("error\n"))

	assert.Equal(t, "info\nsuccess\n", out.String())
	assert.Equal(t, "error\n", errOut.String())
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("x")
	l.Success("x")
	assert.NoError(t, l.Close())
}
