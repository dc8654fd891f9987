package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/dlogconv/internal/config"
)

const encodersListing = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`

const filtersListing = `Filters:
  T.. = Timeline support
  | = Source or sink filter
 T.C lut3d             V->V       Adjust colors using a 3D LUT.
 ... scale             V->V       Scale the input video size.
`

// fakeFFmpeg writes a script answering -version, -encoders and -filters.
// zscale is added to the filter listing when withZscale is set; any other
// invocation (the test encode) exits with encodeExit.
func fakeFFmpeg(t *testing.T, withZscale bool, encodeExit int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	filters := filtersListing
	if withZscale {
		filters += " ..C zscale            V->V       Apply resizing, colorspace and bit depth conversion.\n"
	}
	dir := t.TempDir()
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
  *-version*) echo "ffmpeg version 7.0 Copyright (c) 2000-2024"; exit 0 ;;
  *-encoders*) cat <<'EOF'
%sEOF
  exit 0 ;;
  *-filters*) cat <<'EOF'
%sEOF
  exit 0 ;;
esac
echo "encode failed" >&2
exit %d
`, encodersListing, filters, encodeExit)
	path := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	probe := filepath.Join(dir, "ffprobe")
	require.NoError(t, os.WriteFile(probe, []byte("#!/bin/sh\necho ffprobe version 7.0\n"), 0o755))
	return path
}

func testConfig(ffmpegBin string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.FFmpegPath = ffmpegBin
	cfg.FFprobePath = filepath.Join(filepath.Dir(ffmpegBin), "ffprobe")
	return &cfg
}

type recordingLogger struct{ lines []string }

func (r *recordingLogger) add(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}
func (r *recordingLogger) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recordingLogger) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recordingLogger) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recordingLogger) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }
func (r *recordingLogger) Debug(f string, a ...interface{})   { r.add("DEBUG", f, a...) }

func (r *recordingLogger) String() string { return strings.Join(r.lines, "\n") }

func TestParseCapabilities(t *testing.T) {
	enc := parseCapabilities([]byte(encodersListing))
	assert.True(t, enc["libx264"])
	assert.True(t, enc["aac"])
	assert.False(t, enc["="], "legend lines are skipped")

	flt := parseCapabilities([]byte(filtersListing))
	assert.True(t, flt["lut3d"])
	assert.True(t, flt["scale"])
	assert.False(t, flt["zscale"])
}

func TestNeedsFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.True(t, needsFilter(&cfg, "zscale"))
	assert.False(t, needsFilter(&cfg, "lut3d"))

	cfg.Method = config.MethodSimple
	assert.False(t, needsFilter(&cfg, "zscale"))

	cfg.Method = config.MethodAdvanced
	cfg.LUT = "/luts/dlogm.cube"
	assert.False(t, needsFilter(&cfg, "zscale"))
	assert.True(t, needsFilter(&cfg, "lut3d"))
}

func TestCheckDeps(t *testing.T) {
	ctx := context.Background()

	t.Run("all present", func(t *testing.T) {
		require.NoError(t, CheckDeps(ctx, testConfig(fakeFFmpeg(t, true, 0))))
	})

	t.Run("zscale missing for advanced", func(t *testing.T) {
		err := CheckDeps(ctx, testConfig(fakeFFmpeg(t, false, 0)))
		assert.ErrorIs(t, err, ErrFilterMissing)
		assert.Contains(t, err.Error(), "zscale")
	})

	t.Run("zscale not needed for simple", func(t *testing.T) {
		cfg := testConfig(fakeFFmpeg(t, false, 0))
		cfg.Method = config.MethodSimple
		assert.NoError(t, CheckDeps(ctx, cfg))
	})

	t.Run("ffmpeg not found", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.FFmpegPath = filepath.Join(t.TempDir(), "no-ffmpeg")
		assert.ErrorIs(t, CheckDeps(ctx, &cfg), ErrFFmpegNotFound)
	})

	t.Run("ffprobe not found", func(t *testing.T) {
		cfg := testConfig(fakeFFmpeg(t, true, 0))
		cfg.FFprobePath = filepath.Join(t.TempDir(), "no-ffprobe")
		assert.ErrorIs(t, CheckDeps(ctx, cfg), ErrFFprobeNotFound)
	})
}

func TestRunCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		log := &recordingLogger{}
		assert.True(t, RunCheck(ctx, testConfig(fakeFFmpeg(t, true, 0)), log))
		out := log.String()
		assert.Contains(t, out, "SUCCESS ffmpeg: ffmpeg version 7.0")
		assert.Contains(t, out, "SUCCESS encoder libx264 available")
		assert.Contains(t, out, "SUCCESS filter zscale available")
		assert.Contains(t, out, "SUCCESS Test encode works")
	})

	t.Run("test encode fails", func(t *testing.T) {
		log := &recordingLogger{}
		assert.False(t, RunCheck(ctx, testConfig(fakeFFmpeg(t, true, 1)), log))
		assert.Contains(t, log.String(), "ERROR Test encode failed")
		assert.Contains(t, log.String(), "encode failed")
	})

	t.Run("missing filter only warns when unused", func(t *testing.T) {
		log := &recordingLogger{}
		cfg := testConfig(fakeFFmpeg(t, false, 0))
		cfg.Method = config.MethodSimple
		assert.True(t, RunCheck(ctx, cfg, log))
		assert.Contains(t, log.String(), "WARN filter zscale missing (not needed by current settings)")
	})
}
