// Package check provides system diagnostics (the check command) and
// pre-batch dependency validation (CheckDeps) for ffmpeg, ffprobe, the
// libx264/aac encoders and the zscale/lut3d filters.
package check

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/ffmpeg"
	"github.com/backmassage/dlogconv/internal/planner"
)

// Sentinel errors returned by CheckDeps when a required tool, encoder or
// filter is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
	ErrEncoderMissing  = errors.New("required encoder missing from ffmpeg build")
	ErrFilterMissing   = errors.New("required filter missing from ffmpeg build")
)

// probeTimeout bounds each diagnostic ffmpeg invocation.
const probeTimeout = 20 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck prints availability of ffmpeg and ffprobe, the encoders and
// filters conversions use, and runs a short test encode through the
// configured color transform. It reports whether everything needed by cfg
// is present.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("Checking ffmpeg toolchain")

	ok := checkVersion(ctx, cfg.FFmpegPath, "ffmpeg", log)
	ok = checkVersion(ctx, cfg.FFprobePath, "ffprobe", log) && ok
	if !ok {
		return false
	}

	encoders, err := listCapabilities(ctx, cfg.FFmpegPath, "-encoders")
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return false
	}
	for _, name := range requiredEncoders() {
		if encoders[name] {
			log.Success("encoder %s available", name)
		} else {
			log.Error("encoder %s missing", name)
			ok = false
		}
	}

	filters, err := listCapabilities(ctx, cfg.FFmpegPath, "-filters")
	if err != nil {
		log.Warn("Could not list filters: %v", err)
		return false
	}
	for _, name := range []string{"zscale", "lut3d"} {
		switch {
		case filters[name]:
			log.Success("filter %s available", name)
		case needsFilter(cfg, name):
			log.Error("filter %s missing", name)
			ok = false
		default:
			log.Warn("filter %s missing (not needed by current settings)", name)
		}
	}
	if !ok {
		return false
	}

	log.Info("Testing %s transform...", cfg.Method)
	if err := testEncode(ctx, cfg); err != nil {
		log.Error("Test encode failed: %v", err)
		return false
	}
	log.Success("Test encode works")
	return true
}

// CheckDeps is the pre-batch validation: ffmpeg and ffprobe must run, and
// the ffmpeg build must carry the encoders and the filter the configured
// method needs. Returns a sentinel error (wrapped with detail) on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegPath)
	}
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, cfg.FFprobePath)
	}

	encoders, err := listCapabilities(ctx, cfg.FFmpegPath, "-encoders")
	if err != nil {
		return fmt.Errorf("list encoders: %w", err)
	}
	for _, name := range requiredEncoders() {
		if !encoders[name] {
			return fmt.Errorf("%w: %s", ErrEncoderMissing, name)
		}
	}

	filters, err := listCapabilities(ctx, cfg.FFmpegPath, "-filters")
	if err != nil {
		return fmt.Errorf("list filters: %w", err)
	}
	for _, name := range []string{"zscale", "lut3d"} {
		if needsFilter(cfg, name) && !filters[name] {
			return fmt.Errorf("%w: %s", ErrFilterMissing, name)
		}
	}
	return nil
}

func requiredEncoders() []string {
	return []string{ffmpeg.VideoCodec, ffmpeg.AudioCodec}
}

// needsFilter reports whether conversions under cfg use the named filter.
func needsFilter(cfg *config.Config, name string) bool {
	switch name {
	case "lut3d":
		return cfg.LUT != ""
	case "zscale":
		return cfg.LUT == "" && cfg.Method != config.MethodSimple
	}
	return false
}

// checkVersion runs "<bin> -version" and logs its first line.
func checkVersion(ctx context.Context, bin, name string, log Logger) bool {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error("%s not found (%s)", name, bin)
		return false
	}
	out, err := output(ctx, bin, "-version")
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return false
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", name, firstLine)
	log.Debug("%s path: %s", name, bin)
	return true
}

// listCapabilities parses "ffmpeg -hide_banner -encoders" (or -filters)
// into a set of names. Both listings put the name in the second column
// after a legend terminated by a dashed line.
func listCapabilities(ctx context.Context, bin, flag string) (map[string]bool, error) {
	out, err := output(ctx, bin, "-hide_banner", flag)
	if err != nil {
		return nil, err
	}
	return parseCapabilities(out), nil
}

func parseCapabilities(out []byte) map[string]bool {
	names := make(map[string]bool)
	inBody := !bytes.Contains(out, []byte("---"))
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !inBody {
			inBody = strings.HasPrefix(line, "---")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			names[fields[1]] = true
		}
	}
	return names
}

// testEncode pushes a tiny synthetic clip through the configured transform
// and encoders, discarding the output.
func testEncode(ctx context.Context, cfg *config.Config) error {
	vf := planner.BuildFilter(cfg.Method, cfg.DLogVariant, cfg.LUT) + "," + planner.DownstreamChain
	_, err := output(ctx, cfg.FFmpegPath,
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-vf", vf,
		"-c:v", ffmpeg.VideoCodec, "-c:a", ffmpeg.AudioCodec,
		"-f", "null", "-",
	)
	return err
}

// output runs a command and returns its stdout. On failure the error
// carries the tail of stderr.
func output(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return out, err
	}
	return out, nil
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
