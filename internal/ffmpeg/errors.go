package ffmpeg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinels matched by the typed errors below.
var (
	ErrValidation = errors.New("invalid conversion job")
	ErrLaunch     = errors.New("ffmpeg could not be started")
	ErrProcess    = errors.New("ffmpeg exited with an error")
)

// ValidationError rejects a job before ffmpeg is spawned.
type ValidationError struct {
	Reason string
	Path   string // offending path, if any
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error        { return e.Err }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// LaunchError means the ffmpeg executable could not be started.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start ffmpeg (%s): %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error        { return e.Err }
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// ProcessError means ffmpeg ran and exited non-zero. Stderr holds its
// diagnostic output verbatim.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d\n%s", e.ExitCode, strings.TrimRight(e.Stderr, "\r\n"))
}

func (e *ProcessError) Is(target error) bool { return target == ErrProcess }

// Pre-compiled patterns for classifying ffmpeg stderr. Checked in order by
// [Diagnose]; the first match wins.
var diagnoses = []struct {
	re   *regexp.Regexp
	hint func(m []string) string
}{
	{
		regexp.MustCompile(`No such filter: '(\w+)'`),
		func(m []string) string {
			if m[1] == "zscale" {
				return "ffmpeg was built without zscale (libzimg); use --method simple or a full ffmpeg build"
			}
			return fmt.Sprintf("ffmpeg was built without the %s filter", m[1])
		},
	},
	{
		regexp.MustCompile(`Unknown encoder '(\w+)'`),
		func(m []string) string { return fmt.Sprintf("ffmpeg was built without the %s encoder", m[1]) },
	},
	{
		regexp.MustCompile(`already exists\. Exiting|Not overwriting - exiting`),
		func([]string) string { return "output exists and overwrite is disabled" },
	},
	{
		regexp.MustCompile(`(?i)lut3d.*(No such file|Error|Failed)|\.cube.*(No such file|Invalid)`),
		func([]string) string { return "the 3D LUT could not be read" },
	},
	{
		regexp.MustCompile(`Invalid data found when processing input|moov atom not found`),
		func([]string) string { return "input is not a readable video file" },
	},
	{
		regexp.MustCompile(`Permission denied`),
		func([]string) string { return "permission denied" },
	},
	{
		regexp.MustCompile(`No such file or directory`),
		func([]string) string { return "file not found" },
	},
	{
		regexp.MustCompile(`No space left on device`),
		func([]string) string { return "output disk is full" },
	},
}

// Diagnose returns a short hint for a known failure in ffmpeg's stderr, or
// "" when nothing matches.
func Diagnose(stderr string) string {
	for _, d := range diagnoses {
		if m := d.re.FindStringSubmatch(stderr); m != nil {
			return d.hint(m)
		}
	}
	return ""
}
