package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/backmassage/dlogconv/internal/planner"
)

// DefaultWaitDelay is how long a canceled ffmpeg gets to finish writing
// before it is killed.
const DefaultWaitDelay = 5 * time.Second

// Runner runs one ffmpeg process per Convert call. A Runner holds no
// per-job state and may be shared by concurrent workers.
type Runner struct {
	// FFmpegPath is the executable; empty means "ffmpeg" on PATH.
	FFmpegPath string
	// WaitDelay bounds the wait after an interrupt; zero means DefaultWaitDelay.
	WaitDelay time.Duration
	// Stderr, when set, receives a live copy of ffmpeg's stderr.
	Stderr io.Writer
}

// NewRunner returns a Runner for the given ffmpeg executable.
func NewRunner(ffmpegPath string) *Runner {
	return &Runner{FFmpegPath: ffmpegPath}
}

func (r *Runner) bin() string {
	if r.FFmpegPath == "" {
		return "ffmpeg"
	}
	return r.FFmpegPath
}

func (r *Runner) waitDelay() time.Duration {
	if r.WaitDelay <= 0 {
		return DefaultWaitDelay
	}
	return r.WaitDelay
}

// Validate checks a job's preconditions without spawning anything: both
// paths set, input present, LUT present when one is configured.
func Validate(j planner.Job) error {
	if j.Input == "" || j.Output == "" {
		return &ValidationError{Reason: "input and output paths are required"}
	}
	if _, err := os.Stat(j.Input); err != nil {
		return &ValidationError{Reason: "input file does not exist", Path: j.Input}
	}
	if j.Config.LUT != "" {
		if _, err := os.Stat(j.Config.LUT); err != nil {
			return &ValidationError{Reason: "LUT file does not exist", Path: j.Config.LUT}
		}
	}
	return nil
}

// Convert runs ffmpeg for j and returns the output path on success.
// onProgress, if non-nil, is called from the calling goroutine with the
// elapsed output time in seconds each time ffmpeg reports it.
//
// Canceling ctx interrupts ffmpeg, removes the partial output and returns
// an error wrapping ctx.Err(). A run that already exited 0 keeps its output.
func (r *Runner) Convert(ctx context.Context, j planner.Job, onProgress func(seconds float64)) (string, error) {
	if err := Validate(j); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(j.Output), 0o755); err != nil {
		return "", &ValidationError{Reason: "cannot create output directory", Path: filepath.Dir(j.Output), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("convert %s: %w", j.Input, err)
	}
	_, statErr := os.Stat(j.Output)
	preexisting := statErr == nil

	cmd := exec.CommandContext(ctx, r.bin(), BuildArgs(j)...)
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.waitDelay()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", &LaunchError{Binary: r.bin(), Err: err}
	}
	if err := cmd.Start(); err != nil {
		return "", &LaunchError{Binary: r.bin(), Err: err}
	}

	var captured bytes.Buffer
	var src io.Reader = io.TeeReader(stderr, &captured)
	if r.Stderr != nil {
		src = io.TeeReader(src, r.Stderr)
	}
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanStatusLines)
	for scanner.Scan() {
		if sec, ok := ParseProgressTime(scanner.Text()); ok && onProgress != nil {
			onProgress(sec)
		}
	}
	// Drain whatever the scanner left (e.g. an over-long line) so Wait
	// sees EOF and the captured text is complete.
	_, _ = io.Copy(io.Discard, src)

	waitErr := cmd.Wait()
	if waitErr == nil {
		return j.Output, nil
	}

	if ctx.Err() != nil {
		if !preexisting || j.Config.Overwrite {
			_ = os.Remove(j.Output)
		}
		return "", fmt.Errorf("convert %s: %w", j.Input, ctx.Err())
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code = exitErr.ExitCode()
	}
	return "", &ProcessError{ExitCode: code, Stderr: captured.String()}
}
