package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/display"
	"github.com/backmassage/dlogconv/internal/ffmpeg"
	"github.com/backmassage/dlogconv/internal/logging"
)

// stderrTailLines is how much ffmpeg output is logged for a failed job.
const stderrTailLines = 20

// ConsoleSink logs batch events: one line per 10% step of each job and one
// per settled job. It relies on the scheduler serializing its calls.
type ConsoleSink struct {
	log    *logging.Logger
	decile map[int]int // last logged 10% step per job index
}

// NewConsoleSink returns a ConsoleSink writing to log.
func NewConsoleSink(log *logging.Logger) *ConsoleSink {
	return &ConsoleSink{log: log, decile: make(map[int]int)}
}

func (c *ConsoleSink) FileProgress(e batch.FileProgressEvent) {
	step := int(e.Percent) / 10
	if step <= c.decile[e.Index] {
		return
	}
	c.decile[e.Index] = step
	c.log.Info("[%d/%d] %s", e.Index+1, e.Total, display.ProgressBar(e.Percent, 20))
}

func (c *ConsoleSink) JobCompleted(e batch.JobCompletedEvent) {
	delete(c.decile, e.Index)
	r := e.Result
	name := filepath.Base(r.Input)
	if r.Success {
		c.log.Success("[%d/%d] %s -> %s", e.Index+1, e.Total, name, r.Output)
		return
	}

	first, rest, _ := strings.Cut(r.Error, "\n")
	c.log.Error("[%d/%d] %s failed: %s", e.Index+1, e.Total, name, first)
	if hint := ffmpeg.Diagnose(r.Error); hint != "" {
		c.log.Warn("  Hint: %s", hint)
	}
	logStderr(c.log, rest)
}

// logStderr logs the last lines of ffmpeg's diagnostic output at debug
// level.
func logStderr(log *logging.Logger, stderr string) {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return
	}
	log.Debug("Last ffmpeg output:")
	lines := strings.Split(stderr, "\n")
	start := 0
	if len(lines) > stderrTailLines {
		start = len(lines) - stderrTailLines
	}
	for _, l := range lines[start:] {
		log.Debug("  %s", strings.TrimRight(l, "\r"))
	}
}

func (s *Service) logSummary(resp Response) {
	sum := resp.Summary
	s.log.Info("==============================")
	s.log.Info("Done: %d converted, %d failed, %d total", sum.Success, sum.Failed, sum.Total)
	if sizes := MeasureSizes(resp.Results); sizes.InputBytes > 0 {
		s.log.Info("  Output size: %s (input %s, %d%%)",
			display.FormatBytes(sizes.OutputBytes),
			display.FormatBytes(sizes.InputBytes),
			sizes.Ratio())
	}
	if resp.Elapsed > 0 {
		s.log.Info("  Elapsed: %s", display.FormatSeconds(resp.Elapsed))
	}
	if sum.OK() {
		s.log.Success("All files converted")
	} else {
		s.log.Warn("%d file(s) failed", sum.Failed)
	}
}
