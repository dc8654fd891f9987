package batch

import "math"

// Result is the settled outcome of one job. Exactly one Result exists per
// submitted job.
type Result struct {
	Input   string `json:"input" yaml:"input"`
	Output  string `json:"output" yaml:"output"`
	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FileProgressEvent reports a running job's completion percentage.
type FileProgressEvent struct {
	Index   int     `json:"index"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// JobCompletedEvent reports that the job at Index settled.
type JobCompletedEvent struct {
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	Result Result `json:"result"`
}

// EventSink receives scheduler events. The scheduler never calls a sink
// from two goroutines at once, so implementations need no locking of their
// own for state touched only by these methods.
type EventSink interface {
	FileProgress(FileProgressEvent)
	JobCompleted(JobCompletedEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) FileProgress(FileProgressEvent) {}
func (NopSink) JobCompleted(JobCompletedEvent) {}

// SinkFuncs adapts plain functions to an EventSink. Nil fields are skipped.
type SinkFuncs struct {
	OnFileProgress func(FileProgressEvent)
	OnJobCompleted func(JobCompletedEvent)
}

func (f SinkFuncs) FileProgress(e FileProgressEvent) {
	if f.OnFileProgress != nil {
		f.OnFileProgress(e)
	}
}

func (f SinkFuncs) JobCompleted(e JobCompletedEvent) {
	if f.OnJobCompleted != nil {
		f.OnJobCompleted(e)
	}
}

// MultiSink fans each event out to every non-nil sink in order.
type MultiSink []EventSink

func (m MultiSink) FileProgress(e FileProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.FileProgress(e)
		}
	}
}

func (m MultiSink) JobCompleted(e JobCompletedEvent) {
	for _, s := range m {
		if s != nil {
			s.JobCompleted(e)
		}
	}
}

// Percent converts elapsed output time into a completion percentage,
// clamped to [0, 100]. It returns false when duration is unknown (<= 0 or
// not finite).
func Percent(elapsed, duration float64) (float64, bool) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, false
	}
	p := elapsed / duration * 100
	switch {
	case math.IsNaN(p), p < 0:
		return 0, true
	case p > 100:
		return 100, true
	}
	return p, true
}
