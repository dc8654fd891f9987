// Package batch runs many conversion jobs over a bounded worker pool,
// forwards per-job progress and completion events, and settles every job
// into exactly one [Result] regardless of how its siblings fare.
package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/backmassage/dlogconv/internal/planner"
)

// ErrCanceled is the Result error for jobs that never started because the
// batch was canceled.
var ErrCanceled = errors.New("conversion canceled")

// Converter runs one job. ffmpeg.Runner satisfies it.
type Converter interface {
	Convert(ctx context.Context, job planner.Job, onProgress func(seconds float64)) (string, error)
}

// DurationProber reports a media file's duration in seconds. probe.Client
// satisfies it.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Logger is the minimal logging interface the scheduler needs.
type Logger interface {
	Warn(string, ...interface{})
	Debug(string, ...interface{})
}

// Scheduler runs batches. It holds no per-batch state; one Scheduler may
// run several batches at once.
type Scheduler struct {
	conv   Converter
	prober DurationProber
	log    Logger
}

// NewScheduler returns a Scheduler. prober may be nil, in which case no
// FileProgress events are emitted. log may be nil.
func NewScheduler(conv Converter, prober DurationProber, log Logger) *Scheduler {
	return &Scheduler{conv: conv, prober: prober, log: log}
}

// Run executes jobs with at most concurrency running at once and returns
// one Result per job, index-aligned with jobs. Values below 1 are treated
// as 1. Run never fails: job errors are recorded in their Result.
//
// sink may be nil. Its calls are serialized; for each job, FileProgress
// events precede that job's JobCompleted event.
//
// Canceling ctx interrupts running conversions and settles the jobs not
// yet started with ErrCanceled.
func (s *Scheduler) Run(ctx context.Context, jobs []planner.Job, concurrency int, sink EventSink) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	if sink == nil {
		sink = NopSink{}
	}

	workers := concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	b := &run{
		s:     s,
		ctx:   ctx,
		jobs:  jobs,
		sink:  sink,
		total: len(jobs),
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := b.claim()
				if i < 0 {
					return
				}
				results[i] = b.runJob(i)
			}
		}()
	}
	wg.Wait()
	return results
}

// run is the state shared by the workers of one Run call.
type run struct {
	s      *Scheduler
	ctx    context.Context
	jobs   []planner.Job
	total  int
	cursor atomic.Int64

	mu   sync.Mutex // serializes sink calls
	sink EventSink
}

// claim returns the next unclaimed job index, or -1 when none remain.
func (b *run) claim() int {
	i := int(b.cursor.Add(1) - 1)
	if i >= b.total {
		return -1
	}
	return i
}

func (b *run) runJob(i int) Result {
	job := b.jobs[i]

	var res Result
	if err := b.ctx.Err(); err != nil {
		res = Result{Input: job.Input, Output: job.Output, Error: ErrCanceled.Error()}
	} else {
		duration := b.duration(job.Input)
		out, err := b.s.conv.Convert(b.ctx, job, func(seconds float64) {
			pct, ok := Percent(seconds, duration)
			if !ok {
				return
			}
			b.mu.Lock()
			b.sink.FileProgress(FileProgressEvent{Index: i, Total: b.total, Percent: pct})
			b.mu.Unlock()
		})
		res = settle(job, out, err)
	}

	b.mu.Lock()
	b.sink.JobCompleted(JobCompletedEvent{Index: i, Total: b.total, Result: res})
	b.mu.Unlock()
	return res
}

// duration probes the input; failures are logged and yield 0 (unknown).
func (b *run) duration(input string) float64 {
	if b.s.prober == nil {
		return 0
	}
	d, err := b.s.prober.Duration(b.ctx, input)
	if err != nil {
		if b.s.log != nil {
			b.s.log.Warn("Cannot determine duration of %s: %v", input, err)
		}
		return 0
	}
	if b.s.log != nil {
		b.s.log.Debug("Duration of %s: %.2fs", input, d)
	}
	return d
}

// settle normalizes a conversion outcome into a Result.
func settle(job planner.Job, out string, err error) Result {
	if err != nil {
		return Result{Input: job.Input, Output: job.Output, Error: err.Error()}
	}
	if out == "" {
		out = job.Output
	}
	return Result{Input: job.Input, Output: out, Success: true}
}
