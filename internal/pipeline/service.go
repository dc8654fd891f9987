package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/logging"
	"github.com/backmassage/dlogconv/internal/naming"
	"github.com/backmassage/dlogconv/internal/planner"
)

// LockFile is created in the output directory while a batch runs.
const LockFile = ".dlogconv.lock"

// Batch-level errors. They are returned before any job starts.
var (
	ErrNoInputs     = errors.New("no input files")
	ErrNoOutputDir  = errors.New("no output directory")
	ErrOutputLocked = errors.New("output directory is in use by another batch")
	// ErrInvalidRequest wraps rejected request options (method, preset, crf).
	ErrInvalidRequest = errors.New("invalid request")
)

// Request describes one batch. Zero fields take the service's config
// defaults; CRF and Overwrite are pointers because their zero values are
// meaningful.
type Request struct {
	InputFiles  []string           `json:"inputFiles" yaml:"inputFiles"`
	OutputDir   string             `json:"outputDir" yaml:"outputDir"`
	Method      config.Method      `json:"method,omitempty" yaml:"method,omitempty"`
	DLogVariant config.DLogVariant `json:"dlogType,omitempty" yaml:"dlogType,omitempty"`
	LUT         string             `json:"lutPath,omitempty" yaml:"lutPath,omitempty"`
	Concurrency int                `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Preset      string             `json:"preset,omitempty" yaml:"preset,omitempty"`
	CRF         *int               `json:"crf,omitempty" yaml:"crf,omitempty"`
	Overwrite   *bool              `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
}

// Response is the outcome of a batch. Success is true only when every job
// succeeded.
type Response struct {
	Success bool           `json:"success" yaml:"success"`
	Results []batch.Result `json:"results,omitempty" yaml:"results,omitempty"`
	Summary batch.Summary  `json:"summary" yaml:"summary"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed float64        `json:"elapsedSeconds,omitempty" yaml:"elapsedSeconds,omitempty"`
}

// NewResponse folds results into a Response.
func NewResponse(results []batch.Result) Response {
	sum := batch.Summarize(results)
	return Response{Success: sum.OK(), Results: results, Summary: sum}
}

// ErrorResponse is the Response for a batch rejected before any job ran.
func ErrorResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Service runs batches. It is safe for concurrent use; batches that target
// the same output directory are serialized by the directory lock (the
// second one fails with ErrOutputLocked).
type Service struct {
	cfg   *config.Config
	sched *batch.Scheduler
	log   *logging.Logger
}

// NewService wires a Service from its collaborators.
func NewService(cfg *config.Config, conv batch.Converter, prober batch.DurationProber, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		cfg:   cfg,
		sched: batch.NewScheduler(conv, prober, log),
		log:   log,
	}
}

// plan is a validated batch ready to run.
type plan struct {
	jobs        []planner.Job
	concurrency int
	outputDir   string
	lock        *flock.Flock
}

func (p *plan) release() {
	if p.lock != nil {
		_ = p.lock.Unlock()
	}
}

// Convert runs req to completion. sink, if non-nil, receives every event in
// addition to the console log. The error is non-nil only when the batch was
// rejected before any job started; job failures are reported in the
// Response.
func (s *Service) Convert(ctx context.Context, req Request, sink batch.EventSink) (Response, error) {
	p, err := s.prepare(req)
	if err != nil {
		return ErrorResponse(err), err
	}
	defer p.release()

	start := time.Now()
	results := s.sched.Run(ctx, p.jobs, p.concurrency, batch.MultiSink{NewConsoleSink(s.log), sink})
	resp := NewResponse(results)
	resp.Elapsed = time.Since(start).Seconds()

	s.logSummary(resp)
	return resp, nil
}

// Start runs req in the background and returns its event stream. The
// output directory lock is released when the last job settles.
func (s *Service) Start(ctx context.Context, req Request, sink batch.EventSink) (*batch.Stream, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	st := s.sched.Start(ctx, p.jobs, p.concurrency, batch.MultiSink{NewConsoleSink(s.log), sink})
	go func() {
		<-st.Done()
		p.release()
		s.logSummary(NewResponse(st.Wait()))
	}()
	return st, nil
}

// Plan expands req into the jobs it would run, without locking or creating
// anything. Used for dry runs and by the transports to report totals.
func (s *Service) Plan(req Request) ([]planner.Job, error) {
	inputs, err := ExpandInputs(req.InputFiles)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	outputDir := s.outputDir(req)
	if outputDir == "" {
		return nil, ErrNoOutputDir
	}

	jc, err := s.jobConfig(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	resolver := naming.NewCollisionResolver()
	jobs := make([]planner.Job, len(inputs))
	for i, in := range inputs {
		out := resolver.Resolve(in, naming.OutputPath(in, outputDir))
		jobs[i] = planner.NewJob(in, out, jc)
	}
	return jobs, nil
}

func (s *Service) prepare(req Request) (*plan, error) {
	jobs, err := s.Plan(req)
	if err != nil {
		return nil, err
	}
	outputDir := s.outputDir(req)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	lock := flock.New(filepath.Join(outputDir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory %s: %w", outputDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, outputDir)
	}

	conc := req.Concurrency
	if conc <= 0 {
		conc = s.cfg.Concurrency
	}
	s.log.Info("Converting %d file(s) into %s (concurrency %d)", len(jobs), outputDir, conc)
	return &plan{jobs: jobs, concurrency: conc, outputDir: outputDir, lock: lock}, nil
}

func (s *Service) outputDir(req Request) string {
	dir := req.OutputDir
	if dir == "" {
		dir = s.cfg.OutputDir
	}
	if dir == "" {
		return ""
	}
	return config.NormalizeDirArg(dir)
}

// jobConfig overlays the request's options on the configured defaults.
func (s *Service) jobConfig(req Request) (planner.JobConfig, error) {
	jc := planner.JobConfigFrom(s.cfg)
	if req.Method != "" {
		m, err := config.ParseMethod(string(req.Method))
		if err != nil {
			return jc, err
		}
		jc.Method = m
	}
	if req.DLogVariant != "" {
		jc.DLogVariant = config.ParseDLogVariant(string(req.DLogVariant))
	}
	if req.LUT != "" {
		jc.LUT = req.LUT
	}
	if req.Preset != "" {
		if !config.ValidPreset(req.Preset) {
			return jc, fmt.Errorf("invalid preset %q", req.Preset)
		}
		jc.Preset = req.Preset
	}
	if req.CRF != nil {
		if *req.CRF < 0 || *req.CRF > 51 {
			return jc, fmt.Errorf("crf must be between 0 and 51 (got %d)", *req.CRF)
		}
		jc.CRF = *req.CRF
	}
	if req.Overwrite != nil {
		jc.Overwrite = *req.Overwrite
	}
	return jc, nil
}
