package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/pipeline"
	"github.com/backmassage/dlogconv/internal/planner"
)

// Batch states reported by the status endpoint.
const (
	StateRunning  = "running"
	StateDone     = "done"
	StateCanceled = "canceled"
)

// JobStatus is one job's view in a BatchStatus.
type JobStatus struct {
	Input   string  `json:"input"`
	Output  string  `json:"output"`
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// BatchStatus is the snapshot returned by GET /api/batches/{id}.
type BatchStatus struct {
	ID        string             `json:"id"`
	State     string             `json:"state"`
	StartedAt time.Time          `json:"startedAt"`
	Total     int                `json:"total"`
	Jobs      []JobStatus        `json:"jobs"`
	Response  *pipeline.Response `json:"response,omitempty"`
}

// subscriber is one event stream reader. gone is closed when the reader
// leaves so a blocked send can give up.
type subscriber struct {
	ch   chan batch.Event
	gone chan struct{}
	once sync.Once
}

func (s *subscriber) leave() { s.once.Do(func() { close(s.gone) }) }

// subscriberBuffer is how many events a reader may lag behind before
// progress events are dropped for it. Completion events are never dropped.
const subscriberBuffer = 64

// trackedBatch is an asynchronous batch and its replayable event history.
// record and finish are called from the single goroutine draining the
// batch's stream.
type trackedBatch struct {
	id      string
	started time.Time
	cancel  context.CancelFunc

	mu       sync.Mutex
	state    string
	jobs     []JobStatus
	history  []batch.Event
	resp     *pipeline.Response
	subs     map[*subscriber]struct{}
	finished chan struct{}
}

func newTrackedBatch(id string, jobs []planner.Job, cancel context.CancelFunc) *trackedBatch {
	tb := &trackedBatch{
		id:       id,
		started:  time.Now(),
		cancel:   cancel,
		state:    StateRunning,
		jobs:     make([]JobStatus, len(jobs)),
		subs:     make(map[*subscriber]struct{}),
		finished: make(chan struct{}),
	}
	for i, j := range jobs {
		tb.jobs[i] = JobStatus{Input: j.Input, Output: j.Output}
	}
	return tb
}

// record applies ev to the snapshot and forwards it to subscribers.
func (tb *trackedBatch) record(ev batch.Event) {
	tb.mu.Lock()
	if ev.Index >= 0 && ev.Index < len(tb.jobs) {
		js := &tb.jobs[ev.Index]
		switch ev.Kind {
		case batch.KindFileProgress:
			js.Percent = ev.Percent
		case batch.KindJobCompleted:
			js.Done = true
			if ev.Result != nil {
				js.Output = ev.Result.Output
				js.Success = ev.Result.Success
				js.Error = ev.Result.Error
				if js.Success {
					js.Percent = 100
				}
			}
		}
	}
	tb.history = append(tb.history, ev)
	subs := make([]*subscriber, 0, len(tb.subs))
	for s := range tb.subs {
		subs = append(subs, s)
	}
	tb.mu.Unlock()

	for _, s := range subs {
		if ev.Kind == batch.KindFileProgress {
			select {
			case s.ch <- ev:
			default:
			}
			continue
		}
		select {
		case s.ch <- ev:
		case <-s.gone:
		}
	}
}

// finish stores the final response and closes every subscriber channel.
func (tb *trackedBatch) finish(resp pipeline.Response) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.resp = &resp
	if tb.state == StateRunning {
		tb.state = StateDone
	}
	for s := range tb.subs {
		close(s.ch)
		delete(tb.subs, s)
	}
	close(tb.finished)
}

// markCanceled cancels the batch context. It reports false when the batch
// had already finished.
func (tb *trackedBatch) markCanceled() bool {
	tb.mu.Lock()
	running := tb.state == StateRunning
	if running {
		tb.state = StateCanceled
	}
	tb.mu.Unlock()
	if running {
		tb.cancel()
	}
	return running
}

// subscribe returns the events so far and, while the batch runs, a
// subscriber for the rest. sub is nil once the batch has finished.
func (tb *trackedBatch) subscribe() (history []batch.Event, sub *subscriber) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	history = append([]batch.Event(nil), tb.history...)
	if tb.resp != nil {
		return history, nil
	}
	sub = &subscriber{
		ch:   make(chan batch.Event, subscriberBuffer),
		gone: make(chan struct{}),
	}
	tb.subs[sub] = struct{}{}
	return history, sub
}

func (tb *trackedBatch) unsubscribe(sub *subscriber) {
	sub.leave()
	tb.mu.Lock()
	delete(tb.subs, sub)
	tb.mu.Unlock()
}

func (tb *trackedBatch) response() *pipeline.Response {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.resp
}

func (tb *trackedBatch) status() BatchStatus {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return BatchStatus{
		ID:        tb.id,
		State:     tb.state,
		StartedAt: tb.started,
		Total:     len(tb.jobs),
		Jobs:      append([]JobStatus(nil), tb.jobs...),
		Response:  tb.resp,
	}
}

// registry holds every batch started through the API for the life of the
// process.
type registry struct {
	mu      sync.RWMutex
	batches map[string]*trackedBatch
}

func newRegistry() *registry {
	return &registry{batches: make(map[string]*trackedBatch)}
}

func (r *registry) add(tb *trackedBatch) {
	r.mu.Lock()
	r.batches[tb.id] = tb
	r.mu.Unlock()
}

func (r *registry) get(id string) (*trackedBatch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tb, ok := r.batches[id]
	return tb, ok
}

// list returns snapshots, oldest first.
func (r *registry) list() []BatchStatus {
	r.mu.RLock()
	out := make([]BatchStatus, 0, len(r.batches))
	for _, tb := range r.batches {
		out = append(out, tb.status())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (r *registry) running() int {
	n := 0
	for _, st := range r.list() {
		if st.State == StateRunning {
			n++
		}
	}
	return n
}

// cancelAll cancels every running batch and waits for them to settle or
// ctx to end.
func (r *registry) cancelAll(ctx context.Context) {
	r.mu.RLock()
	all := make([]*trackedBatch, 0, len(r.batches))
	for _, tb := range r.batches {
		all = append(all, tb)
	}
	r.mu.RUnlock()

	for _, tb := range all {
		tb.markCanceled()
	}
	for _, tb := range all {
		select {
		case <-tb.finished:
		case <-ctx.Done():
			return
		}
	}
}
