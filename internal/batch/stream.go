package batch

import (
	"context"
	"sync"

	"github.com/backmassage/dlogconv/internal/planner"
)

// EventKind names a stream event. The values double as the push channel
// names used by the transports.
type EventKind string

const (
	KindFileProgress EventKind = "convert-file-progress"
	KindJobCompleted EventKind = "convert-progress"
)

// Event is one item of a [Stream]. Percent is set for KindFileProgress,
// Result for KindJobCompleted.
type Event struct {
	Kind    EventKind `json:"kind"`
	Index   int       `json:"index"`
	Total   int       `json:"total"`
	Percent float64   `json:"percent,omitempty"`
	Result  *Result   `json:"result,omitempty"`
}

// Stream is a batch running in the background. Events are queued without
// bound so a slow reader never stalls the workers; the channel is closed
// after the last event of the batch. A Stream cannot be restarted.
type Stream struct {
	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	closed  bool
	results []Result
}

// Start runs jobs like [Scheduler.Run] in a new goroutine and returns the
// stream of its events. extra, if non-nil, also receives every event.
func (s *Scheduler) Start(ctx context.Context, jobs []planner.Job, concurrency int, extra EventSink) *Stream {
	st := &Stream{
		events: make(chan Event),
		done:   make(chan struct{}),
	}
	st.cond = sync.NewCond(&st.mu)

	go st.pump()
	go func() {
		results := s.Run(ctx, jobs, concurrency, MultiSink{st, extra})
		st.mu.Lock()
		st.results = results
		st.closed = true
		st.cond.Signal()
		st.mu.Unlock()
		close(st.done)
	}()
	return st
}

// Events returns the event channel. Drain it until closed; undelivered
// events keep the pump goroutine alive.
func (st *Stream) Events() <-chan Event { return st.events }

// Done is closed once every job has settled.
func (st *Stream) Done() <-chan struct{} { return st.done }

// Wait blocks until every job has settled and returns the results,
// index-aligned with the submitted jobs. It does not wait for the event
// channel to be drained.
func (st *Stream) Wait() []Result {
	<-st.done
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.results
}

func (st *Stream) FileProgress(e FileProgressEvent) {
	st.push(Event{Kind: KindFileProgress, Index: e.Index, Total: e.Total, Percent: e.Percent})
}

func (st *Stream) JobCompleted(e JobCompletedEvent) {
	r := e.Result
	st.push(Event{Kind: KindJobCompleted, Index: e.Index, Total: e.Total, Result: &r})
}

func (st *Stream) push(ev Event) {
	st.mu.Lock()
	st.queue = append(st.queue, ev)
	st.cond.Signal()
	st.mu.Unlock()
}

// pump moves queued events onto the unbuffered channel in order.
func (st *Stream) pump() {
	defer close(st.events)
	for {
		st.mu.Lock()
		for len(st.queue) == 0 && !st.closed {
			st.cond.Wait()
		}
		if len(st.queue) == 0 && st.closed {
			st.mu.Unlock()
			return
		}
		ev := st.queue[0]
		st.queue[0] = Event{}
		st.queue = st.queue[1:]
		st.mu.Unlock()

		st.events <- ev
	}
}
