// Package natsbus publishes batch events to NATS so other services can
// follow conversions without polling the HTTP API.
//
// Subjects are "<prefix>.<batchID>.progress", "<prefix>.<batchID>.completed"
// and, once per batch, "<prefix>.<batchID>.done". Payloads are JSON.
package natsbus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/pipeline"
)

// Subject suffixes.
const (
	SubjectProgress  = "progress"
	SubjectCompleted = "completed"
	SubjectDone      = "done"
)

// Publisher sends one message. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// flusher is implemented by *nats.Conn.
type flusher interface {
	Flush() error
}

// Logger is the minimal logging interface the sink needs.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
}

// ProgressMessage is the payload of a progress subject.
type ProgressMessage struct {
	BatchID string  `json:"batchId"`
	Index   int     `json:"index"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// CompletedMessage is the payload of a completed subject.
type CompletedMessage struct {
	BatchID string       `json:"batchId"`
	Index   int          `json:"index"`
	Total   int          `json:"total"`
	Result  batch.Result `json:"result"`
}

// DoneMessage is the payload of the done subject.
type DoneMessage struct {
	BatchID string        `json:"batchId"`
	Success bool          `json:"success"`
	Summary batch.Summary `json:"summary"`
	Elapsed float64       `json:"elapsedSeconds,omitempty"`
}

// Sink is a batch.EventSink for one batch. Publish failures are logged and
// never affect the batch.
type Sink struct {
	pub     Publisher
	prefix  string
	batchID string
	log     Logger
}

// NewSink returns a Sink publishing under prefix for batchID. log may be nil.
func NewSink(pub Publisher, prefix, batchID string, log Logger) *Sink {
	return &Sink{pub: pub, prefix: prefix, batchID: batchID, log: log}
}

// Subject returns the full subject for a suffix.
func (s *Sink) Subject(suffix string) string {
	return s.prefix + "." + s.batchID + "." + suffix
}

func (s *Sink) FileProgress(e batch.FileProgressEvent) {
	s.publish(SubjectProgress, ProgressMessage{
		BatchID: s.batchID, Index: e.Index, Total: e.Total, Percent: e.Percent,
	})
}

func (s *Sink) JobCompleted(e batch.JobCompletedEvent) {
	s.publish(SubjectCompleted, CompletedMessage{
		BatchID: s.batchID, Index: e.Index, Total: e.Total, Result: e.Result,
	})
}

// Done publishes the batch summary and flushes the connection.
func (s *Sink) Done(resp pipeline.Response) {
	s.publish(SubjectDone, DoneMessage{
		BatchID: s.batchID,
		Success: resp.Success,
		Summary: resp.Summary,
		Elapsed: resp.Elapsed,
	})
	if f, ok := s.pub.(flusher); ok {
		if err := f.Flush(); err != nil {
			s.warn("NATS flush failed: %v", err)
		}
	}
}

func (s *Sink) publish(suffix string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.warn("Cannot encode %s event: %v", suffix, err)
		return
	}
	if err := s.pub.Publish(s.Subject(suffix), data); err != nil {
		s.warn("Publish to %s failed: %v", s.Subject(suffix), err)
	}
}

func (s *Sink) warn(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Warn(format, args...)
	}
}

// Connect dials url with reconnects enabled and connection state changes
// logged.
func Connect(url string, log Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("dlogconv"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil && log != nil {
				log.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			if log != nil {
				log.Info("NATS reconnected to %s", nc.ConnectedUrl())
			}
		}),
	)
}
