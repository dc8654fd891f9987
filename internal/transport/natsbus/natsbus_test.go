package natsbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/pipeline"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs    []message
	fail    error
	flushed int
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.msgs = append(f.msgs, message{subject: subject, data: data})
	return nil
}

func (f *fakePublisher) Flush() error {
	f.flushed++
	return nil
}

type warnLogger struct{ warnings []string }

func (w *warnLogger) Info(string, ...interface{}) {}
func (w *warnLogger) Warn(format string, args ...interface{}) {
	w.warnings = append(w.warnings, fmt.Sprintf(format, args...))
}

func TestSink_PublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	s := NewSink(pub, "dlogconv.batch", "b1", nil)

	s.FileProgress(batch.FileProgressEvent{Index: 0, Total: 2, Percent: 42.5})
	s.JobCompleted(batch.JobCompletedEvent{Index: 0, Total: 2, Result: batch.Result{
		Input: "/in/a.mp4", Output: "/out/a_rec709.mp4", Success: true,
	}})
	s.Done(pipeline.NewResponse([]batch.Result{
		{Input: "/in/a.mp4", Success: true},
		{Input: "/in/b.mp4", Error: "boom"},
	}))

	require.Len(t, pub.msgs, 3)
	assert.Equal(t, "dlogconv.batch.b1.progress", pub.msgs[0].subject)
	assert.Equal(t, "dlogconv.batch.b1.completed", pub.msgs[1].subject)
	assert.Equal(t, "dlogconv.batch.b1.done", pub.msgs[2].subject)
	assert.Equal(t, 1, pub.flushed)

	var p ProgressMessage
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &p))
	assert.Equal(t, ProgressMessage{BatchID: "b1", Index: 0, Total: 2, Percent: 42.5}, p)

	var c CompletedMessage
	require.NoError(t, json.Unmarshal(pub.msgs[1].data, &c))
	assert.Equal(t, "/out/a_rec709.mp4", c.Result.Output)
	assert.True(t, c.Result.Success)

	var d DoneMessage
	require.NoError(t, json.Unmarshal(pub.msgs[2].data, &d))
	assert.False(t, d.Success)
	assert.Equal(t, batch.Summary{Total: 2, Success: 1, Failed: 1}, d.Summary)
}

func TestSink_PublishFailureIsLogged(t *testing.T) {
	pub := &fakePublisher{fail: errors.New("nats: connection closed")}
	log := &warnLogger{}
	s := NewSink(pub, "p", "b2", log)

	assert.NotPanics(t, func() {
		s.FileProgress(batch.FileProgressEvent{Percent: 10})
	})
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "p.b2.progress")
	assert.Contains(t, log.warnings[0], "connection closed")
}

func TestSink_SatisfiesEventSink(t *testing.T) {
	var _ batch.EventSink = (*Sink)(nil)
}
