// Package http exposes batch conversion over a JSON API with server-sent
// progress events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/pipeline"
	"github.com/backmassage/dlogconv/internal/planner"
	"github.com/backmassage/dlogconv/internal/probe"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

type batchService interface {
	Convert(ctx context.Context, req pipeline.Request, sink batch.EventSink) (pipeline.Response, error)
	Start(ctx context.Context, req pipeline.Request, sink batch.EventSink) (*batch.Stream, error)
	Plan(req pipeline.Request) ([]planner.Job, error)
}

type mediaProber interface {
	Duration(ctx context.Context, path string) (float64, error)
	Metadata(ctx context.Context, path string) (*probe.Result, error)
}

// Logger is the minimal logging interface the handlers need.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// BatchSink observes an asynchronous batch: every event, then its final
// Response. natsbus.Sink satisfies it.
type BatchSink interface {
	batch.EventSink
	Done(resp pipeline.Response)
}

// Handler serves the API.
type Handler struct {
	svc     batchService
	prober  mediaProber
	cfg     *config.Config
	log     Logger
	batches *registry

	// NewBatchSink, if set, is called once per asynchronous batch.
	NewBatchSink func(batchID string) BatchSink
}

// NewHandler wires HTTP handlers with the batch service and prober.
func NewHandler(svc batchService, prober mediaProber, cfg *config.Config, log Logger) *Handler {
	return &Handler{svc: svc, prober: prober, cfg: cfg, log: log, batches: newRegistry()}
}

// Shutdown cancels running batches and waits for them to settle or ctx to
// end.
func (h *Handler) Shutdown(ctx context.Context) {
	h.batches.cancelAll(ctx)
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"ffmpeg":  h.cfg.FFmpegPath,
		"ffprobe": h.cfg.FFprobePath,
		"running": h.batches.running(),
	})
}

// Probe handles GET /api/probe?path=...&full=1. Without full it returns
// the duration only.
func (h *Handler) Probe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := strings.TrimSpace(q.Get("path"))
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}

	if cast.ToBool(q.Get("full")) {
		res, err := h.prober.Metadata(r.Context(), path)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	d, err := h.prober.Duration(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"path": path, "duration": d})
}

// Convert handles POST /api/convert: the batch runs to completion within
// the request. Job failures still answer 200 with success=false.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.Convert(r.Context(), req, nil)
	if err != nil {
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartBatch handles POST /api/batches: the batch runs in the background
// and the answer is 202 with its id.
func (h *Handler) StartBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	jobs, err := h.svc.Plan(req)
	if err != nil {
		writeJSON(w, statusFor(err), pipeline.ErrorResponse(err))
		return
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	var sink BatchSink
	if h.NewBatchSink != nil {
		sink = h.NewBatchSink(id)
	}
	st, err := h.svc.Start(ctx, req, sink)
	if err != nil {
		cancel()
		writeJSON(w, statusFor(err), pipeline.ErrorResponse(err))
		return
	}

	tb := newTrackedBatch(id, jobs, cancel)
	h.batches.add(tb)
	h.log.Info("Batch %s started (%d file(s))", id, len(jobs))

	go func() {
		defer cancel()
		for ev := range st.Events() {
			tb.record(ev)
		}
		resp := pipeline.NewResponse(st.Wait())
		resp.Elapsed = time.Since(tb.started).Seconds()
		tb.finish(resp)
		if sink != nil {
			sink.Done(resp)
		}
		h.log.Info("Batch %s finished: %d/%d converted", id, resp.Summary.Success, resp.Summary.Total)
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":    id,
		"total": len(jobs),
	})
}

// ListBatches handles GET /api/batches.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.batches.list())
}

// BatchStatus handles GET /api/batches/{id}.
func (h *Handler) BatchStatus(w http.ResponseWriter, r *http.Request) {
	tb, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tb.status())
}

// CancelBatch handles DELETE /api/batches/{id}. Canceling a finished
// batch is a conflict.
func (h *Handler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	tb, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !tb.markCanceled() {
		writeError(w, http.StatusConflict, errors.New("batch already finished"))
		return
	}
	h.log.Warn("Batch %s canceled", tb.id)
	writeJSON(w, http.StatusAccepted, tb.status())
}

// BatchEvents handles GET /api/batches/{id}/events as a server-sent event
// stream. Past events are replayed first; the stream ends with a "done"
// event carrying the final Response.
func (h *Handler) BatchEvents(w http.ResponseWriter, r *http.Request) {
	tb, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	history, sub := tb.subscribe()
	if sub != nil {
		defer tb.unsubscribe(sub)
	}
	for _, ev := range history {
		if writeEvent(w, string(ev.Kind), ev) != nil {
			return
		}
	}
	flusher.Flush()

	if sub != nil {
	loop:
		for {
			select {
			case ev, open := <-sub.ch:
				if !open {
					break loop
				}
				if writeEvent(w, string(ev.Kind), ev) != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}

	if resp := tb.response(); resp != nil {
		_ = writeEvent(w, EventDone, resp)
		flusher.Flush()
	}
}

// EventDone is the final server-sent event of a batch stream.
const EventDone = "done"

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*trackedBatch, bool) {
	id := mux.Vars(r)["id"]
	tb, ok := h.batches.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown batch %q", id))
	}
	return tb, ok
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	var req pipeline.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return req, false
	}
	return req, true
}

// statusFor maps batch-level errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoInputs),
		errors.Is(err, pipeline.ErrNoOutputDir),
		errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrOutputLocked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeEvent(w http.ResponseWriter, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
