package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter configures the API routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", h.Health).Methods("GET")
	r.HandleFunc("/api/probe", h.Probe).Methods("GET")
	r.HandleFunc("/api/convert", h.Convert).Methods("POST")
	r.HandleFunc("/api/batches", h.ListBatches).Methods("GET")
	r.HandleFunc("/api/batches", h.StartBatch).Methods("POST")
	r.HandleFunc("/api/batches/{id}", h.BatchStatus).Methods("GET")
	r.HandleFunc("/api/batches/{id}", h.CancelBatch).Methods("DELETE")
	r.HandleFunc("/api/batches/{id}/events", h.BatchEvents).Methods("GET")
	r.Use(h.logRequests)
	return r
}

// NewServer wraps the router with CORS and returns a server for addr.
// WriteTimeout is left unset because event streams and synchronous
// conversions stay open for as long as the batch runs.
func NewServer(addr string, h *Handler) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return &http.Server{
		Addr:              addr,
		Handler:           c.Handler(NewRouter(h)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps event streams working through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug("%s %s %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
