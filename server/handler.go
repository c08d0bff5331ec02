package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/pipeline"
	"github.com/andrab0/scenegraph/pkg/scene/storage"
)

const maxBodyBytes = 1 << 20

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scenegraph_http_requests_total",
		Help: "HTTP requests by path and status code",
	},
	[]string{"path", "code"},
)

func init() {
	prometheus.MustRegister(httpRequests)
}

// Processor is the part of the pipeline coordinator the HTTP boundary uses
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*scene.SceneGraph, error)
	State() pipeline.State
}

// Handler serves the scene graph HTTP API
type Handler struct {
	processor Processor
	store     storage.GraphStore
	metrics   bool
	logger    *logrus.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithStore persists every successful graph under its request id
func WithStore(store storage.GraphStore) Option {
	return func(h *Handler) {
		h.store = store
	}
}

// WithMetrics exposes GET /metrics
func WithMetrics(enabled bool) Option {
	return func(h *Handler) {
		h.metrics = enabled
	}
}

// WithLogger sets the request logger
func WithLogger(logger *logrus.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates the HTTP handler around processor
func NewHandler(processor Processor, opts ...Option) *Handler {
	h := &Handler{processor: processor}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logrus.New()
		h.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return h
}

// Routes returns the routed handler with logging and panic recovery applied
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /process", h.handleProcess)
	mux.HandleFunc("GET /health", h.handleHealth)
	if h.metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	var handler http.Handler = mux
	handler = h.logMiddleware(handler)
	handler = h.recoveryMiddleware(handler)
	return handler
}

// POST /process
// Body: {"text": "...", "lang": "en"}
func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	if h.processor.State() != pipeline.StateReady {
		writeError(w, http.StatusServiceUnavailable, scene.ErrNotReady.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		writeError(w, http.StatusBadRequest, "Request must be a JSON object")
		return
	}

	text := gjson.GetBytes(body, "text")
	if text.Exists() && text.Type != gjson.String {
		writeError(w, http.StatusBadRequest, "text must be a string")
		return
	}
	lang := gjson.GetBytes(body, "lang")
	if lang.Exists() && lang.Type != gjson.String && lang.Type != gjson.Null {
		writeError(w, http.StatusBadRequest, "lang must be a string")
		return
	}

	req := pipeline.Request{
		ID:   uuid.New().String(),
		Text: text.String(),
		Lang: lang.String(),
	}
	w.Header().Set("X-Request-ID", req.ID)

	graph, err := h.processor.Process(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if h.store != nil {
		if err := h.store.StoreGraph(r.Context(), req.ID, graph); err != nil {
			h.logger.WithError(err).WithField("request_id", req.ID).Warn("Failed to store scene graph")
		}
	}

	writeJSON(w, http.StatusOK, graph)
}

// GET /health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := h.processor.State()
	status := http.StatusOK
	if state != pipeline.StateReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"status": state.String(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scene.ErrNotReady):
		return http.StatusServiceUnavailable
	case scene.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)
		httpRequests.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rw.status)).Inc()

		h.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.status,
			"duration": time.Since(start).String(),
			"remote":   r.RemoteAddr,
		}).Info("Request")
	})
}

func routeLabel(path string) string {
	switch path {
	case "/process", "/health", "/metrics":
		return path
	}
	return "other"
}

func (h *Handler) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.logger.WithFields(logrus.Fields{
					"panic": err,
					"path":  r.URL.Path,
				}).Error("Panic recovered")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
