package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/policeform/internal/history"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/metrics"
	"github.com/raysh454/policeform/internal/model"
	"github.com/raysh454/policeform/internal/readiness"
	_ "github.com/raysh454/policeform/internal/server/docs"
)

// Submissions runs form submissions.
type Submissions interface {
	Submit(ctx context.Context, raw []byte) *model.SubmissionResult
	Start(ctx context.Context, raw []byte) (*model.Job, error)
	GetJob(id string) (*model.Job, bool)
	ListJobs() []*model.Job
}

// HistoryReader exposes past submissions. *history.Store implements it.
type HistoryReader interface {
	Get(ctx context.Context, id string) (*history.Record, error)
	List(ctx context.Context, limit int) ([]history.Record, error)
}

// Deps are the services behind the HTTP surface. History may be nil.
type Deps struct {
	Submissions Submissions
	Readiness   readiness.Reporter
	History     HistoryReader
}

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg      Config
	deps     Deps
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger

	// streaming holds the ids of jobs whose events a websocket is draining.
	streaming sync.Map
}

func NewServer(cfg Config, deps Deps, logger logging.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
		logger: logger.With(logging.Field{Key: "component", Value: "server"}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.recoverMiddleware)
	r.Use(s.corsMiddleware)

	// Health
	r.Get("/health", s.handleHealth)
	r.Get("/api/health", s.handleHealth)
	r.Get("/browser-status", s.handleBrowserStatus)
	r.Get("/api/browser-status", s.handleBrowserStatus)

	// Submissions
	r.Post("/api/police/submit/tenant", s.handleSubmit)
	r.Post("/api/police-form/submit", s.handleSubmit)
	r.Get("/api/police/jobs", s.handleListJobs)
	r.Get("/api/police/jobs/{id}", s.handleGetJob)
	r.Get("/api/police/submissions", s.handleListSubmissions)
	r.Get("/api/police/submissions/{id}", s.handleGetSubmission)
	r.Get("/ws/submissions/{id}", s.handleSubmissionWS)

	// Diagnostics
	r.Get("/api/cors-test", s.handleCORSTest)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// recoverMiddleware turns a handler panic into a 500 and keeps serving.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panicked",
					logging.Field{Key: "path", Value: r.URL.Path},
					logging.Field{Key: "request_id", Value: middleware.GetReqID(r.Context())},
					logging.Field{Key: "panic", Value: fmt.Sprint(rec)},
					logging.Field{Key: "stack", Value: string(debug.Stack())})
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler. Request bodies are never logged; they
// carry personal data.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	s.router.ServeHTTP(ww, r)

	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
		{Key: "status", Value: ww.Status()},
		{Key: "bytes", Value: ww.BytesWritten()},
		{Key: "duration", Value: time.Since(start).String()},
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		fields = append(fields, logging.Field{Key: "origin", Value: origin})
	}
	s.logger.Info("http_request", fields...)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
