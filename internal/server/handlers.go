package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/policeform/internal/history"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
)

// Health

// handleHealth godoc
// @Summary Liveness
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Readiness.Get()
	if !st.ServerReady {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "starting", BrowserReady: st.BrowserReady})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", BrowserReady: st.BrowserReady})
}

// handleBrowserStatus godoc
// @Summary Browser launch capability
// @Description Served from a cache; a stale entry triggers one probe launch.
// @Tags health
// @Produce json
// @Success 200 {object} readiness.Status
// @Router /browser-status [get]
func (s *Server) handleBrowserStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Readiness.BrowserStatus(r.Context()))
}

// Submissions

// handleSubmit godoc
// @Summary Submit a tenant verification
// @Description Fills and submits the police verification form. With async=true the
// @Description submission runs in the background and 202 is returned at once.
// @Tags submissions
// @Accept json
// @Produce json
// @Param async query bool false "run in the background"
// @Param request body model.SubmissionRequest true "tenant details"
// @Success 200 {object} model.SubmissionResult
// @Success 202 {object} AsyncAcceptedResponse
// @Failure 400 {object} model.SubmissionResult
// @Failure 500 {object} model.SubmissionResult
// @Failure 503 {object} model.SubmissionResult
// @Router /api/police/submit/tenant [post]
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				model.NewFailure("", model.NewError(model.KindValidation, "request body too large", err)))
			return
		}
		writeJSON(w, http.StatusBadRequest,
			model.NewFailure("", model.NewError(model.KindValidation, "could not read request body", err)))
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		job, err := s.deps.Submissions.Start(r.Context(), body)
		if err != nil {
			res := model.NewFailure("", err)
			writeJSON(w, res.HTTPStatus(), res)
			return
		}
		s.logger.Info("started submission job", logging.Field{Key: "submission_id", Value: job.ID})
		writeJSON(w, http.StatusAccepted, AsyncAcceptedResponse{
			SubmissionID: job.ID,
			Status:       job.Status,
			StatusURL:    "/api/police/jobs/" + job.ID,
			EventsURL:    "/ws/submissions/" + job.ID,
		})
		return
	}

	res := s.deps.Submissions.Submit(r.Context(), body)
	writeJSON(w, res.HTTPStatus(), res)
}

// handleListJobs godoc
// @Summary Submissions still held in memory
// @Tags submissions
// @Produce json
// @Success 200 {array} model.Job
// @Router /api/police/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.deps.Submissions.ListJobs()
	if jobs == nil {
		jobs = []*model.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleGetJob godoc
// @Summary Live state of a recent submission
// @Tags submissions
// @Produce json
// @Param id path string true "submission id"
// @Success 200 {object} model.Job
// @Failure 404 {object} ErrorResponse
// @Router /api/police/jobs/{id} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.deps.Submissions.GetJob(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleListSubmissions godoc
// @Summary Recent submissions
// @Tags submissions
// @Produce json
// @Param limit query int false "max records (default 50)"
// @Success 200 {array} history.Record
// @Failure 404 {object} ErrorResponse
// @Router /api/police/submissions [get]
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "submission history is disabled")
		return
	}
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	recs, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing submissions", logging.Field{Key: "error", Value: err})
		writeError(w, http.StatusInternalServerError, "could not list submissions")
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleGetSubmission godoc
// @Summary One past submission
// @Tags submissions
// @Produce json
// @Param id path string true "submission id"
// @Success 200 {object} history.Record
// @Failure 404 {object} ErrorResponse
// @Router /api/police/submissions/{id} [get]
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "submission history is disabled")
		return
	}
	rec, err := s.deps.History.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		s.logger.Warn("getting submission", logging.Field{Key: "error", Value: err})
		writeError(w, http.StatusInternalServerError, "could not read submission")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// WebSockets

// handleSubmissionWS streams the job snapshot followed by its events until the
// job finishes or the client goes away. A running job has one event queue, so
// only one client may follow it at a time; others get 409 until it leaves.
// Finished jobs can be fetched by any number of clients.
func (s *Server) handleSubmissionWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.deps.Submissions.GetJob(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Events != nil && !job.Status.Terminal() {
		if _, busy := s.streaming.LoadOrStore(id, struct{}{}); busy {
			writeError(w, http.StatusConflict, "job already has a subscriber")
			return
		}
		defer s.streaming.Delete(id)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err})
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(job); err != nil {
		return
	}
	if job.Events == nil || job.Status.Terminal() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"), time.Now().Add(time.Second))
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-job.Events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"), time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket client gone", logging.Field{Key: "submission_id", Value: id})
				return
			}
		}
	}
}

// Diagnostics

// handleCORSTest godoc
// @Summary Echo the CORS decision for the caller's Origin
// @Tags diagnostics
// @Produce json
// @Success 200 {object} CORSTestResponse
// @Router /api/cors-test [get]
func (s *Server) handleCORSTest(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	writeJSON(w, http.StatusOK, CORSTestResponse{
		Message: "CORS is working",
		Origin:  origin,
		Allowed: OriginAllowed(origin, s.cfg.AllowedOrigins),
	})
}
