package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/raysh454/policeform/internal/attachment"
	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/form"
	"github.com/raysh454/policeform/internal/history"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/metrics"
	"github.com/raysh454/policeform/internal/model"
	"github.com/raysh454/policeform/internal/validate"
	"github.com/raysh454/policeform/internal/webclient"
)

// HistoryRecorder persists submission outcomes. *history.Store implements it.
type HistoryRecorder interface {
	Insert(ctx context.Context, id string, applicant history.Applicant, createdAt time.Time) error
	SetStatus(ctx context.Context, id string, status model.JobStatus) error
	Finish(ctx context.Context, id string, result *model.SubmissionResult, finishedAt time.Time) error
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Validator *validate.Validator
	Browsers  *browser.Manager
	Form      *form.TenantForm
	Submitter *form.Submitter
	// Client fetches remote photos.
	Client webclient.WebClient
	// History is optional.
	History HistoryRecorder
}

// Orchestrator runs submissions end to end: validate, acquire a browser, fill,
// submit and release. Every submission gets its own browser, and that browser
// is closed on every exit path.
type Orchestrator struct {
	cfg    *Config
	deps   Deps
	logger logging.Logger
	now    func() time.Time

	sessions *semaphore.Weighted
	running  sync.WaitGroup

	jobsMu sync.Mutex
	jobs   map[string]*model.Job
}

func NewOrchestrator(cfg *Config, deps Deps, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		logger:   logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		now:      time.Now,
		sessions: semaphore.NewWeighted(int64(cfg.Browser.MaxSessions)),
		jobs:     make(map[string]*model.Job),
	}
}

// WithClock replaces the clock used for age derivation and timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Submit validates raw and, when it is acceptable, runs the submission to
// completion. The returned result is never nil. Cancelling ctx does not stop
// a submission that has already started; only browser.timeout does.
func (o *Orchestrator) Submit(ctx context.Context, raw []byte) *model.SubmissionResult {
	id := uuid.New().String()

	req, err := o.deps.Validator.Validate(raw)
	if err != nil {
		res := model.NewFailure(id, err)
		metrics.RecordSubmission(string(res.ErrorKind), 0)
		o.logger.Warn("rejected submission",
			logging.Field{Key: "submission_id", Value: id},
			logging.Field{Key: "error", Value: res.Message})
		return res
	}

	job := o.newJob(id, nil)
	return o.process(ctx, job, req, o.warn(id, req))
}

// Start validates raw and runs the submission in the background. The job's
// Events channel is closed once the final result has been emitted.
func (o *Orchestrator) Start(ctx context.Context, raw []byte) (*model.Job, error) {
	req, err := o.deps.Validator.Validate(raw)
	if err != nil {
		metrics.RecordSubmission(string(model.AsSubmissionError(err).Kind), 0)
		return nil, err
	}

	id := uuid.New().String()
	job := o.newJob(id, make(chan model.JobEvent, 32))
	warnings := o.warn(id, req)
	snapshot, _ := o.GetJob(id)

	o.running.Add(1)
	go func() {
		defer o.running.Done()
		defer close(job.Events)
		o.process(ctx, job, req, warnings)
	}()
	return snapshot, nil
}

// GetJob returns a copy of the job, or false once it is unknown or expired.
// The copy shares the Events channel.
func (o *Orchestrator) GetJob(id string) (*model.Job, bool) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	job, ok := o.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// ListJobs returns copies of all retained jobs.
func (o *Orchestrator) ListJobs() []*model.Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*model.Job, 0, len(o.jobs))
	for _, job := range o.jobs {
		cp := *job
		out = append(out, &cp)
	}
	return out
}

// Wait blocks until background jobs finish or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) warn(id string, req *model.SubmissionRequest) []string {
	warnings := validate.Warnings(req)
	if len(warnings) > 0 {
		o.logger.Warn("submission accepted with warnings",
			logging.Field{Key: "submission_id", Value: id},
			logging.Field{Key: "warnings", Value: warnings})
	}
	return warnings
}

func (o *Orchestrator) newJob(id string, events chan model.JobEvent) *model.Job {
	job := &model.Job{
		ID:        id,
		Status:    model.JobIdle,
		StartedAt: o.now().UTC(),
		Events:    events,
	}
	o.jobsMu.Lock()
	o.jobs[id] = job
	o.jobsMu.Unlock()
	return job
}

func (o *Orchestrator) emitJobEvent(job *model.Job, ev model.JobEvent) {
	if job.Events == nil {
		return
	}
	ev.JobID = job.ID
	ev.At = o.now().UTC()
	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) transition(ctx context.Context, job *model.Job, status model.JobStatus) {
	o.jobsMu.Lock()
	job.Status = status
	o.jobsMu.Unlock()
	o.emitJobEvent(job, model.JobEvent{Type: model.JobEventStatus, Status: status})
	if o.deps.History != nil {
		if err := o.deps.History.SetStatus(ctx, job.ID, status); err != nil {
			o.logger.Warn("recording status", logging.Field{Key: "submission_id", Value: job.ID}, logging.Field{Key: "error", Value: err})
		}
	}
}

// process owns the submission from the moment it is accepted. It never panics
// and always returns a result.
func (o *Orchestrator) process(parent context.Context, job *model.Job, req *model.SubmissionRequest, warnings []string) (res *model.SubmissionResult) {
	started := o.now()
	logger := o.logger.With(logging.Field{Key: "submission_id", Value: job.ID})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), o.cfg.Browser.Timeout)
	defer cancel()

	if o.deps.History != nil {
		if err := o.deps.History.Insert(ctx, job.ID, history.ApplicantOf(req), started); err != nil {
			logger.Warn("recording submission", logging.Field{Key: "error", Value: err})
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("submission panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			res = model.NewFailure(job.ID, model.NewError(model.KindSubmission, "internal error during submission", fmt.Errorf("panic: %v", r)))
		}
		res.Warnings = warnings
		o.finish(job, res, started, logger)
	}()

	ref, err := o.run(ctx, job, req, logger)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && model.AsSubmissionError(err).Kind == model.KindSubmission {
			err = model.NewError(model.KindTimeout, "submission exceeded "+o.cfg.Browser.Timeout.String(), err)
		}
		return model.NewFailure(job.ID, err)
	}
	return model.NewSuccess(job.ID, ref)
}

func (o *Orchestrator) run(ctx context.Context, job *model.Job, req *model.SubmissionRequest, logger logging.Logger) (string, error) {
	sub, err := model.Resolve(*req, o.now())
	if err != nil {
		return "", model.NewError(model.KindValidation, err.Error(), err)
	}

	if err := o.sessions.Acquire(ctx, 1); err != nil {
		return "", model.NewError(model.KindBrowserUnavail, "no browser session became free in time", err)
	}
	defer o.sessions.Release(1)

	sess, err := o.deps.Browsers.Acquire(ctx, o.cfg.Browser.MaxRetries, o.cfg.Browser.LaunchTimeout)
	if err != nil {
		return "", err
	}
	defer sess.Close()
	logger = logger.With(logging.Field{Key: "session", Value: sess.ID})

	files := attachment.NewResolver(o.deps.Client, o.cfg.Attachment.Dir, logger)
	if o.cfg.Attachment.Cleanup {
		defer func() {
			if err := files.Cleanup(); err != nil {
				logger.Warn("removing attachments", logging.Field{Key: "error", Value: err})
			}
		}()
	}

	o.transition(ctx, job, model.JobFilling)
	onStep := func(step string) {
		o.emitJobEvent(job, model.JobEvent{Type: model.JobEventStep, Step: step})
	}
	if err := o.deps.Form.Fill(ctx, sess.Page, sub, files, onStep); err != nil {
		logger.Warn("filling form failed", logging.Field{Key: "error", Value: err})
		return "", err
	}

	o.transition(ctx, job, model.JobSubmitting)
	ref, err := o.deps.Submitter.Submit(ctx, sess.Page)
	if err != nil {
		logger.Warn("submitting form failed", logging.Field{Key: "error", Value: err})
		return "", err
	}
	return ref, nil
}

func (o *Orchestrator) finish(job *model.Job, res *model.SubmissionResult, started time.Time, logger logging.Logger) {
	ended := o.now()
	status := model.JobFailed
	outcome := string(res.ErrorKind)
	if res.Success {
		status = model.JobSucceeded
		outcome = "success"
	}

	o.jobsMu.Lock()
	job.Status = status
	job.Result = res
	job.EndedAt = ended.UTC()
	o.jobsMu.Unlock()

	o.emitJobEvent(job, model.JobEvent{Type: model.JobEventStatus, Status: status})
	o.emitJobEvent(job, model.JobEvent{Type: model.JobEventResult, Status: status, Result: res})

	metrics.RecordSubmission(outcome, ended.Sub(started).Seconds())

	if o.deps.History != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := o.deps.History.Finish(ctx, job.ID, res, ended); err != nil {
			logger.Warn("recording result", logging.Field{Key: "error", Value: err})
		}
		cancel()
	}

	if res.Success {
		logger.Info("submission succeeded",
			logging.Field{Key: "reference_number", Value: res.ReferenceNumber},
			logging.Field{Key: "duration", Value: ended.Sub(started).String()})
	} else {
		logger.Warn("submission failed",
			logging.Field{Key: "error_kind", Value: string(res.ErrorKind)},
			logging.Field{Key: "message", Value: res.Message},
			logging.Field{Key: "duration", Value: ended.Sub(started).String()})
	}

	if retention := o.cfg.Jobs.Retention; retention > 0 {
		time.AfterFunc(retention, func() {
			o.jobsMu.Lock()
			delete(o.jobs, job.ID)
			o.jobsMu.Unlock()
		})
	}
}
