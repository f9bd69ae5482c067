// Package demoserver serves a local stand-in for the Rajasthan Police tenant
// verification form. It renders the same ASP.NET control ids, populates the
// location dropdowns asynchronously and answers submissions according to a
// switchable Mode, so the browser automation can be exercised end to end
// without touching the live portal.
package demoserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/policeform/internal/logging"
)

// FormPath is where the form is served, mirroring the live portal.
const FormPath = "/old/verificationform.aspx"

const fieldPrefix = "ctl00$ContentPlaceHolder1$"

// Submission is what the mock received for one postback.
type Submission struct {
	Seq        int               `json:"seq"`
	Reference  string            `json:"reference,omitempty"`
	Accepted   bool              `json:"accepted"`
	Errors     []string          `json:"errors,omitempty"`
	Fields     map[string]string `json:"fields"`
	Files      map[string]int64  `json:"files,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

// DemoServer is the mock form server.
type DemoServer struct {
	cfg    Config
	logger logging.Logger
	now    func() time.Time

	mu          sync.RWMutex
	mode        Mode
	seq         int
	submissions []Submission
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if !cfg.Mode.Valid() {
		cfg.Mode = ModeAccept
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	return &DemoServer{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "demoserver"}),
		now:    time.Now,
		mode:   cfg.Mode,
	}
}

// Handler returns the routes of the mock.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+FormPath, s.formHandler)
	mux.HandleFunc("POST "+FormPath, s.submitHandler)
	mux.HandleFunc("GET /old/cascade", s.cascadeHandler)

	// Control endpoints
	mux.HandleFunc("GET /demo/submissions", s.submissionsHandler)
	mux.HandleFunc("DELETE /demo/submissions", s.resetHandler)
	mux.HandleFunc("GET /demo/mode", s.getModeHandler)
	mux.HandleFunc("POST /demo/mode", s.setModeHandler)
	return mux
}

// Start listens on the configured port until ctx is done.
func (s *DemoServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *DemoServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("demo form listening",
		logging.Field{Key: "url", Value: "http://" + ln.Addr().String() + FormPath},
		logging.Field{Key: "mode", Value: string(s.Mode())})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Mode returns the current submission behaviour.
func (s *DemoServer) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the submission behaviour.
func (s *DemoServer) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("unknown mode %q", m)
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	return nil
}

// Submissions returns a copy of every postback received so far.
func (s *DemoServer) Submissions() []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Submission(nil), s.submissions...)
}

func (s *DemoServer) formHandler(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, http.StatusOK, nil)
}

func (s *DemoServer) renderForm(w http.ResponseWriter, status int, errs []string) {
	page := formPage{
		States:        states,
		Districts:     districtOptions(rajasthan),
		IDTypes:       idTypes,
		Castes:        castes,
		PropertyTypes: propertyTypes,
		Errors:        errs,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, page); err != nil {
		s.logger.Error("render form", logging.Field{Key: "error", Value: err})
	}
}

func (s *DemoServer) cascadeHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts []Option
	switch q.Get("list") {
	case "district":
		opts = districtOptions(q.Get("parent"))
	case "station":
		opts = stationOptions(q.Get("parent"))
	default:
		http.Error(w, "unknown list", http.StatusBadRequest)
		return
	}

	if s.cfg.CascadeDelay > 0 {
		select {
		case <-time.After(s.cfg.CascadeDelay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *DemoServer) submitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	fields := formFields(r)
	files := formFiles(r)
	mode := s.Mode()

	if mode == ModeHang {
		s.logger.Info("holding postback until the client gives up")
		<-r.Context().Done()
		return
	}

	errs := checkFields(fields)
	if len(errs) == 0 && mode == ModeReject {
		errs = []string{"Server is busy, please try again later"}
	}

	s.mu.Lock()
	s.seq++
	sub := Submission{
		Seq:        s.seq,
		Accepted:   len(errs) == 0,
		Errors:     errs,
		Fields:     fields,
		Files:      files,
		ReceivedAt: s.now(),
	}
	if sub.Accepted && mode == ModeAccept {
		sub.Reference = s.reference(fields["ddlDistrict"], sub.Seq)
	}
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()

	s.logger.Info("submission received",
		logging.Field{Key: "seq", Value: sub.Seq},
		logging.Field{Key: "accepted", Value: sub.Accepted},
		logging.Field{Key: "reference", Value: sub.Reference},
		logging.Field{Key: "files", Value: len(files)})

	if !sub.Accepted {
		s.renderForm(w, http.StatusOK, errs)
		return
	}

	station, _ := stationLabel(fields["ddlDistrict"], fields["ddlPoliceStation"])
	page := resultPage{
		Reference: sub.Reference,
		Name:      strings.TrimSpace(fields["txtFirstName"] + " " + fields["txtLastName"]),
		Station:   station,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resultTemplate.Execute(w, page); err != nil {
		s.logger.Error("render result", logging.Field{Key: "error", Value: err})
	}
}

// reference builds RJ/<district code>/<year>/<seq>. Caller holds s.mu.
func (s *DemoServer) reference(district string, seq int) string {
	code := "RJ"
	if d, ok := findDistrict(district); ok {
		code = d.Code
	}
	return fmt.Sprintf("RJ/%s/%d/%06d", code, s.now().Year(), seq)
}

// checkFields applies the server-side rules of the portal.
func checkFields(f map[string]string) []string {
	var errs []string
	if f["txtFirstName"] == "" {
		errs = append(errs, "First Name is required")
	}
	switch dob := f["txtDOB"]; {
	case dob == "":
		errs = append(errs, "Date of Birth is required")
	default:
		if _, err := time.Parse("02-01-2006", dob); err != nil {
			errs = append(errs, "Date of Birth is invalid, use DD-MM-YYYY")
		}
	}
	if _, ok := stationLabel(f["ddlDistrict"], f["ddlPoliceStation"]); !ok {
		errs = append(errs, "Please select Police Station")
	}
	return errs
}

// formFields strips the master-page prefix from every posted value.
func formFields(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) == 0 {
			continue
		}
		out[strings.TrimPrefix(k, fieldPrefix)] = strings.TrimSpace(v[0])
	}
	delete(out, "btnSubmit")
	return out
}

func formFiles(r *http.Request) map[string]int64 {
	if r.MultipartForm == nil {
		return nil
	}
	out := make(map[string]int64)
	for k, fhs := range r.MultipartForm.File {
		for _, fh := range fhs {
			if fh.Filename == "" {
				continue
			}
			out[strings.TrimPrefix(k, fieldPrefix)] = fh.Size
		}
	}
	return out
}

func (s *DemoServer) submissionsHandler(w http.ResponseWriter, r *http.Request) {
	subs := s.Submissions()
	if subs == nil {
		subs = []Submission{}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Seq > subs[j].Seq })
	writeJSON(w, http.StatusOK, subs)
}

func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.submissions = nil
	s.seq = 0
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *DemoServer) getModeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(s.Mode())})
}

func (s *DemoServer) setModeHandler(w http.ResponseWriter, r *http.Request) {
	m := Mode(r.URL.Query().Get("value"))
	if err := s.SetMode(m); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("mode changed", logging.Field{Key: "mode", Value: string(m)})
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(m)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
