package server

import "github.com/raysh454/policeform/internal/model"

// HealthResponse reports whether the process accepts requests.
type HealthResponse struct {
	Status       string `json:"status" example:"ok"`
	BrowserReady bool   `json:"browserReady" example:"true"`
}

// AsyncAcceptedResponse is returned for ?async=true submissions.
type AsyncAcceptedResponse struct {
	SubmissionID string          `json:"submission_id" example:"7c0e4c0e-4a4e-4f0c-9d84-0b5f1f3e9a11"`
	Status       model.JobStatus `json:"status" example:"idle"`
	// StatusURL polls the in-memory job.
	StatusURL string `json:"status_url" example:"/api/police/jobs/7c0e4c0e-4a4e-4f0c-9d84-0b5f1f3e9a11"`
	// EventsURL streams job events over a websocket.
	EventsURL string `json:"events_url" example:"/ws/submissions/7c0e4c0e-4a4e-4f0c-9d84-0b5f1f3e9a11"`
}

// CORSTestResponse echoes how the CORS allow-list treats the caller.
type CORSTestResponse struct {
	Message string `json:"message" example:"CORS is working"`
	Origin  string `json:"origin" example:"https://tenant-app.vercel.app"`
	Allowed bool   `json:"allowed" example:"true"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
