// Package history keeps an audit trail of submissions in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrNotFound = errors.New("submission not found")

// Applicant is the non-sensitive subset of a request kept for operators.
// Identity numbers, phone numbers and addresses are never stored.
type Applicant struct {
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	PoliceDistrict string `json:"police_district,omitempty"`
	PoliceStation  string `json:"police_station,omitempty"`
}

// ApplicantOf extracts the stored subset from a request.
func ApplicantOf(req *model.SubmissionRequest) Applicant {
	if req == nil {
		return Applicant{}
	}
	return Applicant{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PoliceDistrict: req.PoliceDistrict,
		PoliceStation:  req.PoliceStation,
	}
}

type Record struct {
	ID              string          `json:"id"`
	Status          model.JobStatus `json:"status"`
	ErrorKind       model.ErrorKind `json:"error_kind,omitempty"`
	Message         string          `json:"message,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Applicant       Applicant       `json:"applicant"`
	CreatedAt       time.Time       `json:"created_at"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`
}

type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the SQLite file at path.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history pragmas: %w", err)
	}
	return db, nil
}

// NewStore runs the embedded schema against db.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &Store{db: db, logger: logger.With(logging.Field{Key: "component", Value: "history"})}, nil
}

// Insert records a new submission.
func (s *Store) Insert(ctx context.Context, id string, applicant Applicant, createdAt time.Time) error {
	raw, err := json.Marshal(applicant)
	if err != nil {
		return fmt.Errorf("encode applicant: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, status, applicant, created_at) VALUES (?, ?, ?, ?)`,
		id, string(model.JobIdle), string(raw), createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// SetStatus updates a non-terminal status.
func (s *Store) SetStatus(ctx context.Context, id string, status model.JobStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return requireRow(res)
}

// Finish stores the terminal result.
func (s *Store) Finish(ctx context.Context, id string, result *model.SubmissionResult, finishedAt time.Time) error {
	status := model.JobFailed
	if result.Success {
		status = model.JobSucceeded
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions
         SET status = ?, error_kind = ?, message = ?, reference_number = ?, finished_at = ?
         WHERE id = ?`,
		string(status), string(result.ErrorKind), result.Message, result.ReferenceNumber, finishedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("finish submission: %w", err)
	}
	return requireRow(res)
}

// Get returns one record or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, error_kind, message, reference_number, applicant, created_at, finished_at
         FROM submissions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns the newest records first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, error_kind, message, reference_number, applicant, created_at, finished_at
         FROM submissions
         ORDER BY created_at DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec       Record
		status    string
		kind      string
		applicant string
		created   int64
		finished  sql.NullInt64
	)
	if err := sc.Scan(&rec.ID, &status, &kind, &rec.Message, &rec.ReferenceNumber, &applicant, &created, &finished); err != nil {
		return nil, err
	}
	rec.Status = model.JobStatus(status)
	rec.ErrorKind = model.ErrorKind(kind)
	rec.CreatedAt = time.UnixMilli(created).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		rec.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(applicant), &rec.Applicant); err != nil {
		return nil, fmt.Errorf("decode applicant: %w", err)
	}
	return &rec, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
