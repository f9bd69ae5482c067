package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/raysh454/policeform/internal/history"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := history.NewStore(db, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStore_InsertFinishGet(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	created := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	app := history.ApplicantOf(&model.SubmissionRequest{FirstName: "Asha", LastName: "Meena", IDNumber: "secret", PoliceDistrict: "Jaipur East"})
	if err := store.Insert(ctx, "sub-1", app, created); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.SetStatus(ctx, "sub-1", model.JobFilling); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	rec, err := store.Get(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != model.JobFilling || rec.FinishedAt != nil {
		t.Fatalf("unexpected in-flight record: %+v", rec)
	}

	finished := created.Add(40 * time.Second)
	if err := store.Finish(ctx, "sub-1", model.NewSuccess("sub-1", "RJ/77"), finished); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	rec, err = store.Get(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != model.JobSucceeded || rec.ReferenceNumber != "RJ/77" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !rec.CreatedAt.Equal(created) || rec.FinishedAt == nil || !rec.FinishedAt.Equal(finished) {
		t.Errorf("timestamps not preserved: %+v", rec)
	}
	if rec.Applicant.FirstName != "Asha" || rec.Applicant.PoliceDistrict != "Jaipur East" {
		t.Errorf("applicant not preserved: %+v", rec.Applicant)
	}
}

func TestStore_FailureRecord(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, "sub-2", history.Applicant{}, time.Now()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	res := model.NewFailure("sub-2", model.NewError(model.KindReferenceMissing, "verify manually", nil))
	if err := store.Finish(ctx, "sub-2", res, time.Now()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	rec, err := store.Get(ctx, "sub-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != model.JobFailed || rec.ErrorKind != model.KindReferenceMissing || rec.Message != "verify manually" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestStore_NotFound(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.SetStatus(context.Background(), "nope", model.JobFilling); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Insert(ctx, id, history.Applicant{}, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	recs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "c" || recs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", recs)
	}
}
