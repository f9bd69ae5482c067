package model_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/policeform/internal/model"
)

// ─── Request decoding ──────────────────────────────────────────────────

func TestSubmissionRequest_UnmarshalKnownAndExtensions(t *testing.T) {
	t.Parallel()

	body := `{"first_name":" Ravi ","age":31,"rent_amount":4500.5,"nickname":"rv","test":true,"middle_name":null}`
	var req model.SubmissionRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "Ravi", req.FirstName)
	assert.Equal(t, "31", req.Age)
	assert.Equal(t, "4500.5", req.RentAmount)
	assert.Empty(t, req.MiddleName)
	require.Len(t, req.Extensions, 2)
	assert.JSONEq(t, `"rv"`, string(req.Extensions["nickname"]))
	assert.JSONEq(t, `true`, string(req.Extensions["test"]))
}

func TestSubmissionRequest_RejectsNonTextKnownField(t *testing.T) {
	t.Parallel()

	var req model.SubmissionRequest
	err := json.Unmarshal([]byte(`{"phone":{"n":1}}`), &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone")
}

func TestKnownKeys(t *testing.T) {
	t.Parallel()
	keys := model.KnownKeys()
	assert.Contains(t, keys, "date_of_birth")
	assert.Contains(t, keys, "landlord_station")
	assert.NotContains(t, keys, "extensions")
}

// ─── Resolve / defaults ────────────────────────────────────────────────

func TestAgeAt_BirthdayBoundary(t *testing.T) {
	t.Parallel()

	dob := time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, model.AgeAt(dob, time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, model.AgeAt(dob, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
}

func TestResolve_DerivesAge(t *testing.T) {
	t.Parallel()

	req := model.SubmissionRequest{DateOfBirth: "15-06-2000"}

	before, err := model.Resolve(req, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "23", before.Age)
	assert.True(t, before.AgeDerived)

	on, err := model.Resolve(req, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "24", on.Age)
}

func TestResolve_KeepsSuppliedAge(t *testing.T) {
	t.Parallel()

	r, err := model.Resolve(model.SubmissionRequest{DateOfBirth: "15-06-2000", Age: "40"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "40", r.Age)
	assert.False(t, r.AgeDerived)
}

func TestResolve_AppliesDefaultsTable(t *testing.T) {
	t.Parallel()

	req := model.SubmissionRequest{
		DateOfBirth:      "01-01-1990",
		PermanentAddress: "12 MI Road, Jaipur",
		PoliceDistrict:   "Jaipur East",
		PoliceStation:    "Adarsh Nagar",
		Extensions:       map[string]json.RawMessage{"x": json.RawMessage(`1`)},
	}
	r, err := model.Resolve(req, time.Now())
	require.NoError(t, err)

	d := model.Defaults
	assert.Equal(t, d.IDType, r.IDType)
	assert.Equal(t, d.Caste, r.Caste)
	assert.Equal(t, d.RentAmount, r.RentAmount)
	assert.Equal(t, d.RentalPeriod, r.RentalDuration)
	assert.Equal(t, d.PropertyType, r.PropertyType)
	assert.Equal(t, d.ReferencedBy, r.ReferencedBy)
	assert.Equal(t, "ZZZ", r.LandlordFirstName)
	assert.Equal(t, "AAA", r.LandlordLastName)
	assert.Equal(t, "SSS", r.LandlordFatherFirstName)
	assert.Equal(t, "ZZZ", r.LandlordFatherLastName)
	assert.Equal(t, "9999999999", r.LandlordMobile)

	assert.Equal(t, req.PermanentAddress, r.RentedAddress)
	assert.Equal(t, req.PermanentAddress, r.LandlordAddress)
	assert.Equal(t, req.PoliceDistrict, r.LandlordDistrict)
	assert.Equal(t, req.PoliceStation, r.LandlordStation)
	assert.Nil(t, r.Extensions)

	// Input is untouched.
	assert.Empty(t, req.RentedAddress)
	assert.Len(t, req.Extensions, 1)
}

func TestResolve_LandlordAddressPrefersRented(t *testing.T) {
	t.Parallel()

	r, err := model.Resolve(model.SubmissionRequest{
		DateOfBirth:      "01-01-1990",
		PermanentAddress: "home",
		RentedAddress:    "flat 4",
	}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "flat 4", r.LandlordAddress)
}

func TestResolve_BadDOB(t *testing.T) {
	t.Parallel()
	_, err := model.Resolve(model.SubmissionRequest{DateOfBirth: "2000-06-15"}, time.Now())
	require.Error(t, err)
}

// ─── Errors / results ──────────────────────────────────────────────────

func TestErrorKind_HTTPStatus(t *testing.T) {
	t.Parallel()

	cases := map[model.ErrorKind]int{
		model.KindValidation:       http.StatusBadRequest,
		model.KindBrowserUnavail:   http.StatusServiceUnavailable,
		model.KindFileFetch:        http.StatusInternalServerError,
		model.KindRemoteValidation: http.StatusInternalServerError,
		model.KindReferenceMissing: http.StatusInternalServerError,
		model.KindTimeout:          http.StatusInternalServerError,
		model.KindSubmission:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind)
	}
}

func TestAsSubmissionError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, model.AsSubmissionError(nil))

	wrapped := fmt.Errorf("outer: %w", model.NewError(model.KindFileFetch, "404", nil))
	assert.Equal(t, model.KindFileFetch, model.AsSubmissionError(wrapped).Kind)

	timeout := fmt.Errorf("wait: %w", context.DeadlineExceeded)
	se := model.AsSubmissionError(timeout)
	assert.Equal(t, model.KindTimeout, se.Kind)
	assert.True(t, errors.Is(se, context.DeadlineExceeded))

	assert.Equal(t, model.KindSubmission, model.AsSubmissionError(errors.New("x")).Kind)
}

func TestSubmissionResult_NeverPartial(t *testing.T) {
	t.Parallel()

	ok := model.NewSuccess("id-1", "RJ/2024/1")
	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"reference_number":"RJ/2024/1","submission_id":"id-1"}`, string(raw))
	assert.Equal(t, http.StatusOK, ok.HTTPStatus())

	fail := model.NewFailure("id-2", model.NewError(model.KindBrowserUnavail, "no browser", nil))
	raw, err = json.Marshal(fail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error_kind":"BROWSER_UNAVAILABLE","message":"no browser","retryable":true,"submission_id":"id-2"}`, string(raw))
	assert.Equal(t, http.StatusServiceUnavailable, fail.HTTPStatus())
}
