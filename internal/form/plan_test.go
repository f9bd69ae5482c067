package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/policeform/internal/form"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
	"github.com/raysh454/policeform/internal/testutil"
)

type mapResolver struct {
	mu    sync.Mutex
	paths map[string]string
	calls []string
	err   error
}

func (r *mapResolver) Resolve(_ context.Context, ref string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ref)
	if r.err != nil {
		return "", r.err
	}
	return r.paths[ref], nil
}

// fullFormPage registers the first candidate of every field.
func fullFormPage() *testutil.FakePage {
	page := cascadingPage()
	for _, f := range []form.Field{
		form.IDNumber, form.FirstName, form.LastName, form.FatherFirstName, form.FatherLastName,
		form.DateOfBirth, form.Age, form.Phone, form.PermanentAddress, form.RentedAddress,
		form.RentAmount, form.RentalDuration, form.ReferencedBy,
		form.LandlordFirstName, form.LandlordLastName, form.LandlordFatherFirstName,
		form.LandlordFatherLastName, form.LandlordMobile, form.LandlordAddress,
		form.Photo,
	} {
		page.AddInput(f.Selectors[0])
	}
	page.AddSelect(form.IDType.Selectors[0], testutil.FakeOption{Label: "Aadhaar Card", Value: "1"})
	page.AddSelect(form.Caste.Selectors[0], testutil.FakeOption{Label: "General", Value: "G"})
	page.AddSelect(form.PropertyType.Selectors[0], testutil.FakeOption{Label: "Residential", Value: "R"})
	page.AddSelect(form.LandlordDistrict.Selectors[0], placeholder, testutil.FakeOption{Label: "Jaipur East", Value: "101"})
	page.AddSelect(form.LandlordStation.Selectors[0], placeholder)

	base := page.OnSelect
	page.OnSelect = func(p *testutil.FakePage, selector, value string) {
		base(p, selector, value)
		if selector == form.LandlordDistrict.Selectors[0] {
			p.SetOptions(form.LandlordStation.Selectors[0], placeholder, testutil.FakeOption{Label: "Adarsh Nagar", Value: "5001"})
		}
	}
	return page
}

func resolved(t *testing.T) model.ResolvedSubmission {
	t.Helper()
	r, err := model.Resolve(model.SubmissionRequest{
		IDNumber:         "1234-5678-9012",
		FirstName:        "Asha",
		LastName:         "Meena",
		FatherFirstName:  "Ramesh",
		FatherLastName:   "Meena",
		DateOfBirth:      "15-06-2000",
		State:            "Rajasthan",
		PoliceDistrict:   "Jaipur East",
		PoliceStation:    "Adarsh Nagar",
		Phone:            "9876543210",
		PermanentAddress: "12 MI Road",
		PhotoURL:         "https://cdn.example/p.png",
	}, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func TestTenantForm_FillsEverySection(t *testing.T) {
	t.Parallel()

	page := fullFormPage()
	files := &mapResolver{paths: map[string]string{"https://cdn.example/p.png": "/tmp/attachment-1.png"}}
	filler := form.NewFiller(logging.NewNopLogger())
	tf := form.NewTenantForm("https://form.test/verify.aspx", filler, newCascade(time.Second), logging.NewNopLogger())

	var steps []string
	err := tf.Fill(context.Background(), page, resolved(t), files, func(s string) { steps = append(steps, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{form.StepTenant, form.StepLocation, form.StepLandlord, form.StepAttachments}, steps)
	assert.Equal(t, "Navigate:https://form.test/verify.aspx", page.Calls()[0])

	assert.Equal(t, "Asha", page.Value(form.FirstName.Selectors[0]))
	assert.Equal(t, "24", page.Value(form.Age.Selectors[0]))
	assert.Equal(t, "1", page.Value(form.IDType.Selectors[0]))
	assert.Equal(t, "12 MI Road", page.Value(form.RentedAddress.Selectors[0]))
	assert.Equal(t, "5001", page.Value(stationSel))
	assert.Equal(t, "ZZZ", page.Value(form.LandlordFirstName.Selectors[0]))
	assert.Equal(t, "5001", page.Value(form.LandlordStation.Selectors[0]))
	assert.Equal(t, []string{"/tmp/attachment-1.png"}, page.Files(form.Photo.Selectors[0]))
	assert.Equal(t, []string{"https://cdn.example/p.png"}, files.calls)
}

func TestTenantForm_AttachmentFailureStops(t *testing.T) {
	t.Parallel()

	page := fullFormPage()
	files := &mapResolver{err: model.NewError(model.KindFileFetch, "status 404", nil)}
	tf := form.NewTenantForm("", form.NewFiller(logging.NewNopLogger()), newCascade(time.Second), logging.NewNopLogger())

	err := tf.Fill(context.Background(), page, resolved(t), files, nil)
	var se *model.SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, model.KindFileFetch, se.Kind)
	assert.Equal(t, "Navigate:"+form.DefaultURL, page.Calls()[0])
}
