package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/policeform/internal/form"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/testutil"
)

var nameField = form.Field{
	Name:      "first_name",
	Kind:      form.Text,
	Selectors: []string{"#primary", "#secondary", "#tertiary"},
}

// ─── Fill ──────────────────────────────────────────────────────────────

func TestFiller_FillsFirstExistingCandidate(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddInput("#secondary").AddInput("#tertiary")
	f := form.NewFiller(logging.NewNopLogger())

	filled, err := f.Fill(context.Background(), page, nameField, "Asha")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, "Asha", page.Value("#secondary"))
	assert.Empty(t, page.Value("#tertiary"))
	assert.False(t, page.Called("SetText:#primary=Asha"))
	assert.Equal(t, []string{"WaitVisible:#secondary", "SetText:#secondary=Asha"}, page.Calls())
}

func TestFiller_EmptyValueIsNoop(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddInput("#primary")
	filled, err := form.NewFiller(logging.NewNopLogger()).Fill(context.Background(), page, nameField, "")
	require.NoError(t, err)
	assert.False(t, filled)
	assert.Empty(t, page.Calls())
}

func TestFiller_MissingFieldIsNoop(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage()
	filled, err := form.NewFiller(logging.NewNopLogger()).Fill(context.Background(), page, nameField, "Asha")
	require.NoError(t, err)
	assert.False(t, filled)
}

func TestFiller_PropagatesPageError(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddInput("#primary")
	page.Fail = map[string]error{"SetText": errors.New("detached")}

	_, err := form.NewFiller(logging.NewNopLogger()).Fill(context.Background(), page, nameField, "Asha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first_name")
}

func TestFiller_FileField(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddInput("input[type='file']")
	filled, err := form.NewFiller(logging.NewNopLogger()).Fill(context.Background(), page, form.Photo, "/tmp/p.jpg")
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, []string{"/tmp/p.jpg"}, page.Files("input[type='file']"))
}

// ─── Choose ────────────────────────────────────────────────────────────

func TestFiller_ChooseLabelFirst(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddSelect("#caste",
		testutil.FakeOption{Label: "--Select--", Value: "0"},
		testutil.FakeOption{Label: "General", Value: "1"},
	)
	require.NoError(t, form.NewFiller(logging.NewNopLogger()).Choose(context.Background(), page, "#caste", "general"))
	assert.Equal(t, "1", page.Value("#caste"))
	assert.False(t, page.Called("SelectByValue:#caste=general"))
}

func TestFiller_ChooseFallsBackToValue(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddSelect("#caste",
		testutil.FakeOption{Label: "GEN", Value: "General"},
	)
	require.NoError(t, form.NewFiller(logging.NewNopLogger()).Choose(context.Background(), page, "#caste", "General"))
	assert.Equal(t, "General", page.Value("#caste"))
	assert.Equal(t, []string{"SelectByLabel:#caste=General", "SelectByValue:#caste=General"}, page.Calls())
}

func TestFiller_ChooseNoMatch(t *testing.T) {
	t.Parallel()

	page := testutil.NewFakePage().AddSelect("#caste", testutil.FakeOption{Label: "OBC", Value: "2"})
	err := form.NewFiller(logging.NewNopLogger()).Choose(context.Background(), page, "#caste", "General")
	require.Error(t, err)
}
