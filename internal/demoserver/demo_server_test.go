package demoserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/policeform/internal/extract"
	"github.com/raysh454/policeform/internal/logging"
)

func newTestServer(t *testing.T, mode Mode) (*DemoServer, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.CascadeDelay = 0
	s := NewDemoServer(cfg, logging.NewNopLogger())
	s.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func validFields() map[string]string {
	return map[string]string{
		"txtFirstName":     "Asha",
		"txtLastName":      "Verma",
		"txtDOB":           "15-06-2000",
		"ddlState":         rajasthan,
		"ddlDistrict":      "101",
		"ddlPoliceStation": "1013",
	}
}

func postForm(t *testing.T, url string, fields map[string]string, photo []byte) (int, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(fieldPrefix+k, v))
	}
	require.NoError(t, mw.WriteField(fieldPrefix+"btnSubmit", "Submit"))
	if photo != nil {
		fw, err := mw.CreateFormFile(fieldPrefix+"fuPhoto", "photo.jpg")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+FormPath, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestFormPage_RendersControls(t *testing.T) {
	_, ts := newTestServer(t, ModeAccept)
	status, page := get(t, ts.URL+FormPath)
	require.Equal(t, http.StatusOK, status)

	for _, id := range []string{
		"ContentPlaceHolder1_txtFirstName",
		"ContentPlaceHolder1_txtDOB",
		"ContentPlaceHolder1_ddlState",
		"ContentPlaceHolder1_ddlDistrict",
		"ContentPlaceHolder1_ddlPoliceStation",
		"ContentPlaceHolder1_ddlOwnerDistrict",
		"ContentPlaceHolder1_ddlOwnerPoliceStation",
		"ContentPlaceHolder1_fuPhoto",
		"ContentPlaceHolder1_btnSubmit",
	} {
		assert.Contains(t, page, `id="`+id+`"`)
	}

	// A fresh form must not read as a rejected submission.
	assert.Empty(t, extract.ValidationErrors(page))
	_, ok := extract.ReferenceNumber(page)
	assert.False(t, ok)
}

func TestCascade(t *testing.T) {
	_, ts := newTestServer(t, ModeAccept)

	tests := []struct {
		query string
		want  []Option
	}{
		{"list=district&parent=29", districtOptions(rajasthan)},
		{"list=district&parent=8", []Option{}},
		{"list=station&parent=102", []Option{{"1021", "Vaishali Nagar"}, {"1022", "Sodala"}}},
		{"list=station&parent=999", []Option{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := get(t, ts.URL+"/old/cascade?"+tt.query)
			require.Equal(t, http.StatusOK, status)
			var got []Option
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	status, _ := get(t, ts.URL+"/old/cascade?list=caste")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSubmit_Accepted(t *testing.T) {
	s, ts := newTestServer(t, ModeAccept)

	status, page := postForm(t, ts.URL, validFields(), []byte("jpeg"))
	require.Equal(t, http.StatusOK, status)

	ref, ok := extract.ReferenceNumber(page)
	require.True(t, ok, page)
	assert.Equal(t, "RJ/JPE/2024/000001", ref)
	assert.Empty(t, extract.ValidationErrors(page))
	assert.Contains(t, page, "Malviya Nagar")

	subs := s.Submissions()
	require.Len(t, subs, 1)
	assert.True(t, subs[0].Accepted)
	assert.Equal(t, "Asha", subs[0].Fields["txtFirstName"])
	assert.NotContains(t, subs[0].Fields, "btnSubmit")
	assert.EqualValues(t, 4, subs[0].Files["fuPhoto"])
}

func TestSubmit_MissingFields(t *testing.T) {
	s, ts := newTestServer(t, ModeAccept)

	fields := validFields()
	delete(fields, "txtFirstName")
	fields["txtDOB"] = "2000-06-15"
	fields["ddlPoliceStation"] = "0"

	status, page := postForm(t, ts.URL, fields, nil)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, []string{
		"First Name is required",
		"Date of Birth is invalid, use DD-MM-YYYY",
		"Please select Police Station",
	}, extract.ValidationErrors(page))
	_, ok := extract.ReferenceNumber(page)
	assert.False(t, ok)

	subs := s.Submissions()
	require.Len(t, subs, 1)
	assert.False(t, subs[0].Accepted)
}

func TestSubmit_Modes(t *testing.T) {
	s, ts := newTestServer(t, ModeAccept)

	resp, err := http.Post(ts.URL+"/demo/mode?value=reject", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ModeReject, s.Mode())

	_, page := postForm(t, ts.URL, validFields(), nil)
	assert.Equal(t, []string{"Server is busy, please try again later"}, extract.ValidationErrors(page))

	require.NoError(t, s.SetMode(ModeNoReference))
	_, page = postForm(t, ts.URL, validFields(), nil)
	assert.Empty(t, extract.ValidationErrors(page))
	_, ok := extract.ReferenceNumber(page)
	assert.False(t, ok)
	assert.Contains(t, page, "has been saved")

	resp, err = http.Post(ts.URL+"/demo/mode?value=sideways", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmit_HangReleasedByClient(t *testing.T) {
	s, ts := newTestServer(t, ModeHang)

	client := &http.Client{Timeout: 200 * time.Millisecond}
	req, err := http.NewRequest(http.MethodPost, ts.URL+FormPath, strings.NewReader("ctl00%24ContentPlaceHolder1%24txtFirstName=Asha"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = client.Do(req)
	require.Error(t, err)
	assert.Empty(t, s.Submissions())
}

func TestSubmissionsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, ModeAccept)
	postForm(t, ts.URL, validFields(), nil)
	postForm(t, ts.URL, validFields(), nil)

	_, body := get(t, ts.URL+"/demo/submissions")
	var subs []Submission
	require.NoError(t, json.Unmarshal([]byte(body), &subs))
	require.Len(t, subs, 2)
	assert.Equal(t, 2, subs[0].Seq, "newest first")
	assert.Equal(t, "RJ/JPE/2024/000002", subs[0].Reference)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/demo/submissions", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = get(t, ts.URL+"/demo/submissions")
	assert.JSONEq(t, `[]`, body)
}
