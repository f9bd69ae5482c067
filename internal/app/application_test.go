package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/history"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
	"github.com/raysh454/policeform/internal/testutil"
)

func TestApplication_ServeEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	launcher := &testutil.FakeLauncher{NewPage: func() browser.Page { return formPage() }}

	a, err := NewApplication(cfg, logging.NewNopLogger(), WithLauncher(launcher))
	require.NoError(t, err)
	a.Orch.WithClock(func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := client.Post(base+"/api/police/submit/tenant", "application/json", strings.NewReader(`{"test": true}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = client.Post(base+"/api/police/submit/tenant", "application/json", strings.NewReader(validPayload))
	require.NoError(t, err)
	var res model.SubmissionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RJ/2024/0001", res.ReferenceNumber)

	resp, err = client.Get(base + "/api/police/submissions/" + res.SubmissionID)
	require.NoError(t, err)
	var rec history.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, model.JobSucceeded, rec.Status)
	assert.Equal(t, "Asha", rec.Applicant.FirstName)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	for _, c := range launcher.Counters() {
		assert.EqualValues(t, 1, c.Browser.Load(), "every launched browser is closed")
	}
}

func TestNewApplication_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Browser.MaxSessions = 0
	_, err := NewApplication(cfg, logging.NewNopLogger(), WithLauncher(&testutil.FakeLauncher{}))
	require.Error(t, err)
}

func TestApplication_Probe(t *testing.T) {
	cfg := testConfig()
	cfg.History.Enabled = false

	ok, err := NewApplication(cfg, logging.NewNopLogger(), WithLauncher(&testutil.FakeLauncher{}))
	require.NoError(t, err)
	defer ok.Close()
	require.NoError(t, ok.Probe(context.Background()))

	broken, err := NewApplication(cfg, logging.NewNopLogger(), WithLauncher(&testutil.FakeLauncher{FailFirst: 1}))
	require.NoError(t, err)
	defer broken.Close()
	require.Error(t, broken.Probe(context.Background()))
}
