package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/logging"
)

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping chrome test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("chrome not installed")
}

const chromeFixture = `<!doctype html><html><body>
<input id="name" value="old">
<select id="state"><option value="0">--Select--</option><option value="29">Rajasthan</option></select>
<select id="district"><option value="0">--Select--</option></select>
<input id="photo" type="file">
<script>
document.getElementById('state').addEventListener('change', function () {
	var d = document.getElementById('district');
	d.add(new Option('Jaipur East', '101'));
});
</script>
</body></html>`

func TestChromeLauncher_PageOperations(t *testing.T) {
	requireChrome(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, chromeFixture)
	}))
	defer ts.Close()

	launcher := browser.NewChromeLauncher(browser.ChromeConfig{Headless: true, IdleAfter: 100 * time.Millisecond}, logging.NewNopLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sess, err := launcher.Launch(ctx)
	require.NoError(t, err)
	defer sess.Close()
	page := sess.Page

	require.NoError(t, page.Navigate(ctx, ts.URL))

	ok, err := page.Exists(ctx, "#name")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = page.Exists(ctx, "#missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, page.SetText(ctx, "#name", "Asha"))

	n, err := page.OptionCount(ctx, "#district")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err = page.SelectByLabel(ctx, "#state", "rajasthan")
	require.NoError(t, err)
	assert.True(t, ok)
	n, err = page.OptionCount(ctx, "#district")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err = page.SelectByValue(ctx, "#district", "999")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, page.WaitNetworkIdle(ctx))

	html, err := page.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Jaipur East")
}
