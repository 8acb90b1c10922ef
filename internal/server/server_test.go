package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sakif/video-catalog/internal/auth"
	"github.com/sakif/video-catalog/internal/config"
	"github.com/sakif/video-catalog/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "video-catalog", Env: "test", Host: "127.0.0.1", Port: 8080},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"},
		Session: config.SessionConfig{
			Secret:     "server-test-secret-0123456789",
			CookieName: auth.DefaultCookieName,
			TTLMinutes: 60,
		},
		Auth: config.AuthConfig{Admins: []string{auth.DefaultAdmin}, BcryptCost: 4},
		Log:  config.LogConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// browser is one user agent with its own cookie jar. Redirects are not
// followed so tests can assert on the 303 responses themselves.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: ts.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return readResponse(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return readResponse(b.t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// TestCatalogWorkflow walks the full user story: a regular user and the admin
// register, the admin curates the catalog and the regular user cannot.
func TestCatalogWorkflow(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := newBrowser(t, ts)
	admin := newBrowser(t, ts)

	// alice registers and sees an empty catalog without admin controls.
	code, loc, _ := alice.post("/register", credentials("alice", "pw1"))
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/dashboard", loc)

	code, _, body := alice.get("/dashboard")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Welcome, alice")
	assert.Contains(t, body, "No videos yet.")
	assert.NotContains(t, body, `action="/add_video"`)

	// The admin registers under the allow-listed name.
	code, loc, _ = admin.post("/register", credentials(auth.DefaultAdmin, "adminpw"))
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/dashboard", loc)

	code, _, body = admin.get("/dashboard")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `action="/add_video"`)

	// Admin adds two videos; the newest is listed first.
	code, loc, _ = admin.post("/add_video", url.Values{
		"title": {"Basics"},
		"url":   {"https://www.youtube.com/embed/basics"},
	})
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/dashboard", loc)

	code, _, _ = admin.post("/add_video", url.Values{
		"title":       {"Intro"},
		"description": {"Start here"},
		"url":         {"https://www.youtube.com/embed/intro"},
	})
	require.Equal(t, http.StatusSeeOther, code)

	_, _, body = alice.get("/dashboard")
	assert.Contains(t, body, "Start here")
	assert.Less(t, strings.Index(body, "Intro"), strings.Index(body, "Basics"))
	assert.NotContains(t, body, `action="/delete_video/`)

	// alice cannot delete; she is bounced back and the video stays.
	code, loc, _ = alice.post("/delete_video/2", nil)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/dashboard", loc)

	_, _, body = admin.get("/dashboard")
	assert.Contains(t, body, `action="/delete_video/2"`)

	// Admin deletes both; a second delete of the same id is a 404.
	code, loc, _ = admin.post("/delete_video/2", nil)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/dashboard", loc)
	code, _, _ = admin.post("/delete_video/1", nil)
	assert.Equal(t, http.StatusSeeOther, code)

	code, _, _ = admin.post("/delete_video/2", nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, _, body = alice.get("/dashboard")
	assert.Contains(t, body, "No videos yet.")
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, testConfig())
	b := newBrowser(t, ts)

	code, loc, _ := b.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, code, "anonymous dashboard")
	assert.Equal(t, "/", loc)

	code, _, body := b.get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `action="/login"`)

	code, _, _ = b.post("/register", credentials("bob", "pw"))
	require.Equal(t, http.StatusSeeOther, code)

	code, loc, _ = b.get("/")
	assert.Equal(t, http.StatusSeeOther, code, "signed-in landing")
	assert.Equal(t, "/dashboard", loc)

	code, loc, _ = b.get("/logout")
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/", loc)

	code, _, _ = b.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, code, "dashboard after logout")

	code, _, body = b.post("/login", credentials("bob", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body, "Invalid username or password.")

	code, _, body = b.post("/register", credentials("bob", "other"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body, "Username already exists.")

	code, loc, _ = b.post("/login", credentials("bob", "pw"))
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/dashboard", loc)

	code, _, _ = b.get("/dashboard")
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	ts := newTestServer(t, testConfig())
	anon := newBrowser(t, ts)
	carol := newBrowser(t, ts)
	admin := newBrowser(t, ts)

	_, _, _ = carol.post("/register", credentials("carol", "pw"))
	_, _, _ = admin.post("/register", credentials(auth.DefaultAdmin, "pw"))

	add := url.Values{"title": {"x"}, "url": {"https://x"}}

	code, loc, _ := anon.post("/add_video", add)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/", loc)

	code, loc, _ = carol.post("/add_video", add)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/dashboard", loc)

	code, loc, _ = carol.get("/admin_users")
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/dashboard", loc)

	code, _, body := admin.get("/admin_users")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "carol")
	assert.Contains(t, body, auth.DefaultAdmin)

	_, _, body = carol.get("/dashboard")
	assert.Contains(t, body, "No videos yet.", "rejected add stored nothing")
}

func TestConfiguredAdminList(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Admins = []string{"root"}
	ts := newTestServer(t, cfg)

	defaultAdmin := newBrowser(t, ts)
	_, _, _ = defaultAdmin.post("/register", credentials(auth.DefaultAdmin, "pw"))
	_, _, body := defaultAdmin.get("/dashboard")
	assert.NotContains(t, body, `action="/add_video"`)

	root := newBrowser(t, ts)
	_, _, _ = root.post("/register", credentials("root", "pw"))
	_, _, body = root.get("/dashboard")
	assert.Contains(t, body, `action="/add_video"`)
}

func TestGeneratedSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Secret = ""
	ts := newTestServer(t, cfg)
	b := newBrowser(t, ts)

	code, _, _ := b.post("/register", credentials("dave", "pw"))
	require.Equal(t, http.StatusSeeOther, code)
	code, _, _ = b.get("/dashboard")
	assert.Equal(t, http.StatusOK, code)
}

func TestInfrastructureRoutes(t *testing.T) {
	ts := newTestServer(t, testConfig())
	b := newBrowser(t, ts)

	code, _, body := b.get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, body)

	resp, err := http.Get(ts.URL + "/static/style.css")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")

	code, _, _ = b.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "mysql"

	_, err := server.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
