package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"storefront/internal/http/handlers"
	"storefront/internal/query"
	"storefront/internal/repos"
	"storefront/internal/session"
)

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	data *query.Client
}

const apiToken = "test-api-token"

func newEnv(t *testing.T, opt handlers.AppOptions) *testEnv {
	t.Helper()
	if opt.APIToken == "" {
		opt.APIToken = apiToken
	}
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedDemo(db))

	data := query.NewClient(zerolog.Nop())
	data.Bind(repos.NewStore(db))
	deps := handlers.NewDeps(data, repos.NewUserRepo(db), session.NewStore())
	return &testEnv{app: handlers.NewApp(deps, opt), db: db, data: data}
}

// browser keeps cookies between requests the way a real one would.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *testEnv) browser(t *testing.T) *browser {
	b := &browser{t: t, app: e.app, cookies: map[string]string{}}
	// first page view issues the CSRF cookie
	b.get("/")
	require.NotEmpty(t, b.cookies["csrf_"], "csrf cookie missing")
	return b
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", b.cookies["csrf_"])
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }

type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (w *lockedBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
