package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookscan/internal/acquisition"
	"bookscan/internal/app"
	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/ledger"
	"bookscan/internal/testutil"
)

type staticSource struct{}

func (staticSource) Name() string { return "static" }

func (staticSource) Lookup(_ context.Context, isbn string) (acquisition.Bibliographic, error) {
	return acquisition.Bibliographic{Source: "static", ISBN13: isbn, Title: "CGI Programming with Perl"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.JWTSecret = testutil.TestSecret
	cfg.HTTP.RateLimitBurst = 1000

	db := testutil.NewSQLite(t)
	st := app.Stores{
		Books:  book.NewSQLiteRepo(db, time.Second),
		Ledger: ledger.NewSQLiteStore(db, time.Second, cfg.Ledger.StartingCredits),
		Ping:   db.PingContext,
		Close:  func() {},
	}
	return newRouter(cfg, st, []acquisition.BibliographicSource{staticSource{}}, nil, zap.NewNop())
}

func serve(h http.Handler, r *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func TestRouting_Probes(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"), path)
	}
}

func TestRouting_PublicRoutes(t *testing.T) {
	h := newTestRouter(t)

	resp := serve(h, testutil.NewRequest(http.MethodPost, "/v1/isbn/normalize", map[string]string{"code": "not-a-book"}))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = serve(h, testutil.NewRequest(http.MethodPost, "/v1/isbn/normalize", map[string]string{"code": "059600048000"}))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, testutil.SampleISBN, resp.Data()["isbn13"])

	resp = serve(h, testutil.NewRequest(http.MethodGet, "/v1/books/"+testutil.SampleISBN, nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/v1/isbn/normalize", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouting_ProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)

	for _, r := range []*http.Request{
		testutil.NewRequest(http.MethodPost, "/v1/scans", map[string]string{"code": testutil.SampleISBN}),
		testutil.NewRequest(http.MethodGet, "/v1/me", nil),
		testutil.NewRequest(http.MethodGet, "/v1/me/books", nil),
		testutil.NewRequest(http.MethodDelete, "/v1/me/books/"+testutil.SampleISBN, nil),
		testutil.NewRequest(http.MethodGet, "/v1/me/export.csv", nil),
		testutil.NewRequestWithAuth(http.MethodGet, "/v1/me", nil,
			testutil.GenerateExpiredToken(testutil.TestSecret, testutil.TestUserID, "USER")),
	} {
		resp := serve(h, r)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, r.URL.Path)
		assert.Equal(t, "UNAUTHORIZED", resp.ErrorCode(), r.URL.Path)
	}
}

func TestRouting_ScanFlow(t *testing.T) {
	h := newTestRouter(t)
	token := testutil.GenerateTestToken(testutil.TestSecret, testutil.TestUserID, "USER")

	resp := serve(h, testutil.NewRequestWithAuth(http.MethodPost, "/v1/scans", map[string]string{"code": "0-596-00048-0"}, token))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.EqualValues(t, 9, resp.Data()["credits"])

	resp = serve(h, testutil.NewRequest(http.MethodGet, "/v1/books/0596000480", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "CGI Programming with Perl", resp.Data()["title"])

	resp = serve(h, testutil.NewRequestWithAuth(http.MethodGet, "/v1/me", nil, token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []any{testutil.SampleISBN}, resp.Data()["isbns"])

	w := httptest.NewRecorder()
	h.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/v1/me/export.csv", nil, token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"`+testutil.SampleISBN+`"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodDelete, "/v1/me/books/"+testutil.SampleISBN, nil, token))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouting_WebhookDisabledWithoutSecret(t *testing.T) {
	h := newTestRouter(t)
	resp := serve(h, testutil.NewRequest(http.MethodPost, "/v1/payments/webhook", map[string]string{}))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
