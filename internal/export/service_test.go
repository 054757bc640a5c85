package export

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscan/internal/book"
	"bookscan/internal/httpx"
	"bookscan/internal/ledger"
	"bookscan/internal/testutil"
)

var inventory = []string{"9780596000486", "9780441013593", "9781565924192"}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewSQLite(t)
	books := book.NewSQLiteRepo(db, time.Second)
	profiles := ledger.NewService(ledger.NewSQLiteStore(db, time.Second, 10), ledger.Config{EnforceCreditFloor: true}, nil)

	ctx := context.Background()
	for i, id := range inventory {
		_, err := books.Upsert(ctx, book.Book{ID: id, Title: book.Str("Book " + string(rune('A'+i)))})
		require.NoError(t, err)
		_, err = profiles.AddToUser(ctx, id, "u1")
		require.NoError(t, err)
	}
	return NewService(profiles, book.NewService(books), Options{})
}

func dataSKUs(out string) []string {
	lines := strings.Split(out, "\n")[1:]
	skus := make([]string, 0, len(lines))
	for _, l := range lines {
		skus = append(skus, strings.Trim(strings.Split(l, ",")[1], `"`))
	}
	return skus
}

func TestExportForUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("whole inventory in acquisition order", func(t *testing.T) {
		out, err := svc.ExportForUser(ctx, "u1", nil)
		require.NoError(t, err)
		assert.Equal(t, inventory, dataSKUs(out))
	})

	t.Run("subset keeps inventory order and drops unowned", func(t *testing.T) {
		out, err := svc.ExportForUser(ctx, "u1", []string{"9781565924192", "9780000000002", "9780596000486"})
		require.NoError(t, err)
		assert.Equal(t, []string{"9780596000486", "9781565924192"}, dataSKUs(out))
	})

	t.Run("empty inventory is header only", func(t *testing.T) {
		out, err := svc.ExportForUser(ctx, "u2", nil)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(Columns, ","), out)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.ExportForUser(ctx, "", nil)
		assert.ErrorIs(t, err, ledger.ErrMissingUserID)
	})
}

type failingBooks struct{}

func (failingBooks) ListByIDs(context.Context, []string) ([]book.Book, error) {
	return nil, errors.New("db down")
}

func TestHTTPHandler_CSV(t *testing.T) {
	h := NewHTTPHandler(newTestService(t), nil)

	t.Run("attachment", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/me/export.csv?isbn=0441013597", nil)
		r = r.WithContext(httpx.ContextWithUser(r.Context(), "u1", "USER"))
		w := httptest.NewRecorder()
		h.CSV(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="woocommerce_products.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, []string{"9780441013593"}, dataSKUs(w.Body.String()))
	})

	t.Run("invalid isbn", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/me/export.csv?isbn=abc", nil)
		r = r.WithContext(httpx.ContextWithUser(r.Context(), "u1", "USER"))
		w := httptest.NewRecorder()
		h.CSV(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", testutil.RecordHTTPResponse(w).ErrorCode())
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.CSV(w, httptest.NewRequest(http.MethodGet, "/v1/me/export.csv", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		db := testutil.NewSQLite(t)
		profiles := ledger.NewService(ledger.NewSQLiteStore(db, time.Second, 10), ledger.Config{}, nil)
		h := NewHTTPHandler(NewService(profiles, failingBooks{}, Options{}), nil)

		r := httptest.NewRequest(http.MethodGet, "/v1/me/export.csv", nil)
		r = r.WithContext(httpx.ContextWithUser(r.Context(), "u1", "USER"))
		w := httptest.NewRecorder()
		h.CSV(w, r)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
