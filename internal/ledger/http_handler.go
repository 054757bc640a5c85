package ledger

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"bookscan/internal/book"
	"bookscan/internal/httpx"
	"bookscan/internal/isbn"
)

type BookReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]book.Book, error)
}

type HTTPHandler struct {
	service *Service
	books   BookReader
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, books BookReader, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{service: service, books: books, logger: logger}
}

// Me handles GET /v1/me
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Profile(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.internalError(w, r, "load profile", err)
		return
	}
	httpx.JSONSuccess(w, r, p, nil)
}

// Books handles GET /v1/me/books?limit=&cursor=
func (h *HTTPHandler) Books(w http.ResponseWriter, r *http.Request) {
	cursor, err := httpx.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_CURSOR", "Invalid cursor", nil)
		return
	}
	limit := httpx.PageLimit(r, 20, 100)

	p, err := h.service.Profile(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.internalError(w, r, "load profile", err)
		return
	}

	page, next, ok := pageAfter(p.ISBNs, cursor.After, limit)
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_CURSOR", "Cursor no longer matches the inventory", nil)
		return
	}
	books, err := h.books.ListByIDs(r.Context(), page)
	if err != nil {
		h.internalError(w, r, "list books", err)
		return
	}
	if books == nil {
		books = []book.Book{}
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"total":       len(p.ISBNs),
		"next_cursor": httpx.EncodeCursor(httpx.CursorData{After: next}),
	})
}

// RemoveBook handles DELETE /v1/me/books/{isbn}
func (h *HTTPHandler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	id, err := book.CacheKey(r.PathValue("isbn"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", "Not a recognizable ISBN or UPC", nil)
		return
	}

	_, err = h.service.RemoveFromUser(r.Context(), id, httpx.UserIDFrom(r))
	if err != nil {
		if errors.Is(err, ErrNotOwned) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not in inventory", nil)
			return
		}
		h.internalError(w, r, "remove book", err)
		return
	}
	httpx.JSONNoContent(w)
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("user_id", httpx.UserIDFrom(r)),
		zap.String("request_id", httpx.RequestIDFrom(r)),
		zap.Error(err),
	)
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// pageAfter returns up to limit ids following after and the cursor for the
// next page. ok is false when after is set but no longer in ids, so a client
// never silently restarts from the first page.
func pageAfter(ids []string, after string, limit int) (page []string, next string, ok bool) {
	start := 0
	if after != "" {
		i := slices.Index(ids, after)
		if i < 0 || !isbn.IsISBN13(after) {
			return nil, "", false
		}
		start = i + 1
	}
	end := min(start+limit, len(ids))
	page = ids[start:end]
	if end < len(ids) && len(page) > 0 {
		next = page[len(page)-1]
	}
	return page, next, true
}
