package book

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bookscan/internal/httpx"
	"bookscan/internal/isbn"
)

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// Get handles GET /v1/books/{isbn}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), r.PathValue("isbn"))
	if err != nil {
		switch {
		case errors.Is(err, isbn.ErrInvalidIdentifier):
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", "Not a recognizable ISBN or UPC", nil)
		case errors.Is(err, ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not in cache", nil)
		default:
			h.logger.Error("get book", zap.String("isbn", r.PathValue("isbn")), zap.Error(err))
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}
