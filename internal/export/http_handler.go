package export

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bookscan/internal/book"
	"bookscan/internal/httpx"
	"bookscan/internal/ledger"
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

type exportQuery struct {
	Codes []string `validate:"max=500,dive,book_code"`
}

// CSV handles GET /v1/me/export.csv?isbn=...
func (h *HTTPHandler) CSV(w http.ResponseWriter, r *http.Request) {
	q := exportQuery{Codes: r.URL.Query()["isbn"]}
	if details := httpx.ValidateStruct(q); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	subset := make([]string, 0, len(q.Codes))
	for _, code := range q.Codes {
		id, err := book.CacheKey(code)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", "Not a recognizable ISBN or UPC", nil)
			return
		}
		subset = append(subset, id)
	}

	out, err := h.service.ExportForUser(r.Context(), httpx.UserIDFrom(r), subset)
	if err != nil {
		if errors.Is(err, ledger.ErrMissingUserID) {
			httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to export", nil)
			return
		}
		h.logger.Error("export failed",
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
