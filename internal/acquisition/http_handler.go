package acquisition

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bookscan/internal/book"
	"bookscan/internal/httpx"
	"bookscan/internal/isbn"
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

type codeRequest struct {
	Code string `json:"code" validate:"required"`
}

type scanResponse struct {
	Book         book.Book `json:"book"`
	Credits      int64     `json:"credits"`
	Charged      int64     `json:"charged"`
	AlreadyOwned bool      `json:"already_owned"`
	CacheHit     bool      `json:"cache_hit"`
}

type normalizeResponse struct {
	ISBN   string `json:"isbn"`
	ISBN13 string `json:"isbn13"`
	ISBN10 string `json:"isbn10,omitempty"`
}

func decodeCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req codeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Request body must be {\"code\": \"...\"}", nil)
		return "", false
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return "", false
	}
	return req.Code, true
}

// Normalize handles POST /v1/isbn/normalize
func (h *HTTPHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	code, ok := decodeCode(w, r)
	if !ok {
		return
	}
	normalized, err := isbn.Normalize(code)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", "Not a recognizable ISBN or UPC barcode.", nil)
		return
	}
	isbn13, err := isbn.ToISBN13(normalized)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", "Not a recognizable ISBN or UPC barcode.", nil)
		return
	}
	isbn10, _ := isbn.ToISBN10(isbn13)
	httpx.JSONSuccess(w, r, normalizeResponse{ISBN: normalized, ISBN13: isbn13, ISBN10: isbn10}, nil)
}

// Scan handles POST /v1/scans
func (h *HTTPHandler) Scan(w http.ResponseWriter, r *http.Request) {
	code, ok := decodeCode(w, r)
	if !ok {
		return
	}

	res, err := h.service.Scan(r.Context(), code, httpx.UserIDFrom(r))
	if err != nil {
		h.writeError(w, r, code, err)
		return
	}

	body := scanResponse{
		Book:         res.Book,
		Credits:      res.Receipt.Credits,
		Charged:      res.Receipt.Charged,
		AlreadyOwned: res.Receipt.AlreadyOwned,
		CacheHit:     res.CacheHit,
	}
	if res.Receipt.AlreadyOwned {
		httpx.JSONSuccess(w, r, body, nil)
		return
	}
	httpx.JSONCreated(w, r, body)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, code string, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_IDENTIFIER", UserMessage(err), nil)
	case errors.Is(err, ErrLookupFailed):
		h.logger.Warn("lookup failed", zap.String("code", code), zap.Error(err))
		httpx.JSONError(w, r, http.StatusBadGateway, "LOOKUP_FAILED", UserMessage(err), nil)
	case errors.Is(err, ledger.ErrInsufficientCredits):
		httpx.JSONError(w, r, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "Not enough credits. Buy more to keep scanning.", nil)
	case errors.Is(err, ErrMissingUserID):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to scan books", nil)
	default:
		h.logger.Error("scan failed",
			zap.String("code", code),
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
