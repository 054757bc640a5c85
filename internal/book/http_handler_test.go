package book

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"bookscan/internal/testutil"
)

func TestHTTPHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo), nil)

	testBook := Book{
		ID:    "9780596000486",
		Title: Str("CGI Programming with Perl"),
	}

	serve := func(code string) testutil.RecordResponse {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/"+code, nil)
		r.SetPathValue("isbn", code)
		handler.Get(w, r)
		return testutil.RecordHTTPResponse(w)
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "9780596000486").Return(testBook, nil)

		resp := serve("9780596000486")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "CGI Programming with Perl", resp.Data()["title"])
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "9780596000486").Return(Book{}, ErrNotFound)

		resp := serve("9780596000486")
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "NOT_FOUND", resp.ErrorCode())
	})

	t.Run("invalid identifier", func(t *testing.T) {
		resp := serve("12345")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "INVALID_IDENTIFIER", resp.ErrorCode())
	})

	t.Run("internal error", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), "9780596000486").Return(Book{}, context.DeadlineExceeded)

		resp := serve("9780596000486")
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "INTERNAL_ERROR", resp.ErrorCode())
	})
}
