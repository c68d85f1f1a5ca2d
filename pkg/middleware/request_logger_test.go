package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
)

func TestRequestLoggerSetsRequestID(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = apierr.Handler(e)
	e.Use(RequestLogger(logger.Nop()))
	e.GET("/ok", func(c echo.Context) error {
		if c.Get(RequestIDKey) == nil {
			t.Fatalf("request id missing in context")
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/missing", func(c echo.Context) error {
		return apierr.NotFound("nope", errors.New("nope"))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("response must carry a request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "abc-123" {
		t.Fatalf("request id: want=abc-123 got=%q", got)
	}
}
