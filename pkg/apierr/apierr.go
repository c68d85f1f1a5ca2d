package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Error struct {
	Status int
	Code   string
	Field  string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error { return New(http.StatusBadRequest, code, err) }

func NotFound(code string, err error) *Error { return New(http.StatusNotFound, code, err) }

func Unprocessable(field string, err error) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: "validation_failed", Field: field, Err: err}
}

type body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Handler renders *Error and *echo.HTTPError as {"error": {...}}; anything
// else becomes a 500.
func Handler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		out := body{Code: "internal", Message: err.Error()}

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			if ae.Status != 0 {
				status = ae.Status
			}
			out = body{Code: ae.Code, Message: ae.Error(), Field: ae.Field}
		case errors.As(err, &he):
			status = he.Code
			out = body{Code: http.StatusText(he.Code), Message: fmt.Sprint(he.Message)}
		}
		if status >= 500 {
			e.Logger.Error(err)
		}
		if werr := c.JSON(status, map[string]any{"error": out}); werr != nil {
			e.Logger.Error(werr)
		}
	}
}
