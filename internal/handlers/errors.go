package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

type ErrorBody struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorHandler renders every error as ErrorBody. Anything that is not an
// *echo.HTTPError becomes an opaque 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil && code < 500 {
			msg = http.StatusText(code)
		}
	}

	if code >= 500 {
		logging.FromContext(c.Request().Context()).Error("request failed", "status", code, "error", err)
	}

	body := ErrorBody{
		Message:   msg,
		Error:     http.StatusText(code),
		Status:    code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("write error response", "error", err)
	}
}
