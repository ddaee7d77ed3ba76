package router

import (
	"net/http"

	"github.com/anonto42/tinyfeed/internal/middleware"
	"github.com/labstack/echo/v4"
)

// NewHTTPErrorHandler maps errors to plain text for browser clients and a
// JSON body for API clients. Internal errors are logged server-side and the
// caller gets a generic message.
func NewHTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Server error"

		if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		} else {
			e.Logger.Error(err)
		}

		if middleware.AcceptsHTML(c.Request()) {
			if err := c.String(status, message); err != nil {
				e.Logger.Error(err)
			}
			return
		}
		if err := c.JSON(status, echo.Map{"error": message}); err != nil {
			e.Logger.Error(err)
		}
	}
}
