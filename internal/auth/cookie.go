package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SetSessionCookie attaches the session token as an HTTP-only cookie.
func SetSessionCookie(c echo.Context, name, token string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(TokenTTL),
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
