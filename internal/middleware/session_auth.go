package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/tinyfeed/internal/auth"
	"github.com/anonto42/tinyfeed/internal/models"
	"github.com/anonto42/tinyfeed/internal/repositories"
	"github.com/labstack/echo/v4"
)

// Context keys set by SessionAuth for downstream handlers.
const (
	UserIDKey = "userID"
	UserKey   = "user"
)

// AcceptsHTML reports whether the request comes from a browser-style client.
// Unauthenticated browser requests are redirected to the login page; API
// clients get a 401 instead.
func AcceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// SessionAuth verifies the session cookie on each request, resolves the
// embedded user id to a record, and stores both in the echo context. Invalid
// or expired tokens get the cookie cleared before the unauthenticated
// branching is applied.
func SessionAuth(codec *auth.TokenCodec, users repositories.UserRepository, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return rejectUnauthenticated(c)
			}

			userID, err := codec.Verify(cookie.Value)
			if err != nil {
				auth.ClearSessionCookie(c, cookieName)
				return rejectUnauthenticated(c)
			}

			// One store lookup per request; a deleted account means the
			// token no longer proves anything.
			user, err := users.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				auth.ClearSessionCookie(c, cookieName)
				return rejectUnauthenticated(c)
			}

			c.Set(UserIDKey, userID)
			c.Set(UserKey, user)

			return next(c)
		}
	}
}

func rejectUnauthenticated(c echo.Context) error {
	if AcceptsHTML(c.Request()) {
		return c.Redirect(http.StatusFound, "/login")
	}
	return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
}

// CurrentUserID returns the authenticated user's id hex set by SessionAuth.
func CurrentUserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

// CurrentUser returns the authenticated user's record set by SessionAuth.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(UserKey).(*models.User)
	return user
}
