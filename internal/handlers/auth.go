package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/tinyfeed/internal/auth"
	"github.com/anonto42/tinyfeed/internal/models"
	"github.com/anonto42/tinyfeed/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	userRepository repositories.UserRepository
	codec          *auth.TokenCodec
	cookieName     string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, codec *auth.TokenCodec, cookieName string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		codec:          codec,
		cookieName:     cookieName,
	}
}

// RegisterAuthRoutes registers the public pages and auth mutations
func (h *AuthHandler) RegisterAuthRoutes(e *echo.Echo) {
	e.GET("/", h.LandingPage)
	e.GET("/register", h.RegisterPage)
	e.GET("/login", h.LoginPage)
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
}

func (h *AuthHandler) LandingPage(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", nil)
}

func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", nil)
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", nil)
}

// Register creates an account, hashes the password and starts a session
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing fields")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}

	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if err == repositories.ErrDuplicateEmail {
			return echo.NewHTTPError(http.StatusConflict, "User already exists")
		}
		return err
	}

	return h.startSession(c, user)
}

// Login verifies credentials and starts a session. Unknown email and wrong
// password produce the identical error so neither check leaks.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing fields")
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.startSession(c, user)
}

// Logout clears the session cookie. The token itself stays valid until it
// expires; there is no server-side revocation.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearSessionCookie(c, h.cookieName)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) startSession(c echo.Context, user *models.User) error {
	token, err := h.codec.Issue(user.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	auth.SetSessionCookie(c, h.cookieName, token)
	return c.Redirect(http.StatusSeeOther, "/feed")
}
