package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/tinyfeed/internal/middleware"
	"github.com/anonto42/tinyfeed/internal/models"
	"github.com/anonto42/tinyfeed/internal/repositories"
	"github.com/anonto42/tinyfeed/internal/storage"
	"github.com/labstack/echo/v4"
)

// MaxUploadSize caps profile pictures at 5 MB.
const MaxUploadSize = 5 << 20

// ProfileHandler handles profile pages, picture upload and user search
type ProfileHandler struct {
	userRepository repositories.UserRepository
	postRepository repositories.PostRepository
	disk           *storage.Disk
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, disk *storage.Disk) *ProfileHandler {
	return &ProfileHandler{
		userRepository: userRepo,
		postRepository: postRepo,
		disk:           disk,
	}
}

// RegisterProfileRoutes registers profile-related routes on the protected group
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.MyProfile)
	g.GET("/user/:id", h.ViewUser)
	g.GET("/profile/upload", h.UploadForm)
	g.POST("/profile/upload", h.Upload)
	g.GET("/search", h.Search)
}

// MyProfile renders the session user's profile with their posts resolved
// newest-first. editPostId is passed through for the view to highlight.
func (h *ProfileHandler) MyProfile(c echo.Context) error {
	user := middleware.CurrentUser(c)

	posts, err := h.postRepository.GetPostsByAuthor(c.Request().Context(), user.ID.Hex())
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "profile.html", echo.Map{
		"User":       user,
		"Profile":    &models.ProfileView{User: user, Posts: posts},
		"EditPostID": c.QueryParam("editPostId"),
		"Own":        true,
	})
}

// ViewUser renders another user's profile in the same shape
func (h *ProfileHandler) ViewUser(c echo.Context) error {
	profileUser, err := h.userRepository.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound || err == repositories.ErrInvalidID {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}

	posts, err := h.postRepository.GetPostsByAuthor(c.Request().Context(), profileUser.ID.Hex())
	if err != nil {
		return err
	}

	me := middleware.CurrentUser(c)
	return c.Render(http.StatusOK, "profile.html", echo.Map{
		"User":       me,
		"Profile":    &models.ProfileView{User: profileUser, Posts: posts},
		"EditPostID": "",
		"Own":        profileUser.ID == me.ID,
	})
}

// UploadForm renders the upload page
func (h *ProfileHandler) UploadForm(c echo.Context) error {
	return c.Render(http.StatusOK, "upload.html", nil)
}

// Upload stores a new profile picture. Type and size are rejected before
// anything is written to disk.
func (h *ProfileHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("profile")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	if fileHeader.Size > MaxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "File too large (max 5MB)")
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "Only image files are allowed")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	publicPath, err := h.disk.Save(src, fileHeader.Filename)
	if err != nil {
		return err
	}

	userID := middleware.CurrentUserID(c)
	if err := h.userRepository.UpdateProfilePicture(c.Request().Context(), userID, publicPath); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/profile")
}

// Search matches user display names case-insensitively by substring. An
// empty query lists everyone.
func (h *ProfileHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")

	results, err := h.userRepository.SearchUsers(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "search.html", echo.Map{
		"User":    middleware.CurrentUser(c),
		"Query":   query,
		"Results": results,
	})
}
