package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/tinyfeed/internal/middleware"
	"github.com/anonto42/tinyfeed/internal/models"
	"github.com/anonto42/tinyfeed/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles the feed and post mutations
type PostHandler struct {
	postRepository repositories.PostRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository) *PostHandler {
	return &PostHandler{postRepository: postRepo}
}

// RegisterPostRoutes registers post-related routes on the protected group
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/feed", h.Feed)
	g.POST("/post", h.CreatePost)
	g.GET("/posts/:id/edit", h.EditRedirect)
	g.POST("/posts/:id/edit", h.SubmitEdit)
	g.POST("/posts/:id/delete", h.DeletePost)
	g.POST("/posts/:id/like", h.ToggleLike)
}

// Feed renders every post newest-first with authors resolved
func (h *PostHandler) Feed(c echo.Context) error {
	posts, err := h.postRepository.GetFeed(c.Request().Context())
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "feed.html", echo.Map{
		"User":  middleware.CurrentUser(c),
		"Posts": posts,
	})
}

// CreatePost creates a post authored by the session user and records it in
// the author's owned-post list
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Content required")
	}

	post := &models.Post{
		Author:  middleware.CurrentUser(c).ID,
		Content: content,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/feed")
}

// EditRedirect is the begin-edit step: a pure redirect that carries the post
// id for the profile view to highlight. Ownership is checked on submit.
func (h *PostHandler) EditRedirect(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.Redirect(http.StatusFound, "/profile")
	}
	return c.Redirect(http.StatusFound, "/profile?editPostId="+id)
}

// SubmitEdit persists new content for a post owned by the session user
func (h *PostHandler) SubmitEdit(c echo.Context) error {
	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Content required")
	}

	post, err := h.loadOwnPost(c)
	if err != nil {
		return err
	}

	if err := h.postRepository.UpdateContent(c.Request().Context(), post.ID.Hex(), content); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/profile")
}

// DeletePost removes a post owned by the session user and its entry in the
// owned-post list
func (h *PostHandler) DeletePost(c echo.Context) error {
	post, err := h.loadOwnPost(c)
	if err != nil {
		return err
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), post); err != nil {
		return err
	}

	return redirectBack(c)
}

// ToggleLike adds the session user to the post's like set, or removes them
// if already present
func (h *PostHandler) ToggleLike(c echo.Context) error {
	postID := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(postID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post id")
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return err
	}

	userID := middleware.CurrentUserID(c)
	user := middleware.CurrentUser(c)

	if post.LikedBy(user.ID) {
		err = h.postRepository.RemoveLike(c.Request().Context(), postID, userID)
	} else {
		err = h.postRepository.AddLike(c.Request().Context(), postID, userID)
	}
	if err != nil {
		return err
	}

	return redirectBack(c)
}

// loadOwnPost loads the target post and enforces that the session user is
// its author.
func (h *PostHandler) loadOwnPost(c echo.Context) (*models.Post, error) {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound || err == repositories.ErrInvalidID {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return nil, err
	}
	if post.Author != middleware.CurrentUser(c).ID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Unauthorized")
	}
	return post, nil
}

// redirectBack returns to the referring page, falling back to the feed.
func redirectBack(c echo.Context) error {
	if ref := c.Request().Referer(); ref != "" {
		return c.Redirect(http.StatusSeeOther, ref)
	}
	return c.Redirect(http.StatusSeeOther, "/feed")
}
