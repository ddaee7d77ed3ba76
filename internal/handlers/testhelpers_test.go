package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/tinyfeed/internal/auth"
	"github.com/anonto42/tinyfeed/internal/middleware"
	"github.com/anonto42/tinyfeed/internal/models"
	"github.com/anonto42/tinyfeed/internal/render"
	"github.com/anonto42/tinyfeed/internal/repositories"
	"github.com/anonto42/tinyfeed/internal/storage"
	"github.com/anonto42/tinyfeed/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserRepo is an in-memory UserRepository for handler tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	if user.Profile == "" {
		user.Profile = models.DefaultProfilePicture
	}
	if user.Posts == nil {
		user.Posts = []primitive.ObjectID{}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfilePicture(_ context.Context, id string, path string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[objID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Profile = path
	u.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) SearchUsers(_ context.Context, query string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := []models.User{}
	for _, u := range r.users {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakePostRepo is an in-memory PostRepository. It shares the user repo so
// create/delete keep the owned-post lists in sync like the Mongo
// implementation does.
type fakePostRepo struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
	order []primitive.ObjectID
	users *fakeUserRepo
}

func newFakePostRepo(users *fakeUserRepo) *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*models.Post), users: users}
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	clone := *post
	r.posts[post.ID] = &clone
	r.order = append(r.order, post.ID)

	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	if u, ok := r.users.users[post.Author]; ok {
		u.Posts = append(u.Posts, post.ID)
	}
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePostRepo) UpdateContent(_ context.Context, id string, content string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[objID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Content = content
	p.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.posts, post.ID)
	for i, id := range r.order {
		if id == post.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	if u, ok := r.users.users[post.Author]; ok {
		for i, id := range u.Posts {
			if id == post.ID {
				u.Posts = append(u.Posts[:i], u.Posts[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (r *fakePostRepo) AddLike(_ context.Context, postID, userID string) error {
	return r.updateLikes(postID, userID, true)
}

func (r *fakePostRepo) RemoveLike(_ context.Context, postID, userID string) error {
	return r.updateLikes(postID, userID, false)
}

func (r *fakePostRepo) updateLikes(postID, userID string, add bool) error {
	postObjID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return repositories.ErrInvalidID
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postObjID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, id := range p.Likes {
		if id == userObjID {
			if !add {
				p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			}
			return nil
		}
	}
	if add {
		p.Likes = append(p.Likes, userObjID)
	}
	return nil
}

func (r *fakePostRepo) GetFeed(ctx context.Context) ([]models.PostView, error) {
	return r.views(func(*models.Post) bool { return true })
}

func (r *fakePostRepo) GetPostsByAuthor(_ context.Context, authorID string) ([]models.PostView, error) {
	objID, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	return r.views(func(p *models.Post) bool { return p.Author == objID })
}

func (r *fakePostRepo) views(match func(*models.Post) bool) ([]models.PostView, error) {
	r.mu.Lock()
	posts := []models.Post{}
	for i := len(r.order) - 1; i >= 0; i-- { // newest first
		if p, ok := r.posts[r.order[i]]; ok && match(p) {
			posts = append(posts, *p)
		}
	}
	r.mu.Unlock()

	r.users.mu.Lock()
	authors := make(map[primitive.ObjectID]models.User, len(r.users.users))
	for id, u := range r.users.users {
		authors[id] = *u
	}
	r.users.mu.Unlock()

	return repositories.ComposePostViews(posts, authors), nil
}

// testApp wires the full route surface against the fakes.
type testApp struct {
	e     *echo.Echo
	users *fakeUserRepo
	posts *fakePostRepo
	codec *auth.TokenCodec
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	e := echo.New()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e.Renderer = renderer
	e.Validator = validators.NewValidator()

	users := newFakeUserRepo()
	posts := newFakePostRepo(users)
	codec := auth.NewTokenCodec("test-secret")

	disk, err := storage.NewDisk(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("disk: %v", err)
	}

	authHandler := NewAuthHandler(users, codec, "token")
	authHandler.RegisterAuthRoutes(e)

	protected := e.Group("")
	protected.Use(middleware.SessionAuth(codec, users, "token"))
	NewPostHandler(posts).RegisterPostRoutes(protected)
	NewProfileHandler(users, posts, disk).RegisterProfileRoutes(protected)

	return &testApp{e: e, users: users, posts: posts, codec: codec}
}

// do runs a request with an optional session cookie.
func (a *testApp) do(req *http.Request, session *http.Cookie) *httptest.ResponseRecorder {
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// register creates an account through the handler and returns the session
// cookie from the response.
func (a *testApp) register(t *testing.T, name, email, password string) *http.Cookie {
	t.Helper()

	rec := a.do(formRequest("/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	}), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("register %s: expected 303, got %d (%s)", email, rec.Code, rec.Body.String())
	}

	res := rec.Result()
	for _, cookie := range res.Cookies() {
		if cookie.Name == "token" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("register %s: no session cookie set", email)
	return nil
}

func (a *testApp) userByEmail(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := a.users.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("user %s: %v", email, err)
	}
	return u
}
