package repositories

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anonto42/tinyfeed/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations. Create and
// Delete also maintain the author's owned-post list; the feed and profile
// reads return views with the author already resolved.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	UpdateContent(ctx context.Context, id string, content string) error
	DeletePost(ctx context.Context, post *models.Post) error
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	GetFeed(ctx context.Context) ([]models.PostView, error)
	GetPostsByAuthor(ctx context.Context, authorID string) ([]models.PostView, error)
}

// MongoPostRepository implements PostRepository for MongoDB. It holds both
// collections because post create/delete must keep the users.posts array in
// sync with post authorship.
type MongoPostRepository struct {
	client *mongo.Client
	posts  *mongo.Collection
	users  *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(client *mongo.Client, db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		client: client,
		posts:  db.Collection("posts"),
		users:  db.Collection("users"),
	}
}

// withTransaction runs fn inside a multi-document transaction. Standalone
// deployments do not support sessions; there the writes fall back to running
// sequentially, which reintroduces the crash window between them.
func (r *MongoPostRepository) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && isTxnUnsupported(err) {
		log.Printf("transactions unsupported, falling back to sequential writes: %v", err)
		return fn(ctx)
	}
	return err
}

func isTxnUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// IllegalOperation: transaction numbers are only allowed on replica sets
		return cmdErr.Code == 20
	}
	return false
}

// CreatePost inserts the post and appends its id to the author's owned-post
// list
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()

	return r.withTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.posts.InsertOne(ctx, post); err != nil {
			return err
		}
		_, err := r.users.UpdateOne(ctx, bson.M{"_id": post.Author},
			bson.M{"$push": bson.M{"posts": post.ID}})
		return err
	})
}

// GetPostByID retrieves a post by id hex
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var post models.Post
	err = r.posts.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// UpdateContent replaces a post's content and bumps its modification time
func (r *MongoPostRepository) UpdateContent(ctx context.Context, id string, content string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{"content": content, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes the post and pulls its id from the author's owned-post
// list
func (r *MongoPostRepository) DeletePost(ctx context.Context, post *models.Post) error {
	return r.withTransaction(ctx, func(ctx context.Context) error {
		res, err := r.posts.DeleteOne(ctx, bson.M{"_id": post.ID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = r.users.UpdateOne(ctx, bson.M{"_id": post.Author},
			bson.M{"$pull": bson.M{"posts": post.ID}})
		return err
	})
}

// AddLike adds the user to the post's like set. $addToSet keeps the set free
// of duplicates even under concurrent toggles.
func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, postID, userID, "$addToSet")
}

// RemoveLike removes the user from the post's like set
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, postID, userID, "$pull")
}

func (r *MongoPostRepository) updateLikes(ctx context.Context, postID, userID, op string) error {
	postObjID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrInvalidID
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}

	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": postObjID},
		bson.M{op: bson.M{"likes": userObjID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetFeed returns every post newest-first with authors resolved
func (r *MongoPostRepository) GetFeed(ctx context.Context) ([]models.PostView, error) {
	return r.findViews(ctx, bson.M{})
}

// GetPostsByAuthor returns one user's posts newest-first with authors resolved
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID string) ([]models.PostView, error) {
	objID, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findViews(ctx, bson.M{"author": objID})
}

// findViews performs the explicit join: load matching posts, batch-fetch the
// referenced authors, and compose resolved views.
func (r *MongoPostRepository) findViews(ctx context.Context, filter bson.M) ([]models.PostView, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.posts.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}

	authors, err := r.fetchAuthors(ctx, posts)
	if err != nil {
		return nil, err
	}
	return ComposePostViews(posts, authors), nil
}

func (r *MongoPostRepository) fetchAuthors(ctx context.Context, posts []models.Post) (map[primitive.ObjectID]models.User, error) {
	ids := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool)
	for _, p := range posts {
		if !seen[p.Author] {
			seen[p.Author] = true
			ids = append(ids, p.Author)
		}
	}

	authors := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		authors[u.ID] = u
	}
	return authors, nil
}

// ComposePostViews pairs each post with its author's display fields. Posts
// whose author no longer resolves keep a zero-valued author rather than being
// dropped.
func ComposePostViews(posts []models.Post, authors map[primitive.ObjectID]models.User) []models.PostView {
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		view := models.PostView{Post: p}
		if author, ok := authors[p.Author]; ok {
			view.AuthorInfo = models.PostAuthor{
				ID:      author.ID,
				Name:    author.Name,
				Profile: author.Profile,
			}
		}
		views = append(views, view)
	}
	return views
}
