package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents an entry in the posts collection. Author is immutable after
// creation. Likes is treated as a set: a user id appears at most once.
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Content   string               `json:"content" bson:"content"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// LikedBy reports whether the given user id is in the like set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content string `json:"content" form:"content" validate:"required"`
}

// UpdatePostRequest defines the request body for editing an existing post
type UpdatePostRequest struct {
	Content string `json:"content" form:"content" validate:"required"`
}

// PostAuthor is the slice of a user record needed to display a post.
type PostAuthor struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Profile string             `json:"profile"`
}

// PostView is a post with its author resolved by the store layer.
type PostView struct {
	Post
	AuthorInfo PostAuthor `json:"author_info"`
}

// ProfileView is a user together with their posts, authors resolved,
// newest first.
type ProfileView struct {
	User  *User      `json:"user"`
	Posts []PostView `json:"posts"`
}
