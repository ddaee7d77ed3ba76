package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultProfilePicture is the placeholder shown until a user uploads their own.
const DefaultProfilePicture = "/profile/defaultProfile.png"

// User represents an account stored in the users collection. The email is
// lowercased before storage and guarded by a unique index. Posts holds the
// ids of the user's posts in creation order and mirrors post authorship.
type User struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string               `json:"name" bson:"name"`
	Email     string               `json:"email" bson:"email"`
	Password  string               `json:"-" bson:"password"` // bcrypt hash, never serialized
	Profile   string               `json:"profile" bson:"profile"`
	Posts     []primitive.ObjectID `json:"posts" bson:"posts"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// RegisterRequest defines the body for creating an account
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginRequest defines the body for authenticating
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// SessionClaims are custom claims extending standard jwt.RegisteredClaims.
// Only the user id travels in the token; everything else is looked up.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
