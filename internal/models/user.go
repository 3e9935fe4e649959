package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record for an email, refreshed on every sign-in
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"` // Avatar URL from the identity provider
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	LastLogin time.Time          `bson:"lastLogin" json:"lastLogin"`
}

// ProviderProfile is what the external identity provider asserts about a user
type ProviderProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// UserProfile is the read-side display data attached to roadmaps
type UserProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Profile converts a stored user into its display profile
func (u *User) Profile() UserProfile {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return UserProfile{Email: u.Email, Name: name, Image: u.Image}
}

// FallbackProfile is used for emails that never signed in
func FallbackProfile(email string) UserProfile {
	return UserProfile{Email: email, Name: email}
}
