// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Account is a sign-in identity. Donors registered through the app share
// their account's _id.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"` // normalized lowercase
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Provider     string             `bson:"provider" json:"provider"`
	PasswordHash *string            `bson:"password_hash,omitempty" json:"-"`
	GoogleSub    string             `bson:"google_sub,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Admin marks an account email as an administrator.
type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Role      string             `bson:"role" json:"role"` // always RoleAdmin today
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Session roles.
const (
	RoleAdmin = "admin"
	RoleDonor = "donor"
)
