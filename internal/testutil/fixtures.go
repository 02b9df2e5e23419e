package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts records directly, bypassing store normalization.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures for db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateDonor inserts d, filling ID and timestamps when unset.
func (f *Fixtures) CreateDonor(ctx context.Context, d models.Donor) models.Donor {
	f.t.Helper()
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if _, err := f.db.Collection("donors").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donor: %v", err)
	}
	return d
}

// Donor returns a minimal available donor with the given group and district.
func Donor(name, email, bloodGroup, district string) models.Donor {
	return models.Donor{
		Name:           name,
		Email:          email,
		Phone:          "+919000000000",
		RollNumber:     "R-" + name,
		BloodGroup:     bloodGroup,
		District:       district,
		IsAvailable:    true,
		DonationStatus: models.DefaultDonationStatus,
	}
}

// CreateAccount inserts a password-less account for email.
func (f *Fixtures) CreateAccount(ctx context.Context, email, name string) models.Account {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Account{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      name,
		Provider:  models.ProviderPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("accounts").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test account: %v", err)
	}
	return a
}

// CreateAdmin marks email as an administrator.
func (f *Fixtures) CreateAdmin(ctx context.Context, email, name string) models.Admin {
	f.t.Helper()
	a := models.Admin{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Role:      models.RoleAdmin,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("admins").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}
	return a
}
