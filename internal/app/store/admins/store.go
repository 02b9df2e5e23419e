// internal/app/store/admins/store.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the admins collection name.
const Collection = "admins"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Upsert marks email as an admin, updating the display name if it exists.
func (s *Store) Upsert(ctx context.Context, email, name string) (models.Admin, error) {
	filter := bson.M{"email": normalize.Email(email)}
	update := bson.M{
		"$set": bson.M{"name": normalize.Name(name), "role": models.RoleAdmin},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var a models.Admin
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&a); err != nil {
		return models.Admin{}, apperr.Persistence("upsert admin", err)
	}
	return a, nil
}

// GetByEmail loads the admin record for email. A miss returns apperr.ErrNotFound.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Admin{}, apperr.ErrNotFound
		}
		return models.Admin{}, apperr.Persistence("get admin", err)
	}
	return a, nil
}

// IsAdmin reports whether email has an admin record.
func (s *Store) IsAdmin(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RoleFor returns models.RoleAdmin when email has an admin record and
// models.RoleDonor otherwise.
func (s *Store) RoleFor(ctx context.Context, email string) (string, error) {
	ok, err := s.IsAdmin(ctx, email)
	if err != nil {
		return "", err
	}
	if ok {
		return models.RoleAdmin, nil
	}
	return models.RoleDonor, nil
}
