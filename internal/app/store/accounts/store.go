// internal/app/store/accounts/store.go
package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the accounts collection name.
const Collection = "accounts"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// CreatePassword inserts a password account. passwordHash is a bcrypt hash.
// An existing email returns apperr.ErrDuplicate.
func (s *Store) CreatePassword(ctx context.Context, email, name, passwordHash string) (models.Account, error) {
	now := time.Now().UTC()
	a := models.Account{
		ID:           primitive.NewObjectID(),
		Email:        normalize.Email(email),
		Name:         normalize.Name(name),
		Provider:     models.ProviderPassword,
		PasswordHash: &passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, apperr.ErrDuplicate
		}
		return models.Account{}, apperr.Persistence("insert account", err)
	}
	return a, nil
}

// GetByID loads an account. A miss returns apperr.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail loads an account by normalized email. A miss returns apperr.ErrNotFound.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// UpsertGoogle finds the account for email, linking the Google subject, or
// creates a Google account when none exists.
func (s *Store) UpsertGoogle(ctx context.Context, sub, email, name string) (models.Account, error) {
	now := time.Now().UTC()
	filter := bson.M{"email": normalize.Email(email)}
	update := bson.M{
		"$set": bson.M{"google_sub": sub, "updated_at": now},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"name":       normalize.Name(name),
			"provider":   models.ProviderGoogle,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var a models.Account
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&a); err != nil {
		return models.Account{}, apperr.Persistence("upsert google account", err)
	}
	return a, nil
}

// SetPassword replaces the password hash for email.
func (s *Store) SetPassword(ctx context.Context, email, passwordHash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"email": normalize.Email(email)}, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Persistence("set password", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, apperr.ErrNotFound
		}
		return models.Account{}, apperr.Persistence("get account", err)
	}
	return a, nil
}

// Delete removes an account. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return apperr.Persistence("delete account", err)
	}
	return nil
}
