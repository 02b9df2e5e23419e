// internal/app/store/donors/store.go
package donorstore

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

// Collection is the donors collection name.
const Collection = "donors"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts d after normalizing its fields. A zero ID gets a fresh
// ObjectID; registration passes the account id so the two stay linked.
func (s *Store) Create(ctx context.Context, d models.Donor) (models.Donor, error) {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.Name = normalize.Name(d.Name)
	d.Email = normalize.Email(d.Email)
	d.Phone = normalize.Phone(d.Phone)
	d.RollNumber = normalize.RollNumber(d.RollNumber)
	d.BloodGroup = normalize.BloodGroup(d.BloodGroup)
	if d.DonationStatus == "" {
		d.DonationStatus = models.DefaultDonationStatus
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Donor{}, apperr.ErrDuplicate
		}
		return models.Donor{}, apperr.Persistence("insert donor", err)
	}
	return d, nil
}

// GetByID loads a donor by _id. A miss returns apperr.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donor, error) {
	var d models.Donor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donor{}, apperr.ErrNotFound
		}
		return models.Donor{}, apperr.Persistence("get donor", err)
	}
	return d, nil
}

// FindOneByEmail returns the oldest donor with the given email.
// A miss returns apperr.ErrNotFound.
func (s *Store) FindOneByEmail(ctx context.Context, email string) (models.Donor, error) {
	var d models.Donor
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donor{}, apperr.ErrNotFound
		}
		return models.Donor{}, apperr.Persistence("find donor by email", err)
	}
	return d, nil
}

// List returns every donor ordered by name, then _id.
func (s *Store) List(ctx context.Context) ([]models.Donor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{}, opts, "list donors")
}

// FindByBloodGroupAndDistrict returns donors whose blood group and district
// equal the arguments exactly, in _id order. Availability and email are not
// filtered here.
func (s *Store) FindByBloodGroupAndDistrict(ctx context.Context, bloodGroup, district string) ([]models.Donor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"blood_group": bloodGroup, "district": district}, opts, "match donors")
}

// SetAvailability updates is_available on one donor.
func (s *Store) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_available": available,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Persistence("set donor availability", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RecordDonation sets the last donation date.
func (s *Store) RecordDonation(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_donation_date": at.UTC(),
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Persistence("record donation", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions, op string) ([]models.Donor, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Donor, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return out, nil
}
