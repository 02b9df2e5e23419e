// internal/app/store/emergencies/store.go
package emergencystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the emergency requests collection name.
const Collection = "emergency_requests"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a request. Status defaults to open and CreatedAt is always
// assigned here.
func (s *Store) Create(ctx context.Context, req models.EmergencyRequest) (models.EmergencyRequest, error) {
	req.ID = primitive.NewObjectID()
	if req.Status == "" {
		req.Status = models.EmergencyStatusOpen
	}
	req.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.EmergencyRequest{}, apperr.Persistence("insert emergency request", err)
	}
	return req, nil
}

// GetByID loads one request. A miss returns apperr.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.EmergencyRequest, error) {
	var req models.EmergencyRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.EmergencyRequest{}, apperr.ErrNotFound
		}
		return models.EmergencyRequest{}, apperr.Persistence("get emergency request", err)
	}
	return req, nil
}

// ListRecent returns requests newest first. limit <= 0 means no limit.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.EmergencyRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Persistence("list emergency requests", err)
	}
	defer cur.Close(ctx)

	out := make([]models.EmergencyRequest, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Persistence("list emergency requests", err)
	}
	return out, nil
}
