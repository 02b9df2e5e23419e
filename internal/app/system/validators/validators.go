// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/bloodconnect/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(donorstore.Collection, donorsSchema())
	ensure(emergencystore.Collection, emergenciesSchema())
	ensure(accountstore.Collection, accountsSchema())
	ensure(adminstore.Collection, adminsSchema())

	// No validator; the TTL index is the only constraint.
	ensure(oauthstate.Collection, nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------------- schemas --------------------------------- */

func strEnum(values []string) bson.M {
	enum := make(bson.A, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return bson.M{"bsonType": "string", "enum": enum}
}

func donorsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "blood_group", "district", "is_available", "created_at"},
			"properties": bson.M{
				"name":               bson.M{"bsonType": "string", "minLength": 1},
				"email":              bson.M{"bsonType": "string"},
				"phone":              bson.M{"bsonType": "string"},
				"roll_number":        bson.M{"bsonType": "string"},
				"blood_group":        strEnum(models.BloodGroups),
				"district":           strEnum(models.Districts),
				"is_available":       bson.M{"bsonType": "bool"},
				"last_donation_date": bson.M{"bsonType": "date"},
				"created_at":         bson.M{"bsonType": "date"},
			},
		},
	}
}

func emergenciesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"blood_group", "district", "urgency", "contact_name", "contact_phone", "status", "created_at"},
			"properties": bson.M{
				"blood_group":   strEnum(models.BloodGroups),
				"district":      strEnum(models.Districts),
				"urgency":       strEnum(models.UrgencyValues()),
				"description":   bson.M{"bsonType": "string"},
				"contact_name":  bson.M{"bsonType": "string", "minLength": 1},
				"contact_phone": bson.M{"bsonType": "string", "minLength": 1},
				"status": strEnum([]string{
					models.EmergencyStatusOpen,
					models.EmergencyStatusFulfilled,
					models.EmergencyStatusClosed,
				}),
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func accountsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "provider", "created_at"},
			"properties": bson.M{
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"provider":      strEnum([]string{models.ProviderPassword, models.ProviderGoogle}),
				"password_hash": bson.M{"bsonType": "string"},
				"google_sub":    bson.M{"bsonType": "string"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func adminsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "role"},
			"properties": bson.M{
				"email": bson.M{"bsonType": "string", "minLength": 3},
				"role":  strEnum([]string{models.RoleAdmin}),
			},
		},
	}
}

/* ------------------------------ error helpers ---------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}
