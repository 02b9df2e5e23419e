// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/app/store/oauthstate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{donorstore.Collection, ensureDonors},
		{emergencystore.Collection, ensureEmergencies},
		{accountstore.Collection, ensureAccounts},
		{adminstore.Collection, ensureAdmins},
		{oauthstate.Collection, ensureOAuthStates},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             *bool  `bson:"unique,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func sameTTL(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index, reusing one with the same keys
// and options, renaming one whose name differs, and dropping and recreating
// one whose unique or TTL options differ.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var (
			desiredName   string
			desiredUnique *bool
			desiredTTL    *int32
		)
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
			desiredTTL = m.Options.ExpireAfterSeconds
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig))

		if ex, ok := listIndexes(ctx, coll)[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && sameTTL(desiredTTL, ex.ExpireAfterSeconds) &&
				(desiredName == "" || ex.Name == desiredName) {
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			log.Info("replacing index with different name or options", zap.String("existing", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureDonors(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(donorstore.Collection), []mongo.IndexModel{
		{
			// Email fallback lookup in donorprofile.Resolve; not unique because
			// older records may share an address.
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_donor_email"),
		},
		{
			// Fan-out match query.
			Keys: bson.D{
				{Key: "blood_group", Value: 1},
				{Key: "district", Value: 1},
				{Key: "is_available", Value: 1},
			},
			Options: options.Index().SetName("idx_donor_bg_district_avail"),
		},
		{
			Keys:    bson.D{{Key: "roll_number", Value: 1}},
			Options: options.Index().SetName("idx_donor_roll"),
		},
		{
			// Directory listing order.
			Keys:    bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_donor_name__id"),
		},
	})
}

func ensureEmergencies(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(emergencystore.Collection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_emergency_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_emergency_status_created"),
		},
	})
}

func ensureAccounts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(accountstore.Collection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_account_email").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "google_sub", Value: 1}},
			Options: options.Index().SetName("uniq_account_google_sub").SetUnique(true).
				SetPartialFilterExpression(bson.M{"google_sub": bson.M{"$type": "string"}}),
		},
	})
}

func ensureAdmins(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(adminstore.Collection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_admin_email").SetUnique(true),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(oauthstate.Collection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_oauth_state_expires").SetExpireAfterSeconds(0),
		},
	})
}
