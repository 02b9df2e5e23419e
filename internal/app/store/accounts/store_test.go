package accountstore_test

import (
	"errors"
	"testing"

	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	"github.com/dalemusser/bloodconnect/internal/app/system/indexes"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/bloodconnect/internal/testutil"
)

func TestCreatePassword_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := accountstore.New(db)

	a, err := store.CreatePassword(ctx, "Asha@X.com", "Asha", "hash")
	if err != nil {
		t.Fatalf("CreatePassword failed: %v", err)
	}
	if a.Email != "asha@x.com" || a.Provider != models.ProviderPassword {
		t.Errorf("unexpected account %+v", a)
	}

	if _, err := store.CreatePassword(ctx, "asha@x.com", "Other", "hash2"); !errors.Is(err, apperr.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByEmail(ctx, "none@x.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertGoogle_LinksExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing, err := store.CreatePassword(ctx, "ravi@x.com", "Ravi", "hash")
	if err != nil {
		t.Fatalf("CreatePassword failed: %v", err)
	}

	linked, err := store.UpsertGoogle(ctx, "sub-123", "RAVI@x.com", "Ravi K")
	if err != nil {
		t.Fatalf("UpsertGoogle failed: %v", err)
	}
	if linked.ID != existing.ID {
		t.Error("expected the existing account to be linked")
	}
	if linked.GoogleSub != "sub-123" {
		t.Errorf("GoogleSub: got %q", linked.GoogleSub)
	}
	if linked.Provider != models.ProviderPassword {
		t.Errorf("Provider should not change, got %q", linked.Provider)
	}

	fresh, err := store.UpsertGoogle(ctx, "sub-9", "new@x.com", "New Person")
	if err != nil {
		t.Fatalf("UpsertGoogle (insert) failed: %v", err)
	}
	if fresh.ID.IsZero() || fresh.Provider != models.ProviderGoogle || fresh.Name != "New Person" {
		t.Errorf("unexpected new account %+v", fresh)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewFixtures(t, db).CreateAccount(ctx, "gone@x.com", "Gone")
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}
