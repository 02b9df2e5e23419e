package emergencystore_test

import (
	"testing"
	"time"

	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/bloodconnect/internal/testutil"
)

func TestCreate_AssignsStatusAndTime(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emergencystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	req, err := store.Create(ctx, models.EmergencyRequest{
		BloodGroup:   "B+",
		District:     "Hyderabad",
		Urgency:      models.UrgencyHigh,
		ContactName:  "Ravi",
		ContactPhone: "+911234567890",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.Status != models.EmergencyStatusOpen {
		t.Errorf("Status: got %q, want open", req.Status)
	}
	if req.CreatedAt.Before(before) {
		t.Errorf("CreatedAt not server-assigned: %v", req.CreatedAt)
	}

	got, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ContactName != "Ravi" {
		t.Errorf("ContactName: got %q", got.ContactName)
	}
}

func TestListRecent_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emergencystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, d := range []string{"Medak", "Nirmal", "Mulugu"} {
		if _, err := store.Create(ctx, models.EmergencyRequest{
			BloodGroup: "O+", District: d, Urgency: models.UrgencyLow,
			ContactName: "X", ContactPhone: "123",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].District != "Mulugu" || got[1].District != "Nirmal" {
		t.Errorf("unexpected order: %s, %s", got[0].District, got[1].District)
	}
}
