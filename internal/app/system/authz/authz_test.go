package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testUserID returns a valid ObjectID hex string for tests.
func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	role, name, id, ok := authz.UserCtx(req)
	if ok {
		t.Fatal("expected ok=false without a user")
	}
	if role != "visitor" || name != "" || !id.IsZero() {
		t.Errorf("unexpected values: %q %q %s", role, name, id.Hex())
	}
}

func TestUserCtx_MalformedID_FailsClosed(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-hex", Role: "admin"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed id")
	}
	if authz.IsAdmin(req) {
		t.Error("expected IsAdmin=false for malformed id")
	}
}

func TestUserCtx_LowercasesRole(t *testing.T) {
	userID := testUserID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: userID, Name: "Asha", Role: "ADMIN"})

	role, name, id, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "admin" || name != "Asha" || id.Hex() != userID {
		t.Errorf("unexpected values: %q %q %s", role, name, id.Hex())
	}
}

func TestRoleHelpers(t *testing.T) {
	tests := []struct {
		role    string
		isAdmin bool
		isDonor bool
	}{
		{"admin", true, false},
		{"donor", false, true},
		{"visitor", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: tc.role})
			if got := authz.IsAdmin(req); got != tc.isAdmin {
				t.Errorf("IsAdmin: got %v, want %v", got, tc.isAdmin)
			}
			if got := authz.HasAnyRole(req, "donor"); got != tc.isDonor {
				t.Errorf("HasAnyRole(donor): got %v, want %v", got, tc.isDonor)
			}
			if got := authz.HasAnyRole(req, "Admin", "donor"); got != (tc.isAdmin || tc.isDonor) {
				t.Errorf("HasAnyRole: got %v", got)
			}
		})
	}
}

func TestUserEmail(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if got := authz.UserEmail(req); got != "" {
		t.Errorf("expected empty email, got %q", got)
	}
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Email: " A@X.com"})
	if got := authz.UserEmail(req); got != "a@x.com" {
		t.Errorf("got %q", got)
	}
}

func TestLanding(t *testing.T) {
	for role, want := range map[string]string{
		"admin":   "/admin",
		"Admin":   "/admin",
		"donor":   "/dashboard",
		"visitor": "/dashboard",
		"":        "/dashboard",
	} {
		if got := authz.Landing(role); got != want {
			t.Errorf("Landing(%q) = %q, want %q", role, got, want)
		}
	}
}
