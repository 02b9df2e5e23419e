package viewdata_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewBaseVM_Visitor(t *testing.T) {
	req := httptest.NewRequest("GET", "/emergency", nil)

	vm := viewdata.NewBaseVM(req, "Emergency", "/")
	if vm.IsLoggedIn || vm.IsAdmin {
		t.Errorf("expected visitor, got %+v", vm)
	}
	if vm.SiteName != models.DefaultSiteName {
		t.Errorf("SiteName: got %q", vm.SiteName)
	}
	if vm.Title != "Emergency" {
		t.Errorf("Title: got %q", vm.Title)
	}
	if vm.HomeURL != "/" {
		t.Errorf("HomeURL: got %q", vm.HomeURL)
	}
}

func TestNewBaseVM_Admin(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Coordinator",
		Role: "admin",
	})

	vm := viewdata.NewBaseVM(req, "Donors", "/")
	if !vm.IsLoggedIn || !vm.IsAdmin {
		t.Errorf("expected signed-in admin, got %+v", vm)
	}
	if vm.UserName != "Coordinator" {
		t.Errorf("UserName: got %q", vm.UserName)
	}
	if vm.HomeURL != "/admin" {
		t.Errorf("HomeURL: got %q", vm.HomeURL)
	}
}

func TestNewBaseVM_CSRFFieldIsHiddenInput(t *testing.T) {
	var vm viewdata.BaseVM
	protect := csrf.Protect([]byte("0123456789abcdef0123456789abcdef"), csrf.Secure(false))
	h := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vm = viewdata.NewBaseVM(r, "Register", "/")
	}))

	req := httptest.NewRequest("GET", "/register", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	field := string(vm.CSRFField)
	if !strings.Contains(field, `type="hidden"`) || !strings.Contains(field, `name="gorilla.csrf.Token"`) {
		t.Errorf("CSRFField = %q", field)
	}
	if vm.CSRFToken == "" || !strings.Contains(field, vm.CSRFToken) {
		t.Error("hidden input should carry the request token")
	}
}
