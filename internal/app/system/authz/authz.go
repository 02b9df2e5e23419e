// Package authz answers role questions about the signed-in user. Every
// helper fails closed: no session, or a session with a malformed id, is a
// visitor.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const visitor = "visitor"

// UserCtx returns the lowercased role, display name and account id of the
// signed-in user. ok is false for visitors.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, signedIn := auth.CurrentUser(r)
	if !signedIn {
		return visitor, "", primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return visitor, "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, id, true
}

// UserEmail returns the signed-in user's normalized email, or "".
func UserEmail(r *http.Request) string {
	if user, ok := auth.CurrentUser(r); ok {
		return strings.ToLower(strings.TrimSpace(user.Email))
	}
	return ""
}

// HasAnyRole matches case-insensitively. Visitors match nothing.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if strings.EqualFold(role, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func IsAdmin(r *http.Request) bool { return HasAnyRole(r, models.RoleAdmin) }

// Landing is where a freshly signed-in role goes when no return URL applies.
func Landing(role string) string {
	if strings.EqualFold(role, models.RoleAdmin) {
		return "/admin"
	}
	return "/dashboard"
}
