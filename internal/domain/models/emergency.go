// internal/domain/models/emergency.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Emergency request statuses. Only "open" is written by the app; the others
// are set by coordinators directly in the database.
const (
	EmergencyStatusOpen      = "open"
	EmergencyStatusFulfilled = "fulfilled"
	EmergencyStatusClosed    = "closed"
)

// EmergencyRequest is a filed request for blood.
type EmergencyRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BloodGroup   string             `bson:"blood_group" json:"bloodGroup"`
	District     string             `bson:"district" json:"district"`
	Urgency      Urgency            `bson:"urgency" json:"urgency"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	ContactName  string             `bson:"contact_name" json:"contactName"`
	ContactPhone string             `bson:"contact_phone" json:"contactPhone"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
