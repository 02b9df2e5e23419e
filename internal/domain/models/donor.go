// internal/domain/models/donor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donor is a registered blood donor.
//
// ID is the account id for donors who registered through the app. Older
// records were written with an independent id and are reachable only
// through their email (see donorprofile.Resolve).
type Donor struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone" json:"phone"`
	RollNumber string             `bson:"roll_number" json:"rollNumber"`
	BloodGroup string             `bson:"blood_group" json:"bloodGroup"` // one of BloodGroups
	District   string             `bson:"district" json:"district"`      // one of Districts
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Year       string             `bson:"year,omitempty" json:"year,omitempty"`
	Section    string             `bson:"section,omitempty" json:"section,omitempty"`
	Area       string             `bson:"area,omitempty" json:"area,omitempty"`

	LastDonationDate *time.Time `bson:"last_donation_date,omitempty" json:"lastDonationDate,omitempty"`
	IsAvailable      bool       `bson:"is_available" json:"isAvailable"`
	DonationStatus   string     `bson:"donation_status,omitempty" json:"donationStatus,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// DefaultDonationStatus is assigned at registration.
const DefaultDonationStatus = "Active"
