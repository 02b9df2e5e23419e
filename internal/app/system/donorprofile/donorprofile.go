// Package donorprofile resolves a signed-in identity to its donor record.
//
// Records created by registration share the account's id, and that lookup
// is authoritative. Older records were written with their own id; for those
// the email query is a compatibility fallback, not a general index.
package donorprofile

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lookup is the subset of the donor store used for resolution.
type Lookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Donor, error)
	FindOneByEmail(ctx context.Context, email string) (models.Donor, error)
}

// Identity is what the session knows about the caller.
type Identity struct {
	ID    primitive.ObjectID
	Email string
}

// Resolve tries the id first, then the email. It returns apperr.ErrNotFound
// when neither matches; any other store error is returned as is.
func Resolve(ctx context.Context, l Lookup, who Identity) (models.Donor, error) {
	if !who.ID.IsZero() {
		d, err := l.GetByID(ctx, who.ID)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return models.Donor{}, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(who.Email))
	if email == "" {
		return models.Donor{}, apperr.ErrNotFound
	}
	return l.FindOneByEmail(ctx, email)
}

// Summary is the dashboard's view of a donor.
type Summary struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	RollNumber     string
	BloodGroup     string
	District       string
	Department     string
	Year           string
	Section        string
	Area           string
	IsAvailable    bool
	DonationStatus string

	LastDonation      string // "Never" when unset
	DaysSinceDonation int    // -1 when unset
	MemberSince       string
}

// Summarize materializes the display fields as of now.
func Summarize(d models.Donor, now time.Time) Summary {
	s := Summary{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Email:             d.Email,
		Phone:             d.Phone,
		RollNumber:        d.RollNumber,
		BloodGroup:        d.BloodGroup,
		District:          d.District,
		Department:        d.Department,
		Year:              d.Year,
		Section:           d.Section,
		Area:              d.Area,
		IsAvailable:       d.IsAvailable,
		DonationStatus:    d.DonationStatus,
		LastDonation:      "Never",
		DaysSinceDonation: -1,
	}
	if s.DonationStatus == "" {
		s.DonationStatus = models.DefaultDonationStatus
	}
	if d.LastDonationDate != nil && !d.LastDonationDate.IsZero() {
		s.LastDonation = d.LastDonationDate.Format("02 Jan 2006")
		days := int(math.Floor(now.Sub(*d.LastDonationDate).Hours() / 24))
		if days < 0 {
			days = 0
		}
		s.DaysSinceDonation = days
	}
	if !d.CreatedAt.IsZero() {
		s.MemberSince = d.CreatedAt.Format("Jan 2006")
	}
	return s
}
