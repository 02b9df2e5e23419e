// Package directory is the admin view over the donor list: one snapshot
// load, then pure filtering and CSV export over that snapshot.
package directory

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Availability filter values.
const (
	Available   = "available"
	Unavailable = "unavailable"
)

// Lister loads every donor.
type Lister interface {
	List(ctx context.Context) ([]models.Donor, error)
}

// Load returns a snapshot of all donors in store order.
func Load(ctx context.Context, l Lister) ([]models.Donor, error) {
	return l.List(ctx)
}

// FilterState holds the active predicates. Empty fields match everything.
type FilterState struct {
	Search       string // substring of name, email or roll number, case-insensitive
	BloodGroup   string // exact
	District     string // exact
	Availability string // Available, Unavailable or ""
}

// IsEmpty reports whether no predicate is active.
func (f FilterState) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && f.BloodGroup == "" && f.District == "" && f.Availability == ""
}

// Filter returns the donors matching every active predicate, preserving
// input order. It never modifies donors.
func Filter(donors []models.Donor, f FilterState) []models.Donor {
	search := strings.TrimSpace(f.Search)
	nameNeedle := text.Fold(search)
	needle := strings.ToLower(search)
	out := make([]models.Donor, 0, len(donors))
	for _, d := range donors {
		if search != "" &&
			!strings.Contains(text.Fold(d.Name), nameNeedle) &&
			!strings.Contains(strings.ToLower(d.Email), needle) &&
			!strings.Contains(strings.ToLower(d.RollNumber), needle) {
			continue
		}
		if f.BloodGroup != "" && d.BloodGroup != f.BloodGroup {
			continue
		}
		if f.District != "" && d.District != f.District {
			continue
		}
		switch f.Availability {
		case Available:
			if !d.IsAvailable {
				continue
			}
		case Unavailable:
			if d.IsAvailable {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// Counts summarizes a snapshot for the admin header.
type Counts struct {
	Total     int
	Available int
	Filtered  int
}

// Count computes Counts for all donors and the filtered view.
func Count(all, filtered []models.Donor) Counts {
	c := Counts{Total: len(all), Filtered: len(filtered)}
	for _, d := range all {
		if d.IsAvailable {
			c.Available++
		}
	}
	return c
}

// Header is the export's first row.
var Header = []string{
	"Name", "Roll Number", "Email", "Phone", "Blood Group", "Area", "District",
	"Department", "Year", "Section", "Last Donation", "Available", "Status",
}

// Row renders one donor in Header order.
func Row(d models.Donor) []string {
	last := ""
	if d.LastDonationDate != nil && !d.LastDonationDate.IsZero() {
		last = d.LastDonationDate.Format("1/2/2006")
	}
	avail := "No"
	if d.IsAvailable {
		avail = "Yes"
	}
	return []string{
		d.Name, d.RollNumber, d.Email, d.Phone, d.BloodGroup, d.Area, d.District,
		d.Department, d.Year, d.Section, last, avail, d.DonationStatus,
	}
}

// Export writes Header and one row per donor. Fields containing commas,
// quotes or newlines are quoted.
func Export(w io.Writer, donors []models.Donor) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}
	n := 0
	for _, d := range donors {
		if err := cw.Write(Row(d)); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}

// ExportFilename is donors-YYYY-MM-DD.csv for t's calendar date.
func ExportFilename(t time.Time) string {
	return "donors-" + t.Format("2006-01-02") + ".csv"
}
