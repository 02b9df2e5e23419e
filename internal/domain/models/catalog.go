// internal/domain/models/catalog.go
package models

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	BloodGroups []string `yaml:"blood_groups"`
	Districts   []string `yaml:"districts"`
	Urgencies   []string `yaml:"urgencies"`
}

// Reference lists, in display order. Loaded once from catalog.yaml.
var (
	BloodGroups []string
	Districts   []string
	Urgencies   []Urgency
)

func init() {
	var c catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		panic(fmt.Sprintf("models: parse catalog.yaml: %v", err))
	}
	if len(c.BloodGroups) == 0 || len(c.Districts) == 0 || len(c.Urgencies) == 0 {
		panic("models: catalog.yaml is missing a section")
	}
	BloodGroups = c.BloodGroups
	Districts = c.Districts
	Urgencies = make([]Urgency, len(c.Urgencies))
	for i, u := range c.Urgencies {
		Urgencies[i] = Urgency(u)
	}
}

// IsBloodGroup reports whether v is one of the eight ABO/Rh groups.
// The comparison is exact.
func IsBloodGroup(v string) bool {
	return contains(BloodGroups, v)
}

// IsDistrict reports whether v is a known district name (exact match).
func IsDistrict(v string) bool {
	return contains(Districts, v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Urgency of an emergency request. Values are ordered low < medium < high < critical.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// DefaultUrgency applies when a request does not name one.
const DefaultUrgency = UrgencyHigh

// Rank returns the ordinal position of u, or -1 when u is unknown.
func (u Urgency) Rank() int {
	for i, v := range Urgencies {
		if v == u {
			return i
		}
	}
	return -1
}

// ParseUrgency normalizes v. An empty value yields DefaultUrgency.
func ParseUrgency(v string) (Urgency, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return DefaultUrgency, true
	}
	u := Urgency(v)
	if u.Rank() < 0 {
		return "", false
	}
	return u, true
}

// UrgencyValues returns the urgency names as strings (for schema enums and selects).
func UrgencyValues() []string {
	out := make([]string, len(Urgencies))
	for i, u := range Urgencies {
		out[i] = string(u)
	}
	return out
}
