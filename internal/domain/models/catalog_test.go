package models

import "testing"

func TestCatalogLoaded(t *testing.T) {
	if len(BloodGroups) != 8 {
		t.Errorf("BloodGroups: got %d, want 8", len(BloodGroups))
	}
	if len(Districts) != 33 {
		t.Errorf("Districts: got %d, want 33", len(Districts))
	}
	if len(Urgencies) != 4 {
		t.Errorf("Urgencies: got %d, want 4", len(Urgencies))
	}
}

func TestIsBloodGroup(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"O+", true},
		{"AB-", true},
		{"ab-", false},
		{"O", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsBloodGroup(tt.v); got != tt.want {
			t.Errorf("IsBloodGroup(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestIsDistrict(t *testing.T) {
	if !IsDistrict("Warangal Urban") {
		t.Error("expected Warangal Urban to be a district")
	}
	if IsDistrict("hyderabad") {
		t.Error("district match must be exact")
	}
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in     string
		want   Urgency
		wantOK bool
	}{
		{"", UrgencyHigh, true},
		{"  ", UrgencyHigh, true},
		{"Critical", UrgencyCritical, true},
		{"low", UrgencyLow, true},
		{"extreme", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseUrgency(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseUrgency(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestUrgencyRankOrder(t *testing.T) {
	if !(UrgencyLow.Rank() < UrgencyMedium.Rank() &&
		UrgencyMedium.Rank() < UrgencyHigh.Rank() &&
		UrgencyHigh.Rank() < UrgencyCritical.Rank()) {
		t.Error("urgency ranks are not ordered low < medium < high < critical")
	}
	if Urgency("nope").Rank() != -1 {
		t.Error("unknown urgency should rank -1")
	}
}
