package authutil

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want error
	}{
		{"empty", "", ErrPasswordTooShort},
		{"five chars", "abcde", ErrPasswordTooShort},
		{"minimum", "abc12x", nil},
		{"mixed", "Asha@NSS2024", nil},
		{"at bcrypt limit", strings.Repeat("k", MaxPasswordLength), nil},
		{"over bcrypt limit", strings.Repeat("k", MaxPasswordLength+1), ErrPasswordTooLong},
		{"common", "123456", ErrPasswordCommon},
		{"common upper", "PASSWORD", ErrPasswordCommon},
		{"common mixed case", "Donor123", ErrPasswordCommon},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidatePassword(tc.pw); !errors.Is(err, tc.want) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tc.pw, err, tc.want)
			}
		})
	}
}

func TestHashAndCheck(t *testing.T) {
	const pw = "blood-drive-2024"

	h1, err := HashPassword(pw)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword(pw)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == pw || !strings.HasPrefix(h1, "$2") {
		t.Errorf("unexpected hash %q", h1)
	}
	if h1 == h2 {
		t.Error("two hashes of one password should differ by salt")
	}

	cases := []struct {
		pw, hash string
		ok       bool
	}{
		{pw, h1, true},
		{pw, h2, true},
		{"blood-drive-2025", h1, false},
		{"", h1, false},
		{pw, "", false},
		{pw, "not-a-bcrypt-hash", false},
	}
	for _, c := range cases {
		if got := CheckPassword(c.pw, c.hash); got != c.ok {
			t.Errorf("CheckPassword(%q, %q) = %v, want %v", c.pw, c.hash, got, c.ok)
		}
	}
}

func TestPasswordRules_MentionsMinimum(t *testing.T) {
	if !strings.Contains(PasswordRules(), "6 characters") {
		t.Errorf("PasswordRules() = %q", PasswordRules())
	}
}
