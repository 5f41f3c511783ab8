package validator

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"test@konduktv.com", true},
		{"a@b.com", true},
		{"first.last+tag@sub.example.org", true},
		{"invalid-email", false},
		{"", false},
		{"missing@tld", false},
		{"@nodomain.com", false},
		{"spaces in@example.com", false},
	}

	for _, tc := range cases {
		err := ValidateEmail(tc.email)
		if tc.valid && err != nil {
			t.Errorf("expected %q to be valid, got %v", tc.email, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidEmailFormat) {
			t.Errorf("expected %q to fail with ErrInvalidEmailFormat, got %v", tc.email, err)
		}
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"Test@123456", true},
		{"Aa1!aaaa", true},
		{"weak", false},
		{"", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSymbols123", false},
		{"Aa1!a", false},
	}

	for _, tc := range cases {
		err := ValidatePasswordStrength(tc.password)
		if tc.valid && err != nil {
			t.Errorf("expected %q to pass, got %v", tc.password, err)
		}
		if !tc.valid && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected %q to fail with ErrWeakPassword, got %v", tc.password, err)
		}
	}
}
