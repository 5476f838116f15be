package services

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Passw0rd", false},
		{"valid long", "CorrectHorse9Battery", false},
		{"too short", "Pa1x", true},
		{"no upper", "password1", true},
		{"no lower", "PASSWORD1", true},
		{"no digit", "Passwords", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("validatePassword(%q) error = %v, wantErr %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken(32)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}
	b, err := generateToken(32)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}

	// 32 bytes hex-encoded
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("Two generated tokens should not collide")
	}
	if strings.ToLower(a) != a {
		t.Error("Expected lowercase hex encoding")
	}
}

func TestEmailRegex(t *testing.T) {
	valid := []string{"teacher@school.edu", "a.b+c@example.co.uk"}
	invalid := []string{"", "plain", "@nouser.com", "user@", "user@host"}

	for _, e := range valid {
		if !emailRegex.MatchString(e) {
			t.Errorf("Expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if emailRegex.MatchString(e) {
			t.Errorf("Expected %q to be invalid", e)
		}
	}
}
