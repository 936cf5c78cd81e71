package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-jwt-signing-32b"

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 15, 0)
	user := &User{ID: "usr-001", Name: "Olena", Surname: "Koval", UserType: UserTypeRegular}

	token, err := ti.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	claims, err := ti.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != "usr-001" || claims.Subject != "usr-001" {
		t.Errorf("UserID/Subject = %q/%q, want usr-001", claims.UserID, claims.Subject)
	}
	if claims.Name != "Olena" || claims.Surname != "Koval" {
		t.Errorf("Name/Surname = %q/%q", claims.Name, claims.Surname)
	}
	if claims.ID == "" {
		t.Error("JTI should not be empty")
	}
}

func TestTokenIssuer_TTLByTier(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 30, 600)

	tests := []struct {
		tier UserType
		want time.Duration
	}{
		{UserTypeRegular, 30 * time.Minute},
		{UserTypePremium, 600 * time.Minute},
		{UserTypeAdmin, 600 * time.Minute},
		{"unknown", 30 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			if got := ti.TTL(tt.tier); got != tt.want {
				t.Errorf("TTL(%q) = %v, want %v", tt.tier, got, tt.want)
			}
		})
	}
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 0, -1)
	if got := ti.TTL(UserTypeRegular); got != time.Hour {
		t.Errorf("regular TTL = %v, want 1h", got)
	}
	if got := ti.TTL(UserTypePremium); got != 24*time.Hour {
		t.Errorf("premium TTL = %v, want 24h", got)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 15, 0)
	issuedAt := time.Now().Add(-time.Hour)
	ti.now = func() time.Time { return issuedAt }

	token, err := ti.Issue(&User{ID: "usr-001"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	ti.now = time.Now
	if _, err := ti.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Parse() error = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 15, 0)
	other := NewTokenIssuer("another-secret-another-secret-xx", 15, 0)
	foreign, err := other.Issue(&User{ID: "usr-001"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-valid-jwt"},
		{"malformed", "abc.def"},
		{"wrong secret", foreign},
		{"alg none", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJpZCI6InVzci0wMDEifQ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ti.Parse(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Parse() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestTokenIssuer_MissingUserID(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 15, 0)
	token, err := ti.Issue(&User{})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := ti.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Parse() error = %v, want ErrTokenInvalid", err)
	}
}
