package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "a-secret-that-is-long-enough-for-hs256"

func TestIssueAndValidate(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	token, err := verifier.Issue("user-42", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	userID, err := verifier.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-42" {
		t.Errorf("Validate() = %q, expected user-42", userID)
	}
}

func TestValidateRejects(t *testing.T) {
	verifier, _ := NewVerifier(testSecret)
	other, _ := NewVerifier("a-different-secret-of-sufficient-size")

	expired := &Verifier{secret: []byte(testSecret), now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expiredToken, _ := expired.Issue("user-1", time.Hour)
	foreignToken, _ := other.Issue("user-1", time.Hour)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte(testSecret))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"garbage":    "not-a-token",
		"expired":    expiredToken,
		"foreign":    foreignToken,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"unsigned":   unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, expected ErrInvalidToken", err)
			}
		})
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(""); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
	verifier, _ := NewVerifier(testSecret)
	if _, err := verifier.Issue(" ", time.Hour); err == nil {
		t.Fatal("expected an error for an empty user id")
	}
}

func TestMiddleware(t *testing.T) {
	verifier, _ := NewVerifier(testSecret)
	token, _ := verifier.Issue("user-7", time.Hour)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	onError := func(w http.ResponseWriter, status int, msg string) {
		http.Error(w, msg, status)
	}
	handler := verifier.Middleware(nil, onError)(next)

	tests := []struct {
		name   string
		header string
		status int
		user   string
	}{
		{"Valid bearer", "Bearer " + token, http.StatusNoContent, "user-7"},
		{"Lower case scheme", "bearer " + token, http.StatusNoContent, "user-7"},
		{"Upper case scheme", "BEARER " + token, http.StatusNoContent, "user-7"},
		{"Bare token", token, http.StatusUnauthorized, ""},
		{"Other scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"Missing header", "", http.StatusUnauthorized, ""},
		{"Empty bearer", "Bearer ", http.StatusUnauthorized, ""},
		{"Bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
			if seen != tt.user {
				t.Errorf("expected user %q in context, got %q", tt.user, seen)
			}
		})
	}
}

func TestUserID(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Error("expected no user in a bare context")
	}
	if _, ok := UserID(WithUserID(context.Background(), "")); ok {
		t.Error("expected an empty user id to count as unauthenticated")
	}
	if got, ok := UserID(WithUserID(context.Background(), "u")); !ok || got != "u" {
		t.Errorf("UserID() = %q, %v", got, ok)
	}
}
