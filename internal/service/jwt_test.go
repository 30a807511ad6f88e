package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"task_manager/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	i, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return i
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	i := newIssuer(t)

	token, issued, err := i.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.ID == "" {
		t.Fatalf("expected jti to be set")
	}

	claims, err := i.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("user id = %d; want 7", claims.UserID)
	}
	if claims.ID != issued.ID {
		t.Fatalf("jti = %q; want %q", claims.ID, issued.ID)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	i := newIssuer(t)
	token, _, err := i.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, err := NewTokenIssuer("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	foreign, _, _ := other.Issue(7)
	parts := strings.Split(token, ".")
	foreignParts := strings.Split(foreign, ".")
	tampered := parts[0] + "." + parts[1] + "." + foreignParts[2]

	expiredIssuer := newIssuer(t)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiredIssuer.Issue(7)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"tampered":     tampered,
		"wrong secret": foreign,
		"expired":      expired,
		"alg none":     unsigned,
		"extra dots":   strings.Repeat(".", 3),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := i.Parse(tok)
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
