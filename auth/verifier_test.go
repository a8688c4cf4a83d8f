package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/open-rails/insights/testkit"
)

func newJWKSVerifier(t *testing.T, iss *testkit.Issuer) *Verifier {
	t.Helper()
	ks := NewJWKSKeySource(JWKSConfig{URL: iss.JWKSURL(), FetchTimeout: 5 * time.Second}, nil)
	return NewVerifier(ks, nil)
}

func TestVerifier_ValidToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	claims, err := v.Verify(context.Background(), iss.Token("user-1"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := claims.Subject(); got != "user-1" {
		t.Fatalf("subject = %q, want user-1", got)
	}
}

func TestVerifier_StaticKey(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := NewVerifier(NewStaticKeySource(iss.PublicKeyPEM()), nil)

	claims, err := v.Verify(context.Background(), iss.Token("user-2"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got := claims.Subject(); got != "user-2" {
		t.Fatalf("subject = %q, want user-2", got)
	}
}

func TestVerifier_ExpiredToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	if _, err := v.Verify(context.Background(), iss.ExpiredToken("user-1")); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifier_NotYetValidToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	tok := iss.TokenWithClaims("user-1", map[string]any{
		"nbf": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired for nbf in the future, got %v", err)
	}
}

func TestVerifier_GarbageToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	for _, raw := range []string{"garbage", "a.b", "....", "ey.ey.ey"} {
		if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("token %q: expected ErrMalformedToken, got %v", raw, err)
		}
	}
}

func TestVerifier_TamperedPayload(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	parts := strings.Split(iss.Token("user-1"), ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin","exp":` + "9999999999" + `}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	if _, err := v.Verify(context.Background(), tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifier_ForeignIssuer(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	other := testkit.NewIssuer()
	defer other.Close()

	// Both issuers use the same kid; only the key material differs. The
	// kid resolves, the signature does not check out.
	v := newJWKSVerifier(t, iss)
	if _, err := v.Verify(context.Background(), other.Token("user-1")); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifier_RejectsNoneAlgorithm(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-1","exp":9999999999}`))
	unsigned := header + "." + payload + "."

	if _, err := v.Verify(context.Background(), unsigned); err == nil {
		t.Fatal("unsigned token must not verify")
	} else if !errors.Is(err, ErrSignatureInvalid) && !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected a rejection category, got %v", err)
	}
}

func TestVerifier_RejectsHMACAlgorithm(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	v := newJWKSVerifier(t, iss)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = "test-key-1"
	raw, err := tok.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign HS256 token: %v", err)
	}

	if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifier_KeySourceDown(t *testing.T) {
	v := NewVerifier(NewJWKSKeySource(JWKSConfig{URL: "http://127.0.0.1:1/jwks", FetchTimeout: time.Second}, nil), nil)

	iss := testkit.NewIssuer()
	defer iss.Close()
	if _, err := v.Verify(context.Background(), iss.Token("user-1")); !errors.Is(err, ErrKeySourceUnavailable) {
		t.Fatalf("expected ErrKeySourceUnavailable, got %v", err)
	}
}
