// Package testkit provides a mock identity provider for tests: an HTTP
// server publishing a JWKS document plus a token factory whose tokens
// validate against it. It lets the auth layer be exercised end to end
// without a real identity provider.
//
//	issuer := testkit.NewIssuer()
//	defer issuer.Close()
//	ks := auth.NewJWKSKeySource(auth.JWKSConfig{URL: issuer.JWKSURL()}, nil)
//	token := issuer.Token("user-1")
package testkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	jwtkit "github.com/open-rails/insights/jwt"
)

// Issuer runs an httptest server that serves its JWKS at
// /.well-known/jwks.json and signs tokens with the matching private key.
type Issuer struct {
	server *httptest.Server
	signer *jwtkit.RSASigner
}

// NewIssuer creates an issuer with a fresh RSA key pair. Call Close when
// done.
func NewIssuer() *Issuer {
	signer, err := jwtkit.NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("testkit: generate RSA signer: " + err.Error())
	}
	iss := &Issuer{signer: signer}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", iss.handleJWKS)
	iss.server = httptest.NewServer(mux)
	return iss
}

// JWKSURL returns the JWKS endpoint URL.
func (i *Issuer) JWKSURL() string { return i.server.URL + "/.well-known/jwks.json" }

// URL returns the issuer base URL.
func (i *Issuer) URL() string { return i.server.URL }

// Signer exposes the underlying signer, for tests that need the raw key
// (static-mode setup, tamper scenarios).
func (i *Issuer) Signer() *jwtkit.RSASigner { return i.signer }

// PublicKeyPEM returns the issuer's public key in PEM form, for wiring the
// static key source in tests.
func (i *Issuer) PublicKeyPEM() string {
	pemStr, err := i.signer.PublicKeyPEM()
	if err != nil {
		panic("testkit: encode public key: " + err.Error())
	}
	return pemStr
}

// Close shuts the JWKS server down.
func (i *Issuer) Close() { i.server.Close() }

func (i *Issuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	key := jwtkit.RSAPublicToJWK(i.signer.PublicKey(), i.signer.KID(), i.signer.Algorithm())
	jwtkit.ServeJWKS(w, r, jwtkit.JWKS{Keys: []jwtkit.JWK{key}})
}

// Token signs a token for the given subject with a one-hour validity.
func (i *Issuer) Token(subject string) string {
	return i.TokenWithClaims(subject, nil)
}

// TokenWithClaims signs a token with extra claims merged over the standard
// set (sub, iss, exp, iat).
func (i *Issuer) TokenWithClaims(subject string, extra map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": i.URL(),
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	tok, err := i.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("testkit: sign token: " + err.Error())
	}
	return tok
}

// TokenWithLocations signs a token carrying a locations claim, the shape
// the post-verify hook enriches from.
func (i *Issuer) TokenWithLocations(subject string, locations []map[string]any) string {
	locs := make([]any, 0, len(locations))
	for _, l := range locations {
		locs = append(locs, l)
	}
	return i.TokenWithClaims(subject, map[string]any{"locations": locs})
}

// ExpiredToken signs a token whose validity window ended an hour ago.
func (i *Issuer) ExpiredToken(subject string) string {
	now := time.Now()
	return i.TokenWithClaims(subject, map[string]any{
		"exp": now.Add(-time.Hour).Unix(),
		"iat": now.Add(-2 * time.Hour).Unix(),
	})
}
