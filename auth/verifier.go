package auth

import (
	"context"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// allowedAlgorithms restricts verification to exactly one signing scheme.
// Tokens carrying any other alg — including "none" and symmetric schemes —
// fail verification even when otherwise well-formed.
var allowedAlgorithms = []string{jwt.SigningMethodRS256.Alg()}

// Verifier performs cryptographic verification of bearer tokens against a
// KeySource and decodes the claim set on success. Verification is
// all-or-nothing: no partially-validated result is ever returned.
type Verifier struct {
	keys KeySource
	log  *logrus.Entry
}

// NewVerifier builds a Verifier over the given key source. The key source
// is resolved once at construction time, not on the request hot path.
func NewVerifier(keys KeySource, log *logrus.Entry) *Verifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Verifier{keys: keys, log: log}
}

// Verify checks the token's signature and temporal claims (exp, nbf) and
// returns the decoded claim set. All failures collapse into the package's
// single error taxonomy; detail is logged here, never disclosed upstream.
func (v *Verifier) Verify(ctx context.Context, raw string) (ClaimSet, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("%w: alg %v", ErrSignatureInvalid, t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		return v.keys.Resolve(ctx, kid)
	}, jwt.WithValidMethods(allowedAlgorithms))
	if err != nil {
		cat := classifyParseError(err)
		v.log.WithFields(logrus.Fields{
			"error_code": ErrorCode(cat),
			"detail":     err.Error(),
		}).Warn("token verification failed")
		return nil, cat
	}
	return ClaimSet(claims), nil
}
