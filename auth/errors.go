package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Verification failure categories. Handlers never see these — the gin
// adapter collapses every one of them into a bare 401 — but they are logged
// at the point of failure so operators can tell a key-rotation problem from
// a wall of expired tokens.
var (
	ErrTokenAbsent          = errors.New("auth: no bearer token in request")
	ErrMalformedToken       = errors.New("auth: malformed token")
	ErrUnknownSigningKey    = errors.New("auth: token signed with unknown key")
	ErrSignatureInvalid     = errors.New("auth: signature verification failed")
	ErrTokenExpired         = errors.New("auth: token outside its validity window")
	ErrKeySourceUnavailable = errors.New("auth: key source unavailable")
	ErrHookInternal         = errors.New("auth: post-verify hook failed")
)

// ErrorCode maps a verification failure to a short operator-facing code
// for structured logs and metric labels.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTokenAbsent):
		return "token_absent"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrUnknownSigningKey):
		return "unknown_signing_key"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrKeySourceUnavailable):
		return "key_source_unavailable"
	case errors.Is(err, ErrHookInternal):
		return "hook_internal"
	default:
		return "verification_failed"
	}
}

// classifyParseError folds golang-jwt parse failures into our taxonomy.
// Errors that already carry a category (key resolution failures surfaced
// through the keyfunc) pass through unchanged.
func classifyParseError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnknownSigningKey),
		errors.Is(err, ErrKeySourceUnavailable),
		errors.Is(err, ErrSignatureInvalid):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrSignatureInvalid
	}
}
