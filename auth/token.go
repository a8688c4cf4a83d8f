// Package auth implements the bearer-token gate in front of the analytics
// API: token extraction, key resolution (static RSA key or remote JWKS),
// RS256 signature verification, and post-verification claim enrichment.
package auth

import "strings"

// bearerPrefix is matched case-sensitively, so "bearer x" does not carry a
// token. The remainder after the prefix is trimmed, so extra padding around
// the token is tolerated.
const bearerPrefix = "Bearer "

// TokenQueryParam is the fallback location for the bearer token when no
// Authorization header is sent (websocket clients, download links).
const TokenQueryParam = "token"

// ExtractToken returns the candidate bearer token from a request's
// Authorization header value and `token` query parameter. The header wins;
// the query parameter is the fallback. Absence is a normal outcome.
func ExtractToken(authorization, queryToken string) (string, bool) {
	if strings.HasPrefix(authorization, bearerPrefix) {
		if tok := strings.TrimSpace(authorization[len(bearerPrefix):]); tok != "" {
			return tok, true
		}
	}
	if queryToken != "" {
		return queryToken, true
	}
	return "", false
}
