// Package authgin wires the auth package into gin: the per-request gate in
// front of every analytics route, plus context helpers for handlers.
package authgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/insights/auth"
	"github.com/open-rails/insights/metrics"
)

// Gin context keys for the authenticated request state.
const (
	ctxKeyClaims  = "auth.claims"
	ctxKeyLGDCode = "auth.registered_lgd_code"
)

// unauthorizedBody is the only response an unauthenticated caller ever
// sees. No WWW-Authenticate header, no failure category, no stack detail.
var unauthorizedBody = gin.H{"status": "error", "message": "Unauthorized"}

// AuthRequired gates a route group behind bearer-token verification:
// extract → verify → attach claims → run hook → next handler. Every
// failure, including a panic anywhere in those steps, terminates the
// request with 401. The middleware fails closed; it never surfaces a 5xx
// from the auth path.
func AuthRequired(verifier *auth.Verifier, hook auth.PostVerifyHook, log *logrus.Entry) gin.HandlerFunc {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(c *gin.Context) {
		claims, err := authenticate(c, verifier, hook, log)
		if err != nil {
			metrics.AuthRequestsTotal.WithLabelValues("rejected", auth.ErrorCode(err)).Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
			return
		}
		c.Set(ctxKeyClaims, claims)
		if code, present := auth.RegisteredLGDCode(claims); present {
			c.Set(ctxKeyLGDCode, code)
		}
		metrics.AuthRequestsTotal.WithLabelValues("allowed", "").Inc()
		c.Next()
	}
}

// authenticate runs steps 1–3 of the gate under a recover so that an
// internal panic is indistinguishable from a bad token to the caller.
func authenticate(c *gin.Context, verifier *auth.Verifier, hook auth.PostVerifyHook, log *logrus.Entry) (claims auth.ClaimSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("auth middleware panicked, failing closed")
			claims, err = nil, auth.ErrHookInternal
		}
	}()

	raw, ok := auth.ExtractToken(c.GetHeader("Authorization"), c.Query(auth.TokenQueryParam))
	if !ok {
		return nil, auth.ErrTokenAbsent
	}
	claims, err = verifier.Verify(c.Request.Context(), raw)
	if err != nil {
		return nil, err
	}
	if hook != nil {
		if err := hook.Enrich(c.Request.Context(), claims); err != nil {
			log.WithField("error_code", auth.ErrorCode(err)).Error("post-verify hook failed")
			return nil, auth.ErrHookInternal
		}
	}
	return claims, nil
}

// ClaimsFromGin returns the authenticated claim set attached by
// AuthRequired. Only present on the allowed path.
func ClaimsFromGin(c *gin.Context) (auth.ClaimSet, bool) {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(auth.ClaimSet)
	return claims, ok
}

// RegisteredLGDCodeFromGin returns the hook-derived registered LGD code.
// ok reports that the hook ran; code is empty when it found no location.
func RegisteredLGDCodeFromGin(c *gin.Context) (code string, ok bool) {
	v, ok := c.Get(ctxKeyLGDCode)
	if !ok {
		return "", false
	}
	code, _ = v.(string)
	return code, true
}
