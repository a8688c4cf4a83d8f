package authgin

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/insights/auth"
	"github.com/open-rails/insights/testkit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newAuthedEngine builds an engine with one protected route that echoes the
// authenticated request state back as JSON.
func newAuthedEngine(verifier *auth.Verifier, hook auth.PostVerifyHook) *gin.Engine {
	engine := gin.New()
	protected := engine.Group("/", AuthRequired(verifier, hook, nil))
	protected.GET("/whoami", func(c *gin.Context) {
		claims, ok := ClaimsFromGin(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "claims missing"})
			return
		}
		code, hookRan := RegisteredLGDCodeFromGin(c)
		c.JSON(http.StatusOK, gin.H{
			"subject":             claims.Subject(),
			"registered_lgd_code": code,
			"hook_ran":            hookRan,
		})
	})
	return engine
}

func jwksVerifier(t *testing.T, iss *testkit.Issuer) *auth.Verifier {
	t.Helper()
	ks := auth.NewJWKSKeySource(auth.JWKSConfig{URL: iss.JWKSURL(), FetchTimeout: 5 * time.Second}, nil)
	return auth.NewVerifier(ks, nil)
}

func doRequest(t *testing.T, engine *gin.Engine, target, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestAuthRequired_HeaderToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	engine := newAuthedEngine(jwksVerifier(t, iss), auth.NewLocationHook(""))

	token := iss.TokenWithLocations("user-1", []map[string]any{
		{"location_type": "village", "lgd_code": "V-4217"},
	})
	w := doRequest(t, engine, "/whoami", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["subject"] != "user-1" {
		t.Fatalf("subject = %v, want user-1", body["subject"])
	}
	if body["registered_lgd_code"] != "V-4217" {
		t.Fatalf("registered_lgd_code = %v, want V-4217", body["registered_lgd_code"])
	}
	if body["hook_ran"] != true {
		t.Fatal("hook marker missing downstream")
	}
}

func TestAuthRequired_QueryToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	engine := newAuthedEngine(jwksVerifier(t, iss), auth.NewLocationHook(""))

	w := doRequest(t, engine, "/whoami?token="+iss.Token("user-2"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["subject"] != "user-2" {
		t.Fatalf("subject = %v, want user-2", body["subject"])
	}
}

func TestAuthRequired_TamperedToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	engine := newAuthedEngine(jwksVerifier(t, iss), auth.NewLocationHook(""))

	parts := strings.Split(iss.Token("user-1"), ".")
	corrupt := "AAAA"
	if strings.HasPrefix(parts[2], corrupt) {
		corrupt = "BBBB"
	}
	tampered := parts[0] + "." + parts[1] + "." + corrupt + parts[2][4:]

	w := doRequest(t, engine, "/whoami", "Bearer "+tampered)
	assertUnauthorized(t, w)
}

func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := decodeBody(t, w)
	if len(body) != 2 || body["status"] != "error" || body["message"] != "Unauthorized" {
		t.Fatalf("rejection body = %s, want exactly status/message", w.Body.String())
	}
}

// countingKeySource records whether key resolution was ever attempted.
type countingKeySource struct {
	calls atomic.Int64
}

func (c *countingKeySource) Resolve(context.Context, string) (*rsa.PublicKey, error) {
	c.calls.Add(1)
	return nil, auth.ErrKeySourceUnavailable
}

func TestAuthRequired_NoTokenShortCircuits(t *testing.T) {
	ks := &countingKeySource{}
	engine := newAuthedEngine(auth.NewVerifier(ks, nil), auth.NewLocationHook(""))

	w := doRequest(t, engine, "/whoami", "")
	assertUnauthorized(t, w)
	if got := ks.calls.Load(); got != 0 {
		t.Fatalf("key source consulted %d times for a tokenless request", got)
	}
}

type panicHook struct{}

func (panicHook) Enrich(context.Context, auth.ClaimSet) error { panic("hook exploded") }

func TestAuthRequired_PanickingHookFailsClosed(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	engine := newAuthedEngine(jwksVerifier(t, iss), panicHook{})

	w := doRequest(t, engine, "/whoami", "Bearer "+iss.Token("user-1"))
	assertUnauthorized(t, w)
}

func TestAuthRequired_NilMarkerVisibleDownstream(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	engine := newAuthedEngine(jwksVerifier(t, iss), auth.NewLocationHook(""))

	// Token carries no locations claim: the hook still runs and attaches
	// the explicit empty marker.
	w := doRequest(t, engine, "/whoami", "Bearer "+iss.Token("user-3"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["hook_ran"] != true {
		t.Fatal("hook marker missing downstream")
	}
	if body["registered_lgd_code"] != "" {
		t.Fatalf("registered_lgd_code = %v, want empty", body["registered_lgd_code"])
	}
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	iss := testkit.NewIssuer()
	defer iss.Close()
	engine := newAuthedEngine(jwksVerifier(t, iss), auth.NewLocationHook(""))

	w := doRequest(t, engine, "/whoami", "Bearer "+iss.ExpiredToken("user-1"))
	assertUnauthorized(t, w)
}
