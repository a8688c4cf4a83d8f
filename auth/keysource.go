package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// KeySource resolves the RSA public key a token claims to be signed with.
// Implementations own the key material exclusively; resolved keys are
// shared read-only across concurrent verifications.
type KeySource interface {
	// Resolve returns the public key for the given key id. kid may be
	// empty (static mode, or single-key JWKS documents).
	Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeySource holds one RSA public key decoded from a PEM string fixed
// at process start. The decode runs lazily exactly once; concurrent first
// callers block on the same decode rather than triggering redundant ones.
type StaticKeySource struct {
	pemData string

	once sync.Once
	key  *rsa.PublicKey
	err  error
}

// NewStaticKeySource builds a KeySource around a PEM-encoded RSA public key.
func NewStaticKeySource(pemData string) *StaticKeySource {
	return &StaticKeySource{pemData: pemData}
}

// Resolve returns the static key regardless of kid.
func (s *StaticKeySource) Resolve(_ context.Context, _ string) (*rsa.PublicKey, error) {
	s.once.Do(func() {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(s.pemData))
		if err != nil {
			s.err = fmt.Errorf("%w: parse static key pem: %v", ErrKeySourceUnavailable, err)
			return
		}
		s.key = key
	})
	return s.key, s.err
}

// JWKSConfig configures a remote JWKS key source. Either URL or the
// Issuer+Realm pair must be set; an explicit URL wins.
type JWKSConfig struct {
	URL    string
	Issuer string
	Realm  string

	// FetchTimeout bounds each JWKS HTTP fetch. A timed-out fetch fails
	// every caller awaiting it and is retried on the next request.
	FetchTimeout time.Duration

	// MinRefreshInterval floors how often the cached key set may be
	// re-fetched on unknown-kid misses.
	MinRefreshInterval time.Duration
}

func (c JWKSConfig) withDefaults() JWKSConfig {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MinRefreshInterval <= 0 {
		c.MinRefreshInterval = time.Minute
	}
	return c
}

// JWKSKeySource fetches and caches a remote JWKS document. The endpoint URL
// is computed once; the key set is fetched on first use and cached across
// requests, with a single re-fetch when a token references an unknown kid
// (key rotation). Concurrent cold-start resolutions collapse into one
// underlying fetch.
type JWKSKeySource struct {
	cfg JWKSConfig
	log *logrus.Entry

	urlOnce sync.Once
	url     string
	urlErr  error

	cacheOnce sync.Once
	cache     *jwk.Cache
	cacheErr  error

	// refreshGroup collapses concurrent forced re-fetches (unknown kid,
	// failed cache read) into one underlying fetch per endpoint.
	refreshGroup singleflight.Group
}

// NewJWKSKeySource builds a JWKS-backed KeySource. Construction never
// fails: misconfiguration surfaces from Resolve (and from CheckConfig,
// which callers should run once at startup for the diagnostic log line).
func NewJWKSKeySource(cfg JWKSConfig, log *logrus.Entry) *JWKSKeySource {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &JWKSKeySource{cfg: cfg.withDefaults(), log: log}
}

// EndpointURL returns the JWKS endpoint, preferring an explicit URL and
// falling back to the issuer/realm composition. The computation and its
// validation run once and are shared by all callers.
func (j *JWKSKeySource) EndpointURL() (string, error) {
	j.urlOnce.Do(func() {
		raw := strings.TrimSpace(j.cfg.URL)
		if raw == "" {
			issuer := strings.TrimRight(strings.TrimSpace(j.cfg.Issuer), "/")
			realm := strings.TrimSpace(j.cfg.Realm)
			if issuer == "" || realm == "" {
				j.urlErr = fmt.Errorf("%w: no jwks url and no issuer/realm pair configured", ErrKeySourceUnavailable)
				return
			}
			raw = issuer + "/realms/" + realm + "/protocol/openid-connect/certs"
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			j.urlErr = fmt.Errorf("%w: invalid jwks url %q: %v", ErrKeySourceUnavailable, raw, err)
			return
		}
		j.url = raw
	})
	return j.url, j.urlErr
}

// CheckConfig reports whether a JWKS endpoint is resolvable. Run once at
// startup so operators see misconfiguration before it manifests as a wall
// of 401s; request-time behavior does not depend on this check.
func (j *JWKSKeySource) CheckConfig() error {
	_, err := j.EndpointURL()
	return err
}

func (j *JWKSKeySource) keySet(ctx context.Context) (jwk.Set, string, error) {
	endpoint, err := j.EndpointURL()
	if err != nil {
		return nil, "", err
	}
	j.cacheOnce.Do(func() {
		// The cache outlives any single request.
		j.cache = jwk.NewCache(context.Background())
		j.cacheErr = j.cache.Register(endpoint,
			jwk.WithHTTPClient(&http.Client{Timeout: j.cfg.FetchTimeout}),
			jwk.WithMinRefreshInterval(j.cfg.MinRefreshInterval),
		)
	})
	if j.cacheErr != nil {
		return nil, "", fmt.Errorf("%w: register jwks endpoint: %v", ErrKeySourceUnavailable, j.cacheErr)
	}
	set, err := j.cache.Get(ctx, endpoint)
	if err != nil {
		// A failed or timed-out fetch must not poison the cache: force
		// one fresh attempt now rather than serving the stale failure.
		set, err = j.refresh(ctx, endpoint)
		if err != nil {
			return nil, "", fmt.Errorf("%w: fetch jwks: %v", ErrKeySourceUnavailable, err)
		}
	}
	return set, endpoint, nil
}

// refresh forces a re-fetch of the key set. Concurrent callers for the same
// endpoint share one underlying fetch and its result, so a burst of
// unknown-kid tokens cannot multiply requests against the identity provider.
func (j *JWKSKeySource) refresh(ctx context.Context, endpoint string) (jwk.Set, error) {
	v, err, _ := j.refreshGroup.Do(endpoint, func() (any, error) {
		return j.cache.Refresh(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

// Resolve returns the public key for kid, re-fetching the key set once when
// the kid is not in the cached set.
func (j *JWKSKeySource) Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	set, endpoint, err := j.keySet(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := lookupKey(set, kid)
	if !ok {
		j.log.WithField("kid", kid).Info("kid not in cached jwks, refreshing key set")
		set, err = j.refresh(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: refresh jwks: %v", ErrKeySourceUnavailable, err)
		}
		if key, ok = lookupKey(set, kid); !ok {
			return nil, fmt.Errorf("%w: kid %q", ErrUnknownSigningKey, kid)
		}
	}
	var pub rsa.PublicKey
	if err := key.Raw(&pub); err != nil {
		return nil, fmt.Errorf("%w: materialize jwk %q: %v", ErrKeySourceUnavailable, kid, err)
	}
	return &pub, nil
}

// Warm pre-fetches the key set so the first real request does not pay the
// cold-start fetch. Failures are returned for logging only.
func (j *JWKSKeySource) Warm(ctx context.Context) error {
	_, _, err := j.keySet(ctx)
	return err
}

// lookupKey finds a key by id; an empty kid matches a single-key set.
func lookupKey(set jwk.Set, kid string) (jwk.Key, bool) {
	if kid == "" {
		if set.Len() == 1 {
			return set.Key(0)
		}
		return nil, false
	}
	return set.LookupKeyID(kid)
}
