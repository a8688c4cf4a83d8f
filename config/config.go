// Package config loads process-wide configuration: a YAML file overlaid by
// environment variables, read once at startup and immutable afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Auth key-source modes.
const (
	AuthModeStatic = "static"
	AuthModeJWKS   = "jwks"
)

type AuthConfig struct {
	// Mode selects static-key or JWKS verification. Exactly one mode is
	// active per process; there is no runtime fallback between them.
	Mode string `yaml:"mode"`

	// JWKSURL is the full JWKS endpoint. When empty, the endpoint is
	// derived from Issuer and Realm.
	JWKSURL string `yaml:"jwksUrl"`
	Issuer  string `yaml:"issuer"`
	Realm   string `yaml:"realm"`

	// StaticKeyPEM is the PEM-encoded RSA public key for static mode.
	StaticKeyPEM string `yaml:"staticKeyPem"`

	// LocationType is the locations-claim discriminator the post-verify
	// hook matches on.
	LocationType string `yaml:"locationType"`

	FetchTimeoutSeconds       int `yaml:"fetchTimeoutSeconds"`
	MinRefreshIntervalSeconds int `yaml:"minRefreshIntervalSeconds"`
}

type Config struct {
	Port      int    `yaml:"port"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	DatabaseURL   string `yaml:"databaseUrl"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	Auth AuthConfig `yaml:"auth"`

	LookupCacheTTLSeconds int `yaml:"lookupCacheTtlSeconds"`

	// JWKSWarmSchedule is a cron expression for periodic key-set warming.
	JWKSWarmSchedule string `yaml:"jwksWarmSchedule"`

	TracingEnabled bool    `yaml:"tracingEnabled"`
	OTLPEndpoint   string  `yaml:"otlpEndpoint"`
	SampleRatio    float64 `yaml:"sampleRatio"`
}

// Load reads the YAML file at path (optional: empty path skips the file),
// overlays environment variables, and applies defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.overlayEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) overlayEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		c.Auth.Mode = v
	}
	if v := os.Getenv("AUTH_JWKS_URL"); v != "" {
		c.Auth.JWKSURL = v
	}
	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		c.Auth.Issuer = v
	}
	if v := os.Getenv("AUTH_REALM"); v != "" {
		c.Auth.Realm = v
	}
	if v := os.Getenv("AUTH_STATIC_KEY_PEM"); v != "" {
		c.Auth.StaticKeyPEM = v
	}
	if v := os.Getenv("AUTH_LOCATION_TYPE"); v != "" {
		c.Auth.LocationType = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthModeJWKS
	}
	if c.Auth.FetchTimeoutSeconds <= 0 {
		c.Auth.FetchTimeoutSeconds = 10
	}
	if c.Auth.MinRefreshIntervalSeconds <= 0 {
		c.Auth.MinRefreshIntervalSeconds = 60
	}
	if c.LookupCacheTTLSeconds <= 0 {
		c.LookupCacheTTLSeconds = 3600
	}
	if c.JWKSWarmSchedule == "" {
		c.JWKSWarmSchedule = "@every 15m"
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
}

// Validate checks for hard configuration errors and logs the startup
// diagnostics. A JWKS mode without a resolvable endpoint is logged loudly
// here so operators see it before traffic arrives; the request path
// performs its own checking and does not depend on this call.
func (c *Config) Validate(log *logrus.Entry) error {
	switch c.Auth.Mode {
	case AuthModeStatic:
		if strings.TrimSpace(c.Auth.StaticKeyPEM) == "" {
			return fmt.Errorf("auth mode %q requires staticKeyPem", AuthModeStatic)
		}
	case AuthModeJWKS:
		if c.Auth.JWKSURL == "" && (c.Auth.Issuer == "" || c.Auth.Realm == "") {
			log.Warn("jwks auth mode has neither jwksUrl nor issuer+realm configured; every request will be rejected until this is fixed")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	return nil
}
