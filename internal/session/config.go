package session

import (
	"errors"
	"os"
	"time"
)

// Config carries the token-signing material and the cookie policy. It is
// loaded once at startup and passed explicitly into the issuer and handler;
// core logic never reads the environment.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SecureCookies bool
}

// ConfigFromEnv reads session config from environment variables. Expiries
// use Go duration syntax (ACCESS_TOKEN_EXPIRY=15m, REFRESH_TOKEN_EXPIRY=240h).
func ConfigFromEnv() Config {
	cfg := Config{
		AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    240 * time.Hour,
		SecureCookies: os.Getenv("APP_ENV") == "production",
	}
	if v := os.Getenv("ACCESS_TOKEN_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AccessTTL = d
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RefreshTTL = d
		}
	}
	return cfg
}

// Validate rejects configs that would issue unverifiable or shared-trust
// tokens. The two secrets must differ so a leaked access key cannot forge
// refresh tokens.
func (c Config) Validate() error {
	if c.AccessSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.RefreshSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token expiries must be positive")
	}
	return nil
}
