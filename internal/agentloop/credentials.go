package agentloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/viziclaw/agentcore/internal/config"
)

// oauthExpirySafetyMargin is subtracted from a cached OAuth token's expiry
// before comparing against now, so a token that is about to expire mid-call
// is treated as already absent.
const oauthExpirySafetyMargin = 60 * time.Second

// OAuthCredentialStore looks up a cached OAuth token from an OS credential
// store. Only consulted for the Anthropic provider.
type OAuthCredentialStore interface {
	Lookup(ctx context.Context) (token string, expiresAt time.Time, ok bool)
}

// NopOAuthStore always misses. ResolveCredential uses it when no store is
// supplied, so resolution falls through to the env var chain below.
type NopOAuthStore struct{}

func (NopOAuthStore) Lookup(context.Context) (string, time.Time, bool) {
	return "", time.Time{}, false
}

// FileOAuthStore reads a cached Anthropic OAuth token from a single file on
// disk. The token itself is a JWT, so its expiry is derived from the
// token's own "exp" claim via JWTExpiry rather than tracked separately.
type FileOAuthStore struct {
	Path string
}

// NewFileOAuthStore returns a FileOAuthStore reading from path.
func NewFileOAuthStore(path string) FileOAuthStore {
	return FileOAuthStore{Path: path}
}

// DefaultOAuthTokenPath returns the default location of the cached
// Anthropic OAuth token, ~/.viziclaw/anthropic-oauth-token.
func DefaultOAuthTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".viziclaw", "anthropic-oauth-token"), nil
}

// Lookup reads and parses the cached token. A missing file, empty file, or
// a token with no parseable "exp" claim is treated as a miss rather than an
// error, so callers fall through to the rest of the credential chain.
func (s FileOAuthStore) Lookup(context.Context) (string, time.Time, bool) {
	if s.Path == "" {
		return "", time.Time{}, false
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return "", time.Time{}, false
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", time.Time{}, false
	}
	expiresAt, err := JWTExpiry(token)
	if err != nil {
		return "", time.Time{}, false
	}
	return token, expiresAt, true
}

var providerEnvVar = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
}

// ResolveCredential implements the §6 resolution order: for Anthropic, an
// OS credential-store OAuth token (honoring its expiry with a safety
// margin) is tried first; then the configured key; then the
// provider-specific env var or VIZICLAW_API_KEY; then the generic
// VIZICLAW_API_KEY/API_KEY fallbacks.
func ResolveCredential(ctx context.Context, cfg config.Config, provider string, oauth OAuthCredentialStore) (string, error) {
	if provider == "anthropic" {
		if oauth == nil {
			oauth = NopOAuthStore{}
		}
		if token, expiresAt, ok := oauth.Lookup(ctx); ok {
			if time.Until(expiresAt) > oauthExpirySafetyMargin {
				return token, nil
			}
		}
	}

	if key := cfg.APIKeys[provider]; key != "" {
		return key, nil
	}

	if envVar, ok := providerEnvVar[provider]; ok {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}

	if key := os.Getenv("VIZICLAW_API_KEY"); key != "" {
		return key, nil
	}
	if key := os.Getenv("API_KEY"); key != "" {
		return key, nil
	}

	if provider == "anthropic" {
		return "", fmt.Errorf("%w: no Anthropic API key found", ErrCredentialMissing)
	}
	return "", nil
}

// JWTExpiry extracts the "exp" claim from a JWT without verifying its
// signature — useful for OAuthCredentialStore implementations whose cached
// tokens are JWTs and only need an expiry check, not authentication.
func JWTExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return time.Unix(int64(expFloat), 0), nil
}
