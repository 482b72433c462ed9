// Package auth manages short-lived provider access tokens with a
// single-flight refresh discipline.
package auth

import (
	"context"
	"time"
)

// Credential is one provider's access token with its absolute expiry.
// Expiry is always an absolute instant internally; token sources convert
// relative expires_in values when building the credential.
type Credential struct {
	Provider  string
	Token     string
	ExpiresAt time.Time
}

// Fresh reports whether the credential is still usable, leaving the given
// safety margin before the actual expiry.
func (c Credential) Fresh(now time.Time, margin time.Duration) bool {
	return c.Token != "" && now.Before(c.ExpiresAt.Add(-margin))
}

// TokenSource performs the authentication exchange for one provider
// (client-credentials style: id + secret in, token + expiry out).
type TokenSource interface {
	// Provider returns the provider name this source authenticates for.
	Provider() string

	// Authenticate exchanges configured credentials for an access token.
	Authenticate(ctx context.Context) (Credential, error)
}

// TokenStore persists refreshed credentials. The default store is
// in-process memory; a Redis-backed store lets several instances share
// refreshed tokens.
type TokenStore interface {
	Get(ctx context.Context, provider string) (Credential, bool, error)
	Put(ctx context.Context, cred Credential) error
	Delete(ctx context.Context, provider string) error
}
