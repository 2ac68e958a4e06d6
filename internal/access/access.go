package access

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Authorizer decides whether a submitted secret grants access.
type Authorizer interface {
	Allow(ctx context.Context, secret string) bool
	// Required reports whether the form must ask for a secret.
	Required() bool
}

// Open grants every request.
type Open struct{}

func (Open) Allow(context.Context, string) bool { return true }
func (Open) Required() bool                      { return false }

// SharedSecret compares the submitted secret in constant time.
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret returns an Authorizer for one plain-text secret.
func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: []byte(secret)}
}

func (s *SharedSecret) Allow(_ context.Context, secret string) bool {
	return len(s.secret) > 0 && subtle.ConstantTimeCompare(s.secret, []byte(secret)) == 1
}

func (s *SharedSecret) Required() bool { return true }

// BcryptSecret checks the submitted secret against a bcrypt hash so the
// configuration never holds the secret itself.
type BcryptSecret struct {
	hash []byte
}

// NewBcryptSecret validates hash and returns an Authorizer for it.
func NewBcryptSecret(hash string) (*BcryptSecret, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &BcryptSecret{hash: []byte(hash)}, nil
}

func (b *BcryptSecret) Allow(_ context.Context, secret string) bool {
	return bcrypt.CompareHashAndPassword(b.hash, []byte(secret)) == nil
}

func (b *BcryptSecret) Required() bool { return true }

// HashSecret returns a bcrypt hash suitable for access.secret_hash.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// New selects an Authorizer by mode: "open", "shared-secret" or "bcrypt".
func New(mode, secret, hash string) (Authorizer, error) {
	switch mode {
	case "", "open":
		return Open{}, nil
	case "shared-secret":
		if secret == "" {
			return nil, errors.New("shared-secret mode needs a secret")
		}
		return NewSharedSecret(secret), nil
	case "bcrypt":
		return NewBcryptSecret(hash)
	default:
		return nil, fmt.Errorf("unknown access mode %q", mode)
	}
}
