// Package session maps opaque tokens to authenticated roles.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyToken = errors.New("empty session token")

// Store keeps issued session tokens. A zero ttl means the session never
// expires.
type Store interface {
	Create(ctx context.Context, role string, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (role string, ok bool, err error)
	Revoke(ctx context.Context, token string) error
}

// newToken concatenates two random UUIDs.
func newToken() (string, error) {
	a, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	b, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return a.String() + b.String(), nil
}
