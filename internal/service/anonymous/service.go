// Package anonymous mints and validates the opaque session tokens that key
// anonymous shoppers' carts. Tokens live only in process memory; losing them
// on restart just means a shopper gets a fresh empty cart.
package anonymous

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	tokens *tokenManager
	ttl    time.Duration
}

func New() *Service {
	return &Service{
		tokens: newTokenManager(),
		ttl:    30 * 24 * time.Hour,
	}
}

// Issue mints a new anonymous session and returns its bearer token together
// with the session id the cart is keyed by.
func (s *Service) Issue(ctx context.Context) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	token, err = s.tokens.Issue(sessionID, s.ttl)
	if err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

// Resolve maps a bearer token back to its session id.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	meta, ok := s.tokens.Validate(token)
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.SessionID, nil
}

func (s *Service) TTL() time.Duration { return s.ttl }
