package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"metadata-serverless/internal/token"
)

const defaultTokenTTL = 30 * time.Minute

// Service exchanges a username/password pair for a signed token. It is
// stateless: the credential store read is its only side effect.
type Service struct {
	store    CredentialStore
	codec    *token.Codec
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(store CredentialStore, codec *token.Codec, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}

	return &Service{
		store:    store,
		codec:    codec,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Login validates the pair against the store and issues a token on success.
// Every credential-related failure collapses to ErrInvalidCredentials; only
// infrastructure failures surface as other errors.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	result, err := s.store.Query(ctx, username)
	if err != nil {
		return "", fmt.Errorf("credential lookup: %w", err)
	}

	// A duplicate username is treated the same as a miss so the response
	// does not reveal which case occurred.
	if result.Count != 1 {
		return "", ErrInvalidCredentials
	}

	stored := result.Items[0]
	if subtle.ConstantTimeCompare([]byte(stored.Password), []byte(password)) != 1 {
		return "", ErrInvalidCredentials
	}

	expires := s.now().Add(s.tokenTTL).UnixMilli()
	signed, err := s.codec.Sign(username, expires)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return signed, nil
}

var ErrInvalidCredentials = errors.New("invalid credentials")
