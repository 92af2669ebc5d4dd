package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// TokenLength is the rendered width of a verification token: 16 random
// bytes hex encoded, 128 bits of entropy.
const TokenLength = 32

// DefaultTokenTTL is how long an issued verification token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// TokenIssuer generates and validates single-use verification tokens.
type TokenIssuer struct {
	store AccountStore
	ttl   time.Duration
	now   func() time.Time
	rand  io.Reader
}

// TokenIssuerOption customizes token issuer construction.
type TokenIssuerOption func(*TokenIssuer)

// WithTokenTTL overrides the issued token lifetime.
func WithTokenTTL(ttl time.Duration) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if clock != nil {
			t.now = clock
		}
	}
}

// WithTokenRandSource overrides the random source (useful for tests).
func WithTokenRandSource(r io.Reader) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if r != nil {
			t.rand = r
		}
	}
}

// NewTokenIssuer returns a TokenIssuer backed by the given store.
func NewTokenIssuer(store AccountStore, opts ...TokenIssuerOption) *TokenIssuer {
	t := &TokenIssuer{
		store: store,
		ttl:   DefaultTokenTTL,
		now:   time.Now,
		rand:  rand.Reader,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t
}

// Issue generates a fresh token and its expiry. The expiry is strictly in
// the future at issuance.
func (t *TokenIssuer) Issue() (string, time.Time, error) {
	buf := make([]byte, TokenLength/2)
	if _, err := io.ReadFull(t.rand, buf); err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read verification token entropy")
	}

	return hex.EncodeToString(buf), t.now().Add(t.ttl), nil
}

// Validate resolves a presented token to its pending account. No match and
// expired tokens both collapse into ErrTokenInvalid so callers cannot probe
// which tokens once existed.
func (t *TokenIssuer) Validate(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	account, err := t.store.GetByToken(ctx, token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification token").
			WithTextCode(TextCodeProviderFailure)
	}

	if !account.HasPendingToken(t.now()) {
		return nil, ErrTokenInvalid
	}

	return account, nil
}
