package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AccountStore is the slice of the accounts repository the lifecycle
// handlers need; the full Accounts repository satisfies it
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByToken(ctx context.Context, token string) (*Account, error)
	Register(ctx context.Context, record *Account) (*Account, error)
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*Account, error)
	MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (*Account, error)
}

// ProviderSession is what a CredentialProvider hands back on a
// successful authentication
type ProviderSession struct {
	CredentialRef string
	SessionToken  string
}

// CredentialProvider is the external system of record for password
// based authentication. Implementations report duplicates through
// ErrCredentialTaken, unknown identities through ErrCredentialNotFound,
// and bad passwords through ErrInvalidCredentials.
type CredentialProvider interface {
	Create(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (*ProviderSession, error)
}

// Notifier delivers the verification link out of band. Callers treat it
// as best effort: a failed send never fails the registration.
type Notifier interface {
	SendVerification(ctx context.Context, email, token, baseLink string) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, email, token, baseLink string) error

// SendVerification implements Notifier
func (f NotifierFunc) SendVerification(ctx context.Context, email, token, baseLink string) error {
	if f == nil {
		return nil
	}
	return f(ctx, email, token, baseLink)
}

// Config holds account lifecycle options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetVerificationTokenTTL() time.Duration
	GetVerificationBaseLink() string
}

// SessionTokenService mints and validates bearer session tokens
type SessionTokenService interface {
	Generate(credentialRef, email string) (string, error)
	Validate(token string) (*SessionClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
