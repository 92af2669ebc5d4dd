package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationStatus is the account's email verification state
type VerificationStatus = string

const (
	// VerificationPending means the account exists but the email has not been confirmed
	VerificationPending VerificationStatus = "pending"
	// VerificationVerified means the email has been confirmed; this state is terminal
	VerificationVerified VerificationStatus = "verified"
)

// Account is the account model
type Account struct {
	bun.BaseModel              `bun:"table:accounts,alias:acc"`
	ID                         uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email                      string         `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName                string         `bun:"display_name" json:"display_name,omitempty"`
	Phone                      string         `bun:"phone_number" json:"phone_number,omitempty"`
	CredentialRef              string         `bun:"credential_ref" json:"-"`
	PasswordDigest             string         `bun:"password_digest" json:"-"`
	IsVerified                 bool           `bun:"is_verified" json:"is_verified,omitempty"`
	VerificationToken          *string        `bun:"verification_token,nullzero" json:"-"`
	VerificationTokenExpiresAt *time.Time     `bun:"verification_token_expires_at,nullzero" json:"-"`
	VerifiedAt                 *time.Time     `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	Metadata                   map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt                  *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt                  *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt                  *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Status derives the verification state from the persisted flag
func (a *Account) Status() VerificationStatus {
	if a == nil {
		return ""
	}
	if a.IsVerified {
		return VerificationVerified
	}
	return VerificationPending
}

// HasPendingToken reports whether the account carries an unexpired verification token
func (a *Account) HasPendingToken(now time.Time) bool {
	if a == nil || a.IsVerified {
		return false
	}
	if a.VerificationToken == nil || a.VerificationTokenExpiresAt == nil {
		return false
	}
	return a.VerificationTokenExpiresAt.After(now)
}

// SetVerificationToken attaches a fresh token and its expiry to the account
func (a *Account) SetVerificationToken(token string, expiresAt time.Time) *Account {
	a.VerificationToken = &token
	a.VerificationTokenExpiresAt = &expiresAt
	a.IsVerified = false
	return a
}

// MarkVerified flips the account into the terminal verified state. The token
// and expiry are cleared in the same mutation so verified accounts never
// carry a live token.
func (a *Account) MarkVerified(now time.Time) *Account {
	a.IsVerified = true
	a.VerificationToken = nil
	a.VerificationTokenExpiresAt = nil
	a.VerifiedAt = &now
	return a
}

// AddMetadata will append information to a metadata attribute
func (a *Account) AddMetadata(key string, val any) *Account {
	if a.Metadata == nil {
		a.Metadata = make(map[string]any)
	}
	a.Metadata[key] = val
	return a
}

// NormalizeEmail lower cases and trims an email so the unique key is case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
