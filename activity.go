package accounts

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventAccountRegistered ActivityEventType = "account.registered"
	ActivityEventAccountVerified   ActivityEventType = "account.verified"
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	// ActivityEventCredentialOrphaned is emitted when the provider identity was
	// created but the account record could not be persisted. An out-of-band
	// sweep consumes these to repair orphaned identities.
	ActivityEventCredentialOrphaned ActivityEventType = "account.credential.orphaned"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	AccountID  string
	Email      string
	FromStatus VerificationStatus
	ToStatus   VerificationStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
