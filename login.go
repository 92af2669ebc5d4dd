package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e LoginMessage) Type() string { return "account.login" }

// LoginResponse carries the identity summary and the provider session
// token. It never exposes the password digest or verification fields.
type LoginResponse struct {
	AccountID     uuid.UUID `json:"account_id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name,omitempty"`
	CredentialRef string    `json:"credential_ref"`
	SessionToken  string    `json:"session_token"`
}

// LoginGate enforces the verification invariant before delegating
// authentication. Local state is checked first so unverified or unknown
// accounts never trigger a provider call.
type LoginGate struct {
	store        AccountStore
	provider     CredentialProvider
	activitySink ActivitySink
	logger       Logger
}

// LoginGateOption customizes login gate construction.
type LoginGateOption func(*LoginGate)

// WithLoginGateActivitySink sets the audit sink.
func WithLoginGateActivitySink(sink ActivitySink) LoginGateOption {
	return func(g *LoginGate) {
		g.activitySink = normalizeActivitySink(sink)
	}
}

// WithLoginGateLogger overrides the default logger.
func WithLoginGateLogger(logger Logger) LoginGateOption {
	return func(g *LoginGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewLoginGate wires the login flow.
func NewLoginGate(store AccountStore, provider CredentialProvider, opts ...LoginGateOption) *LoginGate {
	g := &LoginGate{
		store:        store,
		provider:     provider,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

func (g *LoginGate) Execute(ctx context.Context, event LoginMessage) (*LoginResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return g.execute(ctx, event)
	}
}

func (g *LoginGate) execute(ctx context.Context, event LoginMessage) (*LoginResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	account, err := g.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// never reveal whether the account exists
			g.recordFailure(ctx, email, "unknown account")
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account").
			WithTextCode(TextCodeProviderFailure)
	}

	if !account.IsVerified {
		g.recordFailure(ctx, email, "unverified account")
		return nil, ErrAccountUnverified
	}

	session, err := g.provider.Authenticate(ctx, email, event.Password)
	if err != nil {
		if IsCredentialNotFound(err) || IsAuthenticationError(err) {
			g.recordFailure(ctx, email, "bad credentials")
			return nil, ErrInvalidCredentials
		}
		g.logger.Error("credential provider authenticate failed", "email", email, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "provider authentication failed").
			WithTextCode(TextCodeProviderFailure)
	}

	g.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Email:     email,
	})

	return &LoginResponse{
		AccountID:     account.ID,
		Email:         account.Email,
		DisplayName:   account.DisplayName,
		CredentialRef: session.CredentialRef,
		SessionToken:  session.SessionToken,
	}, nil
}

func (g *LoginGate) recordFailure(ctx context.Context, email, reason string) {
	g.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Email:     email,
		Metadata:  map[string]any{"reason": reason},
	})
}

func (g *LoginGate) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(g.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		g.logger.Warn("login activity sink error: %v", err)
	}
}
