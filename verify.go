package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type VerifyAccountMessage struct {
	Token string `json:"token"`
}

func (e VerifyAccountMessage) Type() string { return "account.verify" }

type VerifyAccountResponse struct {
	Account *Account           `json:"account,omitempty"`
	Status  VerificationStatus `json:"status"`
}

// VerificationHandler consumes a verification token and moves the account
// from pending to verified. Replaying a consumed token yields ErrTokenInvalid,
// which is the intended idempotent-rejection behavior.
type VerificationHandler struct {
	tokens  *TokenIssuer
	machine VerificationStateMachine
	logger  Logger
}

// VerifierOption customizes verification handler construction.
type VerifierOption func(*VerificationHandler)

// WithVerifierStateMachine overrides the default state machine.
func WithVerifierStateMachine(sm VerificationStateMachine) VerifierOption {
	return func(h *VerificationHandler) {
		if sm != nil {
			h.machine = sm
		}
	}
}

// WithVerifierLogger overrides the default logger.
func WithVerifierLogger(logger Logger) VerifierOption {
	return func(h *VerificationHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewVerificationHandler wires the verification flow.
func NewVerificationHandler(store AccountStore, tokens *TokenIssuer, opts ...VerifierOption) *VerificationHandler {
	h := &VerificationHandler{
		tokens:  tokens,
		machine: NewVerificationStateMachine(store),
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func (h *VerificationHandler) Execute(ctx context.Context, event VerifyAccountMessage) (*VerifyAccountResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerificationHandler) execute(ctx context.Context, event VerifyAccountMessage) (*VerifyAccountResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.tokens.Validate(ctx, event.Token)
	if err != nil {
		return nil, err
	}

	account, err = h.machine.Transition(
		ctx,
		ActorRef{ID: account.ID.String(), Type: "account"},
		account,
		VerificationVerified,
		WithConsumedToken(event.Token),
		WithTransitionReason("email verification"),
	)

	if err != nil {
		// the conditional update found no live token row: a concurrent
		// consumer won the race or the token expired in between
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenInvalid
		}
		if goerrors.Is(err, ErrTerminalState) || goerrors.Is(err, ErrInvalidTransition) {
			return nil, ErrTokenInvalid
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify account").
			WithTextCode(TextCodeProviderFailure)
	}

	return &VerifyAccountResponse{
		Account: account,
		Status:  VerificationVerified,
	}, nil
}
