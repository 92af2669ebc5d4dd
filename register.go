package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse profile phone numbers
// that are not in E.164 form.
var DefaultPhoneRegion = "US"

type RegisterAccountMessage struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	// BaseLink is the caller-supplied prefix for the verification link
	BaseLink  string `json:"-"`
	UseHashid bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountResponse acknowledges a pending registration. It never
// carries the credential, digest, or token values.
type RegisterAccountResponse struct {
	Email   string             `json:"email"`
	Status  VerificationStatus `json:"status"`
	Message string             `json:"message"`
}

// RegistrationCoordinator orchestrates credential creation, record
// persistence, token issuance, and notification, in that order. The two
// backing systems share no transaction: if the record store fails after
// the provider identity was created, the identity is left orphaned and a
// reconciliation activity event is emitted instead of a rollback.
type RegistrationCoordinator struct {
	store        AccountStore
	provider     CredentialProvider
	tokens       *TokenIssuer
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
}

// CoordinatorOption customizes coordinator construction.
type CoordinatorOption func(*RegistrationCoordinator)

// WithCoordinatorNotifier sets the verification notifier.
func WithCoordinatorNotifier(n Notifier) CoordinatorOption {
	return func(c *RegistrationCoordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithCoordinatorActivitySink sets the audit sink.
func WithCoordinatorActivitySink(sink ActivitySink) CoordinatorOption {
	return func(c *RegistrationCoordinator) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithCoordinatorLogger overrides the default logger.
func WithCoordinatorLogger(logger Logger) CoordinatorOption {
	return func(c *RegistrationCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRegistrationCoordinator wires the registration flow.
func NewRegistrationCoordinator(store AccountStore, provider CredentialProvider, tokens *TokenIssuer, opts ...CoordinatorOption) *RegistrationCoordinator {
	c := &RegistrationCoordinator{
		store:        store,
		provider:     provider,
		tokens:       tokens,
		notifier:     noopNotifier{},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func (h *RegistrationCoordinator) Execute(ctx context.Context, event RegisterAccountMessage) (*RegisterAccountResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegistrationCoordinator) execute(ctx context.Context, event RegisterAccountMessage) (*RegisterAccountResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Email == "" || event.Password == "" {
		return nil, ErrMissingInput.WithMetadata(map[string]any{
			"email_present":    event.Email != "",
			"password_present": event.Password != "",
		})
	}

	email := NormalizeEmail(event.Email)

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return nil, err
	}

	// best-effort pre-check; the store's unique key is the final authority
	if _, err := h.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount.WithMetadata(map[string]any{"email": email})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account").
			WithTextCode(TextCodeProviderFailure)
	}

	// provider first: on failure nothing was persisted locally
	credentialRef, err := h.provider.Create(ctx, email, event.Password)
	if err != nil {
		if IsCredentialTaken(err) {
			return nil, ErrDuplicateAccount.WithMetadata(map[string]any{"email": email})
		}
		h.logger.Error("credential provider create failed", "email", email, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create provider identity").
			WithTextCode(TextCodeProviderFailure)
	}

	digest, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	token, expiresAt, err := h.tokens.Issue()
	if err != nil {
		return nil, err
	}

	account := &Account{
		Email:          email,
		DisplayName:    event.DisplayName,
		Phone:          phone,
		CredentialRef:  credentialRef,
		PasswordDigest: digest,
	}
	account.SetVerificationToken(token, expiresAt)

	if event.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			account.ID = id
		}
	}

	if _, err := h.store.Register(ctx, account); err != nil {
		if IsDuplicateKeyError(err) {
			// a racing create won at the unique key
			return nil, ErrDuplicateAccount.WithMetadata(map[string]any{"email": email})
		}

		// the provider identity is now orphaned; no synchronous rollback,
		// emit a reconciliation event for the out-of-band sweep instead
		h.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventCredentialOrphaned,
			Actor:     ActorRef{Type: "system"},
			Email:     email,
			Metadata: map[string]any{
				"credential_ref": credentialRef,
			},
		})
		h.logger.Error("account persistence failed after provider create", "email", email, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account record").
			WithTextCode(TextCodeProviderFailure)
	}

	// best effort: a failed send is logged and swallowed, the user can be
	// verified through support action
	if err := h.notifier.SendVerification(ctx, email, token, event.BaseLink); err != nil {
		h.logger.Error("verification notifier failed", "email", email, "error", err)
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Email:     email,
		ToStatus:  VerificationPending,
	})

	return &RegisterAccountResponse{
		Email:   email,
		Status:  VerificationPending,
		Message: "Check your email for a verification link.",
	}, nil
}

func (h *RegistrationCoordinator) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(h.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("registration activity sink error: %v", err)
	}
}

func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithTextCode(TextCodeInvalidPhone).
			WithCode(goerrors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidPhone).
			WithCode(goerrors.CodeBadRequest)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
