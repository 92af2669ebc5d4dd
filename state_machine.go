package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_VERIFICATION_TRANSITION"
	textCodeTerminalState     = "TERMINAL_VERIFICATION_STATE"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid verification state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from the verified state.
var ErrTerminalState = goerrors.New("account verification state is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalState).
	WithCode(goerrors.CodeConflict)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor   ActorRef
	Account *Account
	From    VerificationStatus
	To      VerificationStatus
	Meta    TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes state machine behavior.
type TransitionOption func(*transitionOptions)

// VerificationStateMachine governs the pending -> verified lifecycle.
type VerificationStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, account *Account, target VerificationStatus, opts ...TransitionOption) (*Account, error)
	CurrentStatus(account *Account) VerificationStatus
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*verificationStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *verificationStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *verificationStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated.
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *verificationStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *verificationStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithConsumedToken makes the persistence step conditional on the token
// still being present and unexpired. Concurrent consumers of the same
// token race on this update and exactly one wins.
func WithConsumedToken(token string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.consumedToken = token
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewVerificationStateMachine returns the default implementation backed by the provided store.
func NewVerificationStateMachine(store AccountStore, opts ...StateMachineOption) VerificationStateMachine {
	sm := &verificationStateMachine{
		store: store,
		transitions: map[VerificationStatus]map[VerificationStatus]struct{}{
			VerificationPending: {
				VerificationVerified: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type verificationStateMachine struct {
	store            AccountStore
	transitions      map[VerificationStatus]map[VerificationStatus]struct{}
	now              func() time.Time
	activitySink     ActivitySink
	logger           Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata      TransitionMetadata
	consumedToken string
	force         bool
	beforeHooks   []TransitionHook
	afterHooks    []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *verificationStateMachine) Transition(ctx context.Context, actor ActorRef, account *Account, target VerificationStatus, opts ...TransitionOption) (*Account, error) {
	if account == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "account is nil",
		})
	}

	from := account.Status()
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return account, nil
	}

	options := sm.buildTransitionOptions(opts...)

	if from == VerificationVerified && !options.force {
		return nil, ErrTerminalState.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !options.force && !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	ctxData := TransitionContext{
		Actor:   actor,
		Account: account,
		From:    from,
		To:      target,
		Meta:    options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	updated, err := sm.persist(ctx, account, options)
	if err != nil {
		return nil, err
	}

	sm.applyUpdates(account, updated)

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventAccountVerified,
		Actor:      actor,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.transitionMetadata(ctxData.Meta),
	})

	return account, nil
}

func (sm *verificationStateMachine) CurrentStatus(account *Account) VerificationStatus {
	if account == nil {
		return ""
	}
	return account.Status()
}

// persist runs the single-record update. With a consumed token the update is
// conditional on the token row still being live; without one this is an
// administrative force-verify keyed by id.
func (sm *verificationStateMachine) persist(ctx context.Context, account *Account, options *transitionOptions) (*Account, error) {
	if options.consumedToken != "" {
		return sm.store.ConsumeVerificationToken(ctx, options.consumedToken, sm.now())
	}
	return sm.store.MarkVerified(ctx, account.ID, sm.now())
}

func (sm *verificationStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *verificationStateMachine) canTransition(from, to VerificationStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *verificationStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"go-accounts: %s transition hook failed: %v\nAccountID: %s from=%s to=%s reason=%s\nProvide accounts.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Account.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *verificationStateMachine) applyUpdates(account, updated *Account) {
	if updated == nil {
		account.MarkVerified(sm.now())
		return
	}

	account.IsVerified = updated.IsVerified
	account.VerificationToken = updated.VerificationToken
	account.VerificationTokenExpiresAt = updated.VerificationTokenExpiresAt
	account.VerifiedAt = updated.VerifiedAt
}

func (sm *verificationStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func (sm *verificationStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
