// Package accounts coordinates the account registration lifecycle across
// two backing systems: an external credential provider that owns secrets
// and a local record store that owns profile and verification state.
//
// Lifecycle:
//   - Accounts are created pending and carry a single-use verification
//     token with an expiry. RegistrationCoordinator creates the provider
//     identity first, persists the record, then sends the verification
//     notification; a persistence failure after the provider call leaves
//     an orphaned identity and emits a reconciliation activity event
//     instead of attempting a rollback.
//   - VerificationHandler consumes the token through a conditional update
//     so concurrent attempts race on the row and exactly one wins.
//     Verified is terminal; consumed, expired, and unknown tokens all
//     collapse into the same invalid-token answer.
//   - LoginGate checks local verification state before the provider is
//     ever asked to authenticate, so unverified and unknown accounts
//     never trigger a credential check.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the coordinator,
//     the state machine, and the login gate to describe registration,
//     verification, login, and orphaned-credential events. Sink errors
//     are logged, never propagated.
//
// External systems:
//   - CredentialProvider, Notifier, and the session token service are
//     interfaces; provider/local ships a bun-backed provider for
//     development and single-node deployments.
package accounts
