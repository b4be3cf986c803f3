// Package limiters provides the domain-specific abuse-control limiters built on
// top of the internal/rate primitives.
//
// # Limiters
//
//   - [LoginRateLimiter]: per-IP sliding window on every login request,
//     evaluated before credentials are looked at.
//   - [AccountLockout]: per-account auto-reset window counting failed
//     password comparisons.
//   - [InvitationGate]: per-IP auto-reset window counting wrong invitation
//     codes on the registration code-request step.
//
// All limiters are nil-safe: a nil receiver admits every request.
//
// # Architecture boundaries
//
// Each limiter owns its own map and mutex; there is no coupling between them.
// Policy thresholds come from Config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import chatauth or any sibling internal package except internal/rate.
//   - Decide HTTP status codes or user-facing messages.
package limiters
