// Package chatauth authenticates users of a small chat application.
//
// It owns the account store, cookie sessions, email verification codes and
// the abuse controls around them: a per-IP sliding window on login, a
// per-account lockout after repeated wrong passwords, and a per-IP gate on
// the registration invitation code.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// chatauth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types ([Status], [Registration], [PasswordReset], [SweepReport]).
// Session encodings live in package session, account persistence in package
// accounts, and limiter and code bookkeeping under internal/.
//
// # Sessions
//
// A session is the pair (user id, session token). The token is rotated on
// every password change, which invalidates every cookie issued before it.
// Cookies are encoded in one of three formats selected by
// SessionConfig.Encoding; see package session.
//
// # Client IP
//
// Limiters keyed by IP read the address from the request context. HTTP
// handlers attach it with [WithClientIP].
package chatauth
