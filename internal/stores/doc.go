// Package stores provides the in-memory, short-lived verification-code
// registry used by the registration and password-reset flows.
//
// # Design
//
// One live record per email, guarded by a single mutex. Every
// check-then-mutate sequence (cooldown check and replace, expiry check and
// delete, mismatch increment and delete) runs inside one critical section,
// and the periodic sweeper takes the same lock. Records are single-use:
// deleted on success, on expiry and on reaching the attempt limit. Code
// comparisons use constant-time compare.
//
// # Architecture boundaries
//
// This package owns bookkeeping for transient codes. It does NOT check
// whether an email is registered, deliver codes, or decide HTTP outcomes;
// those belong to the Engine.
//
// # What this package must NOT do
//
//   - Import chatauth or any sibling internal package except internal.
//   - Log or expose plaintext codes.
package stores
