// Package internal contains helper utilities that are intentionally private to
// chatauth, chiefly secure random generation for codes, ids and tokens.
//
// # Sub-packages
//
//   - limiters: login rate limiter, account lockout, invitation gate
//   - logging: slog setup with trace correlation
//   - rate: sliding-log and auto-reset window primitives
//   - stores: in-memory verification-code registry
//
// # What this package must NOT do
//
//   - Export types that appear in the public chatauth API.
//   - Be imported by any package outside the chatauth module.
package internal
