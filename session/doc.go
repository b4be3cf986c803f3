// Package session encodes the (user id, session token) pair into signed
// cookies and decodes it back.
//
// # Encodings
//
//   - signed-json: one cookie-parser style "s:j:{json}.<sig>" cookie.
//   - jwt: one HS256 token with an enforced exp claim.
//   - legacy: signed access_granted and user_id cookies, no token.
//
// All cookies are HttpOnly and SameSite=Lax; Secure is set by [Options].
//
// # Architecture boundaries
//
// This package only moves the pair in and out of HTTP cookies. Whether a
// decoded pair matches an account is decided by the Engine.
//
// # What this package must NOT do
//
//   - Import chatauth or accounts (no upward imports).
//   - Look up accounts or make authorization decisions.
//   - Store sessions server-side.
package session
