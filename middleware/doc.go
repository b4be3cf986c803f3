// Package middleware exposes the session guard placed in front of the chat
// application's pages and assets.
//
// # Guard
//
// [Guard] lets whitelisted paths through, validates the session cookie on
// everything else through chatauth.Engine.Renew, re-issues the cookie with a
// fresh lifetime, and injects the account into the request context.
// Unauthenticated page requests receive the signup page with status 401;
// other requests receive a JSON 401.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to the
// Engine.
package middleware
