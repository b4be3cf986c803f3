// Package jwt signs and verifies session tokens carrying a user id and its
// current session token. Verification time is supplied by the caller.
package jwt
