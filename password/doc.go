// Package password compares submitted passwords with stored credentials.
//
// Two [CredentialVerifier] implementations are provided. [Plaintext] keeps the
// submitted value as-is and compares in constant time. [Argon2Verifier]
// stores PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns preparation and comparison only. Account lookup, lockout
// and rate limiting are enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve accounts.
//   - Import any other chatauth package.
//   - Log submitted or stored credentials.
package password
