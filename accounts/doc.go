// Package accounts is the credential store: the in-memory account list plus
// the persister that writes it to durable storage after every mutation.
//
// # Persistence
//
// The whole list is serialized as one JSON array after each Append or
// password change, with the same field names the chat server has always
// used (username, email, password, userId, sessionToken). A missing store is
// an empty list. A failed write leaves the in-memory mutation in place and
// returns an error matching [ErrStoreFailure]; nothing is rolled back.
//
// # What this package must NOT do
//
//   - Import chatauth or any internal limiter/store package.
//   - Hash or otherwise transform stored passwords.
package accounts
