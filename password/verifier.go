package password

import "crypto/subtle"

// CredentialVerifier turns a submitted password into its stored form and
// compares later submissions against that form.
type CredentialVerifier interface {
	Prepare(plain string) (string, error)
	Verify(plain, stored string) (bool, error)
}

// Plaintext stores passwords exactly as submitted and compares them in
// constant time.
type Plaintext struct{}

// Prepare returns plain unchanged.
func (Plaintext) Prepare(plain string) (string, error) {
	return plain, nil
}

// Verify reports whether plain equals stored byte for byte.
func (Plaintext) Verify(plain, stored string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1, nil
}
