package accounts

import (
	"strings"
	"unicode/utf16"
)

// MaxUsernameWidth is the display-width budget for usernames.
const MaxUsernameWidth = 12

// Account is a persisted user identity.
//
// Password is stored exactly as submitted; see password.CredentialVerifier
// for how it is compared.
type Account struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	UserID       string `json:"userId"`
	SessionToken string `json:"sessionToken"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayWidth counts ASCII characters as 1 and every other UTF-16 code
// unit as 2, so astral characters weigh 4.
func DisplayWidth(s string) int {
	width := 0
	for _, r := range s {
		if r <= 127 {
			width++
			continue
		}
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		width += 2 * n
	}
	return width
}

// UsernameFits reports whether name is within [MaxUsernameWidth].
func UsernameFits(name string) bool {
	return DisplayWidth(name) <= MaxUsernameWidth
}
