package chatauth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/chatauth/accounts"
)

var (
	// ErrInvalidInput is returned for missing or malformed request fields,
	// before any state is touched.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUsernameTooWide is returned when a username exceeds the display
	// width budget.
	ErrUsernameTooWide = errors.New("username too wide")
	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUserNotFound is returned for an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the caller's IP exhausted its
	// login window. The concrete error is a *RateLimitError.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAccountLocked is returned while an account is locked after
	// repeated failed passwords.
	ErrAccountLocked = errors.New("account locked")

	ErrEmailRegistered    = errors.New("email already registered")
	ErrEmailNotRegistered = errors.New("email not registered")
	ErrInvitationInvalid  = errors.New("invitation code invalid")
	ErrInvitationBlocked  = errors.New("invitation attempts blocked")

	ErrCodeTooFrequent    = errors.New("verification code requested too frequently")
	ErrCodeDeliveryFailed = errors.New("verification code delivery failed")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCodeExpired        = errors.New("verification code expired")
	// ErrCodeMismatch is returned for a wrong code. The concrete error is a
	// *CodeMismatchError.
	ErrCodeMismatch  = errors.New("verification code mismatch")
	ErrCodeExhausted = errors.New("verification attempts exhausted")

	// ErrStoreFailure is returned when persisting the account list failed.
	// The in-memory change has already been applied.
	ErrStoreFailure = accounts.ErrStoreFailure

	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitError carries the seconds until the oldest counted attempt
// leaves the window.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("login rate limited: retry after %ds", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrLoginRateLimited }

// CodeMismatchError carries how many submissions remain before the code is
// discarded.
type CodeMismatchError struct {
	AttemptsRemaining int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("verification code mismatch: %d attempts remaining", e.AttemptsRemaining)
}

func (e *CodeMismatchError) Unwrap() error { return ErrCodeMismatch }
