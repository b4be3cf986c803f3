package limiters

import (
	"time"

	"github.com/MrEthical07/chatauth/internal/rate"
)

// LockoutConfig configures [AccountLockout].
type LockoutConfig struct {
	Window    time.Duration
	Threshold int
}

// LockoutResult reports what happened to a guarded credential check.
type LockoutResult struct {
	Locked   bool
	Verified bool
	Failures int
	// JustLocked is set on the failure that reached the threshold.
	JustLocked bool
}

// AccountLockout tracks failed password attempts per account email.
type AccountLockout struct {
	window *rate.ResetWindow
}

// NewAccountLockout creates a lockout limiter.
func NewAccountLockout(cfg LockoutConfig) *AccountLockout {
	return &AccountLockout{window: rate.NewResetWindow(cfg.Window, cfg.Threshold)}
}

// Guard runs verify for email unless the account is locked. A locked
// account is rejected without running verify, so a correct password does
// not get through during lockout.
func (l *AccountLockout) Guard(email string, now time.Time, verify func() bool) LockoutResult {
	if l == nil {
		return LockoutResult{Verified: verify()}
	}
	out := l.window.Attempt(email, now, verify)
	return LockoutResult{
		Locked:     out.Blocked,
		Verified:   out.Passed,
		Failures:   out.Count,
		JustLocked: out.Tripped,
	}
}

// Locked reports whether email is currently locked.
func (l *AccountLockout) Locked(email string, now time.Time) bool {
	if l == nil {
		return false
	}
	return l.window.Blocked(email, now)
}

// Failures returns the failure count inside the current window.
func (l *AccountLockout) Failures(email string, now time.Time) int {
	if l == nil {
		return 0
	}
	return l.window.Count(email, now)
}

// Clear drops the record for email. Called after a password change.
func (l *AccountLockout) Clear(email string) {
	if l == nil {
		return
	}
	l.window.Reset(email)
}

// Sweep removes records whose window has elapsed.
func (l *AccountLockout) Sweep(now time.Time) int {
	if l == nil {
		return 0
	}
	return l.window.Sweep(now)
}
