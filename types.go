package chatauth

import "github.com/MrEthical07/chatauth/accounts"

// CodePurpose selects the precondition a verification-code request checks.
type CodePurpose uint8

const (
	// PurposeRegistration requires the email to be unregistered.
	PurposeRegistration CodePurpose = iota
	// PurposePasswordReset requires the email to be registered.
	PurposePasswordReset
)

func (p CodePurpose) String() string {
	switch p {
	case PurposeRegistration:
		return "registration"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

// Status is the login state reported to clients.
type Status struct {
	LoggedIn bool   `json:"loggedIn"`
	Username string `json:"username,omitempty"`
}

// Registration is the input of [Engine.Register].
type Registration struct {
	Username string
	Email    string
	Password string
	Code     string
}

// PasswordReset is the input of [Engine.ResetPassword].
type PasswordReset struct {
	Email       string
	NewPassword string
	Code        string
}

// SweepReport counts what one sweeper pass removed.
type SweepReport struct {
	Codes          int
	LoginIPs       int
	LockedAccounts int
	InvitationIPs  int
}

// Total returns the sum of every removal.
func (r SweepReport) Total() int {
	return r.Codes + r.LoginIPs + r.LockedAccounts + r.InvitationIPs
}

// Account re-exports the persisted identity record.
type Account = accounts.Account
