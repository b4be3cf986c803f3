package chatauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/chatauth/accounts"
)

// RequestPasswordResetCode issues a code for a registered email.
func (e *Engine) RequestPasswordResetCode(ctx context.Context, email string) error {
	return e.RequestCode(ctx, email, PurposePasswordReset)
}

// ResetPassword consumes the verification code, replaces the password and
// rotates the session token, which signs out every existing session. The
// account's lockout record is cleared.
//
// A store failure is returned after the change has been applied in memory;
// the lockout is cleared in that case too.
func (e *Engine) ResetPassword(ctx context.Context, req PasswordReset) (Account, error) {
	if err := e.ready(); err != nil {
		return Account{}, err
	}
	email := accounts.NormalizeEmail(req.Email)
	if email == "" || req.NewPassword == "" || req.Code == "" {
		return Account{}, ErrInvalidInput
	}
	if !e.accounts.Exists(email) {
		return Account{}, ErrUserNotFound
	}

	if err := e.consumeCode(ctx, email, req.Code, PurposePasswordReset.String()); err != nil {
		return Account{}, err
	}

	stored, err := e.verifier.Prepare(req.NewPassword)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	a, err := e.accounts.MutatePassword(ctx, email, stored)
	if errors.Is(err, accounts.ErrNotFound) {
		return Account{}, ErrUserNotFound
	}
	e.lockout.Clear(email)

	if err != nil {
		e.logStoreFailure(ctx, "reset_password", email, err)
		e.emitAudit(ctx, auditEventPasswordReset, false, a.UserID, email, err, PurposePasswordReset.String())
		return a, err
	}

	e.metricInc(MetricPasswordReset)
	e.metricInc(MetricSessionRevoked)
	e.logger.InfoContext(ctx, "password reset", "email", email, "user_id", a.UserID)
	e.emitAudit(ctx, auditEventPasswordReset, true, a.UserID, email, nil, PurposePasswordReset.String())
	return a, nil
}
