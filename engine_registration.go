package chatauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/chatauth/accounts"
	"github.com/MrEthical07/chatauth/internal/stores"
)

// RequestRegistrationCode checks the invitation code for the caller's IP
// and then issues a code for an unregistered email.
//
// Ten wrong invitation codes from one IP within the window block that IP,
// even for the correct code, until the window resets.
func (e *Engine) RequestRegistrationCode(ctx context.Context, email, invitationCode string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = accounts.NormalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	ip := ClientIPFromContext(ctx)
	gate := e.invitation.Check(ip, invitationCode, e.now())
	switch {
	case gate.Blocked:
		e.metricInc(MetricInvitationBlocked)
		e.emitAudit(ctx, auditEventInvitationRejected, false, "", email, ErrInvitationBlocked, PurposeRegistration.String())
		return ErrInvitationBlocked
	case !gate.Accepted:
		e.metricInc(MetricInvitationRejected)
		if gate.JustBlocked {
			e.logger.WarnContext(ctx, "ip blocked after repeated wrong invitation codes",
				"ip", ip,
				"failures", gate.Failures,
			)
			e.emitAudit(ctx, auditEventInvitationBlocked, false, "", email, ErrInvitationBlocked, PurposeRegistration.String())
		}
		e.emitAudit(ctx, auditEventInvitationRejected, false, "", email, ErrInvitationInvalid, PurposeRegistration.String())
		return ErrInvitationInvalid
	}

	return e.RequestCode(ctx, email, PurposeRegistration)
}

// RequestCode issues and delivers a verification code for email.
//
// Registration requires an unregistered email, password reset a registered
// one. A request inside the resend cooldown is rejected; after it the new
// code replaces any unconsumed one. If delivery fails the issued code is
// kept, so the cooldown still applies.
func (e *Engine) RequestCode(ctx context.Context, email string, purpose CodePurpose) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = accounts.NormalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	exists := e.accounts.Exists(email)
	switch {
	case purpose == PurposeRegistration && exists:
		e.emitCodeRequest(ctx, email, purpose, ErrEmailRegistered)
		return ErrEmailRegistered
	case purpose == PurposePasswordReset && !exists:
		e.emitCodeRequest(ctx, email, purpose, ErrEmailNotRegistered)
		return ErrEmailNotRegistered
	}

	code, err := e.codes.Issue(email, e.now())
	if err != nil {
		if errors.Is(err, stores.ErrCodeTooFrequent) {
			e.metricInc(MetricCodeTooFrequent)
			e.emitCodeRequest(ctx, email, purpose, ErrCodeTooFrequent)
			return ErrCodeTooFrequent
		}
		e.logger.ErrorContext(ctx, "verification code generation failed", "email", email, "error", err)
		return fmt.Errorf("%w: %w", ErrCodeDeliveryFailed, err)
	}

	if err := e.sender.Send(ctx, email, code); err != nil {
		e.metricInc(MetricCodeDeliveryFailed)
		e.logger.ErrorContext(ctx, "verification code delivery failed",
			"email", email,
			"purpose", purpose.String(),
			"error", err,
		)
		e.emitCodeRequest(ctx, email, purpose, ErrCodeDeliveryFailed)
		return ErrCodeDeliveryFailed
	}

	e.metricInc(MetricCodeIssued)
	e.logger.InfoContext(ctx, "verification code sent", "email", email, "purpose", purpose.String())
	e.emitCodeRequest(ctx, email, purpose, nil)
	return nil
}

// ConsumeCode checks submitted against the live code for email. A correct
// code is single-use. An expired code, or the mismatch that exhausts the
// attempts, deletes the record.
//
// Errors: ErrCodeNotFound, ErrCodeExpired, *CodeMismatchError
// (ErrCodeMismatch), ErrCodeExhausted.
func (e *Engine) ConsumeCode(ctx context.Context, email, submitted string) error {
	return e.consumeCode(ctx, email, submitted, "")
}

// consumeCode tags the audit event with the flow that spent the code.
func (e *Engine) consumeCode(ctx context.Context, email, submitted, purpose string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = accounts.NormalizeEmail(email)

	remaining, err := e.codes.Consume(email, submitted, e.now())
	mapped := mapCodeError(remaining, err)

	switch {
	case mapped == nil:
		e.metricInc(MetricCodeConsumed)
	case errors.Is(mapped, ErrCodeMismatch):
		e.metricInc(MetricCodeMismatch)
	case errors.Is(mapped, ErrCodeExpired):
		e.metricInc(MetricCodeExpired)
	case errors.Is(mapped, ErrCodeExhausted):
		e.metricInc(MetricCodeExhausted)
	}
	e.emitAudit(ctx, auditEventCodeConsume, mapped == nil, "", email, mapped, purpose)
	return mapped
}

// Register consumes the verification code and creates the account.
//
// The username width is checked before the code, so an over-wide name does
// not burn an attempt. A store failure is returned after the account has
// been added in memory.
func (e *Engine) Register(ctx context.Context, req Registration) (Account, error) {
	if err := e.ready(); err != nil {
		return Account{}, err
	}
	email := accounts.NormalizeEmail(req.Email)
	if req.Username == "" || email == "" || req.Password == "" || req.Code == "" {
		return Account{}, ErrInvalidInput
	}
	if !accounts.UsernameFits(req.Username) {
		return Account{}, ErrUsernameTooWide
	}

	if err := e.consumeCode(ctx, email, req.Code, PurposeRegistration.String()); err != nil {
		return Account{}, err
	}

	stored, err := e.verifier.Prepare(req.Password)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	a, err := e.accounts.Create(ctx, req.Username, email, stored)
	switch {
	case errors.Is(err, accounts.ErrEmailTaken):
		return Account{}, ErrEmailRegistered
	case errors.Is(err, accounts.ErrStoreFailure):
		e.logStoreFailure(ctx, "register", email, err)
		e.emitAudit(ctx, auditEventAccountCreated, false, a.UserID, email, err, PurposeRegistration.String())
		return a, err
	case err != nil:
		return Account{}, err
	}

	e.metricInc(MetricAccountCreated)
	e.logger.InfoContext(ctx, "account created", "email", email, "user_id", a.UserID)
	e.emitAudit(ctx, auditEventAccountCreated, true, a.UserID, email, nil, PurposeRegistration.String())
	return a, nil
}

func (e *Engine) emitCodeRequest(ctx context.Context, email string, purpose CodePurpose, err error) {
	e.emitAudit(ctx, auditEventCodeRequest, err == nil, "", email, err, purpose.String())
}

func mapCodeError(remaining int, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stores.ErrCodeNotFound):
		return ErrCodeNotFound
	case errors.Is(err, stores.ErrCodeExpired):
		return ErrCodeExpired
	case errors.Is(err, stores.ErrCodeMismatch):
		return &CodeMismatchError{AttemptsRemaining: remaining}
	case errors.Is(err, stores.ErrCodeAttemptsExceeded):
		return ErrCodeExhausted
	default:
		return err
	}
}
