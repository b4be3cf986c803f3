package chatauth

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventAccountLocked      = "account_locked"
	auditEventLogout             = "logout"
	auditEventSessionsRevoked    = "sessions_revoked"
	auditEventCodeRequest        = "verification_code_request"
	auditEventCodeConsume        = "verification_code_consume"
	auditEventInvitationRejected = "invitation_rejected"
	auditEventInvitationBlocked  = "invitation_blocked"
	auditEventAccountCreated     = "account_created"
	auditEventPasswordReset      = "password_reset"
)

// AuditErrorCode is the stable error label attached to failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrAccountLocked      AuditErrorCode = "account_locked"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrNotRegistered      AuditErrorCode = "not_registered"
	auditErrInvitation         AuditErrorCode = "invitation_rejected"
	auditErrCodeInvalid        AuditErrorCode = "code_invalid"
	auditErrCodeExpired        AuditErrorCode = "code_expired"
	auditErrCodeExhausted      AuditErrorCode = "code_exhausted"
	auditErrDelivery           AuditErrorCode = "delivery_failed"
	auditErrStoreFailure       AuditErrorCode = "store_failure"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	purpose string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Purpose:   purpose,
		Success:   success,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUsernameTooWide):
		return auditErrInvalidInput
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrCodeTooFrequent):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrEmailRegistered):
		return auditErrDuplicate
	case errors.Is(err, ErrEmailNotRegistered):
		return auditErrNotRegistered
	case errors.Is(err, ErrInvitationInvalid), errors.Is(err, ErrInvitationBlocked):
		return auditErrInvitation
	case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrCodeMismatch):
		return auditErrCodeInvalid
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeExhausted):
		return auditErrCodeExhausted
	case errors.Is(err, ErrCodeDeliveryFailed):
		return auditErrDelivery
	case errors.Is(err, ErrStoreFailure):
		return auditErrStoreFailure
	default:
		return auditErrInternal
	}
}
