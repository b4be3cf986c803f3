package chatauth

import (
	"context"
	"net/http"

	"github.com/MrEthical07/chatauth/accounts"
)

// Login checks email and password and returns session cookies.
//
// The checks run in a fixed order: the caller IP's sliding window (every
// request counts, malformed ones included), input, account lookup, account
// lockout, and only then the password comparison. A locked account is
// rejected even with the correct password.
//
// Errors: ErrInvalidInput, *RateLimitError (ErrLoginRateLimited),
// ErrUserNotFound, ErrAccountLocked, ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (Account, []*http.Cookie, error) {
	if err := e.ready(); err != nil {
		return Account{}, nil, err
	}
	email = accounts.NormalizeEmail(email)
	now := e.now()
	ip := ClientIPFromContext(ctx)

	if retryAfter, ok := e.loginRate.Allow(ip, now); !ok {
		err := &RateLimitError{RetryAfter: retryAfter}
		e.metricInc(MetricLoginRateLimited)
		e.logger.WarnContext(ctx, "login rate limited", "ip", ip, "retry_after", retryAfter)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, err, "")
		return Account{}, nil, err
	}

	if email == "" || password == "" {
		return Account{}, nil, ErrInvalidInput
	}

	a, ok := e.accounts.FindByEmail(email)
	if !ok {
		e.metricInc(MetricLoginUnknownUser)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrUserNotFound, "")
		return Account{}, nil, ErrUserNotFound
	}

	var verifyErr error
	res := e.lockout.Guard(email, now, func() bool {
		ok, err := e.verifier.Verify(password, a.Password)
		if err != nil {
			verifyErr = err
			return false
		}
		return ok
	})
	if verifyErr != nil {
		e.logger.ErrorContext(ctx, "credential verification failed", "email", email, "error", verifyErr)
	}

	switch {
	case res.Locked:
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginFailure, false, a.UserID, email, ErrAccountLocked, "")
		return Account{}, nil, ErrAccountLocked
	case !res.Verified:
		e.metricInc(MetricLoginFailure)
		if res.JustLocked {
			e.metricInc(MetricAccountLocked)
			e.logger.WarnContext(ctx, "account locked after repeated failed logins",
				"email", email,
				"failures", res.Failures,
				"ip", ip,
			)
			e.emitAudit(ctx, auditEventAccountLocked, false, a.UserID, email, ErrAccountLocked, "")
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, a.UserID, email, ErrInvalidCredentials, "")
		return Account{}, nil, ErrInvalidCredentials
	}

	cookies, err := e.Issue(a)
	if err != nil {
		return Account{}, nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.logger.InfoContext(ctx, "user logged in", "email", email, "ip", ip)
	e.emitAudit(ctx, auditEventLoginSuccess, true, a.UserID, email, nil, "")
	return a, cookies, nil
}
