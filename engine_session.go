package chatauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/chatauth/accounts"
	"github.com/MrEthical07/chatauth/session"
)

// Validate resolves the session carried by r. It fails closed: a missing
// or forged cookie, a missing field, an unknown user id or a stale token
// all return ErrUnauthenticated.
//
// Codecs that carry no token (legacy) resolve the account by id alone.
func (e *Engine) Validate(r *http.Request) (Account, error) {
	if err := e.ready(); err != nil {
		return Account{}, err
	}
	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	s, ok := e.codec.Decode(r, e.now())
	if !ok {
		e.metricInc(MetricSessionRejected)
		return Account{}, ErrUnauthenticated
	}

	var (
		a     accounts.Account
		found bool
	)
	if e.codec.CarriesToken() {
		a, found = e.accounts.FindBySessionPair(s.UserID, s.Token)
	} else {
		a, found = e.accounts.FindByUserID(s.UserID)
	}
	if !found {
		e.metricInc(MetricSessionRejected)
		return Account{}, ErrUnauthenticated
	}

	e.metricInc(MetricSessionValidated)
	return a, nil
}

// Issue returns the cookies for a fresh session of a, expiring one session
// lifetime from now.
func (e *Engine) Issue(a Account) ([]*http.Cookie, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.codec.Encode(session.Session{UserID: a.UserID, Token: a.SessionToken}, e.now())
}

// Renew validates r and, on success, returns replacement cookies with a
// fresh lifetime. This is the sliding renewal applied on protected paths.
func (e *Engine) Renew(r *http.Request) (Account, []*http.Cookie, error) {
	a, err := e.Validate(r)
	if err != nil {
		return Account{}, nil, err
	}
	cookies, err := e.Issue(a)
	if err != nil {
		return Account{}, nil, err
	}
	e.metricInc(MetricSessionRenewed)
	return a, cookies, nil
}

// ClearCookies returns cookies that delete the session on the client.
func (e *Engine) ClearCookies() []*http.Cookie {
	if e == nil || e.codec == nil {
		return nil
	}
	return e.codec.Clear()
}

// RevokeAll rotates the session token of userID, invalidating every cookie
// issued before. A store failure is returned after the rotation has been
// applied in memory.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (Account, error) {
	if err := e.ready(); err != nil {
		return Account{}, err
	}
	a, err := e.accounts.RotateSessionToken(ctx, userID)
	if errors.Is(err, accounts.ErrNotFound) {
		return Account{}, ErrUserNotFound
	}
	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionsRevoked, err == nil, a.UserID, a.Email, err, "")
	if err != nil {
		e.logStoreFailure(ctx, "revoke_all", a.Email, err)
		return a, err
	}
	return a, nil
}

// Status reports whether r carries a valid session. It never renews.
func (e *Engine) Status(r *http.Request) Status {
	a, err := e.Validate(r)
	if err != nil {
		return Status{}
	}
	return Status{LoggedIn: true, Username: a.Username}
}

// Logout returns the clearing cookies and logs who, if anyone, was
// signed in. Logout never fails; no server-side state changes.
func (e *Engine) Logout(ctx context.Context, r *http.Request) []*http.Cookie {
	a, err := e.Validate(r)
	if err == nil {
		e.logger.InfoContext(ctx, "user logged out",
			"user_id", a.UserID,
			"username", a.Username,
			"ip", ClientIPFromContext(ctx),
		)
	} else {
		e.logger.InfoContext(ctx, "anonymous logout", "ip", ClientIPFromContext(ctx))
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, a.UserID, a.Email, nil, "")
	return e.ClearCookies()
}
