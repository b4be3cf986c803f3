package session

import (
	"net/http"
	"time"
)

// LegacyCodec writes two signed flat cookies: [CookieAccessGranted] set to
// "true" and [CookieUserID] holding the bare id.
//
// No token is carried, so rotation does not revoke legacy sessions.
type LegacyCodec struct {
	opts   Options
	signer *Signer
}

// NewLegacyCodec signs both cookies with opts.Secret.
func NewLegacyCodec(opts Options) *LegacyCodec {
	return &LegacyCodec{opts: opts, signer: NewSigner(opts.Secret)}
}

// Name returns [EncodingLegacy].
func (c *LegacyCodec) Name() string { return EncodingLegacy }

// CarriesToken is false; callers match on user id alone.
func (c *LegacyCodec) CarriesToken() bool { return false }

// MaxAge is the lifetime of both cookies.
func (c *LegacyCodec) MaxAge() time.Duration { return c.opts.MaxAge }

// Encode writes the granted flag and the user id. s.Token is ignored.
func (c *LegacyCodec) Encode(s Session, now time.Time) ([]*http.Cookie, error) {
	return []*http.Cookie{
		c.opts.cookie(CookieAccessGranted, c.signer.Sign("true"), now),
		c.opts.cookie(CookieUserID, c.signer.Sign(s.UserID), now),
	}, nil
}

// Decode needs both cookies with valid signatures and a granted flag of
// "true". The returned session has no token.
func (c *LegacyCodec) Decode(r *http.Request, _ time.Time) (Session, bool) {
	granted, ok := c.unsigned(r, CookieAccessGranted)
	if !ok || granted != "true" {
		return Session{}, false
	}
	id, ok := c.unsigned(r, CookieUserID)
	if !ok || id == "" {
		return Session{}, false
	}
	return Session{UserID: id}, true
}

// Clear expires both cookies.
func (c *LegacyCodec) Clear() []*http.Cookie {
	return []*http.Cookie{
		c.opts.expired(CookieAccessGranted),
		c.opts.expired(CookieUserID),
	}
}

func (c *LegacyCodec) unsigned(r *http.Request, name string) (string, bool) {
	signed, ok := readCookie(r, name)
	if !ok {
		return "", false
	}
	return c.signer.Unsign(signed)
}
