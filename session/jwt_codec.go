package session

import (
	"net/http"
	"time"

	"github.com/MrEthical07/chatauth/jwt"
)

// JWTCodec stores an HS256 token with uid, stk, iat and exp claims in
// [CookieSession]. exp is checked on every decode.
type JWTCodec struct {
	opts    Options
	manager *jwt.Manager
}

// NewJWTCodec fails when opts.Secret is empty or opts.MaxAge is not positive.
func NewJWTCodec(opts Options) (*JWTCodec, error) {
	m, err := jwt.NewManager(jwt.Config{
		TTL:    opts.MaxAge,
		Secret: opts.Secret,
	})
	if err != nil {
		return nil, err
	}
	return &JWTCodec{opts: opts, manager: m}, nil
}

// Name returns [EncodingJWT].
func (c *JWTCodec) Name() string { return EncodingJWT }

// CarriesToken is true: the stk claim holds the session token.
func (c *JWTCodec) CarriesToken() bool { return true }

// MaxAge is both the cookie lifetime and the token TTL.
func (c *JWTCodec) MaxAge() time.Duration { return c.opts.MaxAge }

// Encode signs a token issued at now.
func (c *JWTCodec) Encode(s Session, now time.Time) ([]*http.Cookie, error) {
	tok, err := c.manager.Create(s.UserID, s.Token, now)
	if err != nil {
		return nil, err
	}
	return []*http.Cookie{c.opts.cookie(CookieSession, tok, now)}, nil
}

// Decode rejects a bad signature, a non-HS256 header and an expired token.
func (c *JWTCodec) Decode(r *http.Request, now time.Time) (Session, bool) {
	tok, ok := readCookie(r, CookieSession)
	if !ok {
		return Session{}, false
	}
	claims, err := c.manager.Parse(tok, now)
	if err != nil {
		return Session{}, false
	}
	return Session{UserID: claims.UID, Token: claims.STK}, true
}

// Clear expires the session cookie.
func (c *JWTCodec) Clear() []*http.Cookie {
	return []*http.Cookie{c.opts.expired(CookieSession)}
}
