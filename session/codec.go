package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Supported encodings.
const (
	EncodingSignedJSON = "signed-json"
	EncodingJWT        = "jwt"
	EncodingLegacy     = "legacy"
)

// Cookie names shared with earlier deployments.
const (
	CookieSession       = "session_id"
	CookieAccessGranted = "access_granted"
	CookieUserID        = "user_id"
)

var ErrUnsupportedEncoding = errors.New("unsupported session encoding")

// Codec writes a Session into cookies and reads it back.
type Codec interface {
	Name() string
	// Encode returns the cookies that carry s, expiring MaxAge after now.
	Encode(s Session, now time.Time) ([]*http.Cookie, error)
	// Decode extracts a Session from r. It fails closed on any missing,
	// unsigned or malformed cookie.
	Decode(r *http.Request, now time.Time) (Session, bool)
	// Clear returns cookies that remove every cookie Encode sets.
	Clear() []*http.Cookie
	// CarriesToken reports whether decoded sessions include a token.
	CarriesToken() bool
	MaxAge() time.Duration
}

// Options holds attributes shared by every codec.
type Options struct {
	Secret []byte
	MaxAge time.Duration
	Secure bool
	Path   string
}

func (o Options) cookie(name, value string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     o.path(),
		MaxAge:   int(o.MaxAge / time.Second),
		Expires:  now.Add(o.MaxAge).UTC(),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o Options) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     o.path(),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o Options) path() string {
	if o.Path == "" {
		return "/"
	}
	return o.Path
}

func readCookie(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", false
	}
	return v, true
}

// NewCodec builds the codec registered under encoding. The jwt encoding
// signs with HS256 keyed by opts.Secret.
func NewCodec(encoding string, opts Options) (Codec, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	switch encoding {
	case EncodingSignedJSON, "":
		return NewSignedJSONCodec(opts), nil
	case EncodingLegacy:
		return NewLegacyCodec(opts), nil
	case EncodingJWT:
		return NewJWTCodec(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}
