package session

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const jsonPrefix = "j:"

type jsonPayload struct {
	UserID       string `json:"userId"`
	SessionToken string `json:"sessionToken"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

// SignedJSONCodec stores the pair as a signed JSON cookie named
// [CookieSession], readable by cookie-parser deployments.
//
// ExpiresAt (Unix milliseconds) is enforced when present. Cookies written
// without it are bounded by the browser's max age only.
type SignedJSONCodec struct {
	opts   Options
	signer *Signer
}

// NewSignedJSONCodec signs with opts.Secret.
func NewSignedJSONCodec(opts Options) *SignedJSONCodec {
	return &SignedJSONCodec{opts: opts, signer: NewSigner(opts.Secret)}
}

// Name returns [EncodingSignedJSON].
func (c *SignedJSONCodec) Name() string { return EncodingSignedJSON }

// CarriesToken is true: the payload holds the session token.
func (c *SignedJSONCodec) CarriesToken() bool { return true }

// MaxAge is the cookie lifetime and the expiresAt offset.
func (c *SignedJSONCodec) MaxAge() time.Duration { return c.opts.MaxAge }

// Encode writes one cookie holding the pair and expiresAt = now + MaxAge.
func (c *SignedJSONCodec) Encode(s Session, now time.Time) ([]*http.Cookie, error) {
	raw, err := json.Marshal(jsonPayload{
		UserID:       s.UserID,
		SessionToken: s.Token,
		ExpiresAt:    now.Add(c.opts.MaxAge).UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	value := c.signer.Sign(jsonPrefix + string(raw))
	return []*http.Cookie{c.opts.cookie(CookieSession, value, now)}, nil
}

// Decode rejects a bad signature, a missing "j:" prefix, an incomplete pair
// and a payload whose expiresAt is before now.
func (c *SignedJSONCodec) Decode(r *http.Request, now time.Time) (Session, bool) {
	signed, ok := readCookie(r, CookieSession)
	if !ok {
		return Session{}, false
	}
	value, ok := c.signer.Unsign(signed)
	if !ok || !strings.HasPrefix(value, jsonPrefix) {
		return Session{}, false
	}

	var p jsonPayload
	if err := json.Unmarshal([]byte(value[len(jsonPrefix):]), &p); err != nil {
		return Session{}, false
	}
	if p.ExpiresAt != 0 && now.UnixMilli() > p.ExpiresAt {
		return Session{}, false
	}

	s := Session{UserID: p.UserID, Token: p.SessionToken}
	if !s.Complete() {
		return Session{}, false
	}
	return s, true
}

// Clear expires the session cookie.
func (c *SignedJSONCodec) Clear() []*http.Cookie {
	return []*http.Cookie{c.opts.expired(CookieSession)}
}
