package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

const signedPrefix = "s:"

// Signer produces and checks values in the cookie-parser signed format:
//
//	s:<value>.<base64(HMAC-SHA256(secret, value)) without padding>
type Signer struct {
	secret []byte
}

// NewSigner returns a signer keyed by secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: append([]byte(nil), secret...)}
}

// Sign returns the signed form of value.
func (s *Signer) Sign(value string) string {
	return signedPrefix + value + "." + s.mac(value)
}

// Unsign returns the original value when signed carries a valid signature.
func (s *Signer) Unsign(signed string) (string, bool) {
	if !strings.HasPrefix(signed, signedPrefix) {
		return "", false
	}
	body := signed[len(signedPrefix):]
	dot := strings.LastIndexByte(body, '.')
	if dot < 0 {
		return "", false
	}
	value, sig := body[:dot], body[dot+1:]
	if subtle.ConstantTimeCompare([]byte(sig), []byte(s.mac(value))) != 1 {
		return "", false
	}
	return value, true
}

func (s *Signer) mac(value string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(h.Sum(nil))
}
