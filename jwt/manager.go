package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a [Manager]. Tokens are HS256-signed with Secret.
type Config struct {
	TTL    time.Duration
	Secret []byte
	// Issuer, when set, is written to and required on every token.
	Issuer string
	Leeway time.Duration
	// MaxFutureIAT bounds clock skew on issued-at. Zero means 10 minutes.
	MaxFutureIAT time.Duration
}

// Manager issues and parses session tokens.
type Manager struct {
	config Config
}

// SessionClaims carries the session pair.
type SessionClaims struct {
	UID string `json:"uid"`
	STK string `json:"stk"`
	jwt.RegisteredClaims
}

var (
	errMissingPair = errors.New("token is missing the session pair")
	errFutureIAT   = errors.New("token iat too far in the future")
)

// NewManager validates cfg and returns a manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a secret")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)
	return &Manager{config: cfg}, nil
}

// TTL returns the configured token lifetime.
func (j *Manager) TTL() time.Duration {
	return j.config.TTL
}

// Create signs a token for the pair (uid, stk) issued at now.
func (j *Manager) Create(uid, stk string, now time.Time) (string, error) {
	claims := SessionClaims{
		UID: uid,
		STK: stk,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.config.Secret)
}

// Parse verifies tokenStr as of now. Expiry and issued-at are mandatory.
func (j *Manager) Parse(tokenStr string, now time.Time) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return j.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UID == "" || claims.STK == "" {
		return nil, errMissingPair
	}
	if claims.IssuedAt.Time.After(now.Add(j.config.MaxFutureIAT)) {
		return nil, errFutureIAT
	}
	return claims, nil
}
