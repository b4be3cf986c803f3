package chatauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/chatauth/session"
)

// Config holds every tunable of the Engine. Start from [DefaultConfig] and
// override fields; [Builder.Build] validates the result.
type Config struct {
	Session      SessionConfig
	Security     SecurityConfig
	Verification VerificationConfig
	Lockout      LockoutConfig
	LoginRate    LoginRateConfig
	Invitation   InvitationConfig
	Sweeper      SweeperConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session cookie.
type SessionConfig struct {
	// Encoding is one of "signed-json" (default), "jwt" or "legacy".
	Encoding string
	// MaxAge is the sliding lifetime of a session cookie.
	MaxAge time.Duration
	// LegacyMaxAge replaces MaxAge when Encoding is "legacy".
	LegacyMaxAge time.Duration
	CookiePath   string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds secrets and deployment flags.
type SecurityConfig struct {
	CookieSecret []byte
	// ProductionMode marks cookies Secure.
	ProductionMode bool
}

/*
====================================
ABUSE CONTROL CONFIG
====================================
*/

// VerificationConfig controls email verification codes.
type VerificationConfig struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// LockoutConfig controls per-account lockout after failed passwords.
type LockoutConfig struct {
	Enabled   bool
	Window    time.Duration
	Threshold int
}

// LoginRateConfig controls the per-IP login sliding window.
type LoginRateConfig struct {
	Enabled     bool
	Window      time.Duration
	MaxAttempts int
	// RetentionFactor scales Window to decide when the sweeper drops an
	// IP's old timestamps.
	RetentionFactor float64
}

// InvitationConfig controls the invitation gate on registration.
type InvitationConfig struct {
	Code        string
	Window      time.Duration
	MaxFailures int
}

// SweeperConfig controls background garbage collection.
type SweeperConfig struct {
	Interval time.Duration
	// PruneLimiters additionally drops expired limiter records.
	PruneLimiters bool
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. CookieSecret and
// Invitation.Code are left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Encoding:     session.EncodingSignedJSON,
			MaxAge:       48 * time.Hour,
			LegacyMaxAge: 240 * time.Hour,
			CookiePath:   "/",
		},
		Verification: VerificationConfig{
			TTL:         10 * time.Minute,
			Cooldown:    60 * time.Second,
			MaxAttempts: 5,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Window:    time.Hour,
			Threshold: 10,
		},
		LoginRate: LoginRateConfig{
			Enabled:         true,
			Window:          180 * time.Second,
			MaxAttempts:     5,
			RetentionFactor: 1.5,
		},
		Invitation: InvitationConfig{
			Window:      time.Hour,
			MaxFailures: 10,
		},
		Sweeper: SweeperConfig{
			Interval:      time.Minute,
			PruneLimiters: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Security.CookieSecret = append([]byte(nil), cfg.Security.CookieSecret...)
	return out
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Session
	switch c.Session.Encoding {
	case session.EncodingSignedJSON, session.EncodingJWT, session.EncodingLegacy:
	default:
		return fmt.Errorf("%w: %q", session.ErrUnsupportedEncoding, c.Session.Encoding)
	}
	if c.Session.MaxAge <= 0 {
		return errors.New("Session MaxAge must be > 0")
	}
	if c.Session.Encoding == session.EncodingLegacy && c.Session.LegacyMaxAge <= 0 {
		return errors.New("Session LegacyMaxAge must be > 0 for legacy encoding")
	}

	// Security
	if len(c.Security.CookieSecret) == 0 {
		return errors.New("Security CookieSecret is required")
	}

	// Verification
	if c.Verification.TTL <= 0 {
		return errors.New("Verification TTL must be > 0")
	}
	if c.Verification.Cooldown < 0 {
		return errors.New("Verification Cooldown must be >= 0")
	}
	if c.Verification.MaxAttempts <= 0 {
		return errors.New("Verification MaxAttempts must be > 0")
	}

	// Lockout
	if c.Lockout.Enabled {
		if c.Lockout.Window <= 0 {
			return errors.New("Lockout Window must be > 0")
		}
		if c.Lockout.Threshold <= 0 {
			return errors.New("Lockout Threshold must be > 0")
		}
	}

	// Login rate
	if c.LoginRate.Enabled {
		if c.LoginRate.Window <= 0 {
			return errors.New("LoginRate Window must be > 0")
		}
		if c.LoginRate.MaxAttempts <= 0 {
			return errors.New("LoginRate MaxAttempts must be > 0")
		}
		if c.LoginRate.RetentionFactor < 1 {
			return errors.New("LoginRate RetentionFactor must be >= 1")
		}
	}

	// Invitation
	if strings.TrimSpace(c.Invitation.Code) == "" {
		return errors.New("Invitation Code is required")
	}
	if c.Invitation.Window <= 0 {
		return errors.New("Invitation Window must be > 0")
	}
	if c.Invitation.MaxFailures <= 0 {
		return errors.New("Invitation MaxFailures must be > 0")
	}

	// Sweeper
	if c.Sweeper.Interval <= 0 {
		return errors.New("Sweeper Interval must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

func (c *Config) sessionMaxAge() time.Duration {
	if c.Session.Encoding == session.EncodingLegacy {
		return c.Session.LegacyMaxAge
	}
	return c.Session.MaxAge
}
