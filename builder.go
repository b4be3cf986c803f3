package chatauth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/chatauth/accounts"
	"github.com/MrEthical07/chatauth/internal/limiters"
	"github.com/MrEthical07/chatauth/internal/stores"
	"github.com/MrEthical07/chatauth/password"
	"github.com/MrEthical07/chatauth/session"
)

// Builder assembles an [Engine]. A Builder can be built once.
type Builder struct {
	config Config

	accounts  *accounts.Store
	sender    CodeSender
	verifier  password.CredentialVerifier
	auditSink AuditSink
	logger    *slog.Logger
	clock     func() time.Time
	codeGen   func() (string, error)

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccounts sets the account store. Without it the Engine uses an empty
// in-memory store.
func (b *Builder) WithAccounts(store *accounts.Store) *Builder {
	b.accounts = store
	return b
}

// WithSender sets the code delivery channel. Without it codes are logged.
func (b *Builder) WithSender(sender CodeSender) *Builder {
	b.sender = sender
	return b
}

// WithVerifier sets the credential verifier. Without it passwords are
// compared as plaintext.
func (b *Builder) WithVerifier(v password.CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets where audit events go. Events flow only when
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Nil means slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for every window and expiry decision.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithCodeGenerator replaces the six-digit code generator.
func (b *Builder) WithCodeGenerator(gen func() (string, error)) *Builder {
	b.codeGen = gen
	return b
}

// WithMetricsEnabled toggles the counters without touching the rest of the
// configuration.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := session.NewCodec(cfg.Session.Encoding, session.Options{
		Secret: cfg.Security.CookieSecret,
		MaxAge: cfg.sessionMaxAge(),
		Secure: cfg.Security.ProductionMode,
		Path:   cfg.Session.CookiePath,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	store := b.accounts
	if store == nil {
		store = accounts.NewMemoryStore()
	}
	sender := b.sender
	if sender == nil {
		sender = LogSender{Logger: logger}
	}
	verifier := b.verifier
	if verifier == nil {
		verifier = password.Plaintext{}
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	codes := stores.NewCodeRegistry(stores.VerificationConfig{
		TTL:         cfg.Verification.TTL,
		Cooldown:    cfg.Verification.Cooldown,
		MaxAttempts: cfg.Verification.MaxAttempts,
	})
	if b.codeGen != nil {
		codes.WithGenerator(b.codeGen)
	}

	e := &Engine{
		config:   cfg,
		accounts: store,
		codec:    codec,
		verifier: verifier,
		sender:   sender,
		codes:    codes,
		invitation: limiters.NewInvitationGate(limiters.InvitationConfig{
			Code:        cfg.Invitation.Code,
			Window:      cfg.Invitation.Window,
			MaxFailures: cfg.Invitation.MaxFailures,
		}),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink, clock),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		clock:   clock,
	}
	if cfg.LoginRate.Enabled {
		e.loginRate = limiters.NewLoginRateLimiter(limiters.LoginRateConfig{
			Window:          cfg.LoginRate.Window,
			MaxAttempts:     cfg.LoginRate.MaxAttempts,
			RetentionFactor: cfg.LoginRate.RetentionFactor,
		})
	}
	if cfg.Lockout.Enabled {
		e.lockout = limiters.NewAccountLockout(limiters.LockoutConfig{
			Window:    cfg.Lockout.Window,
			Threshold: cfg.Lockout.Threshold,
		})
	}

	b.built = true
	return e, nil
}
