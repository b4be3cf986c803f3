package chatauth

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/chatauth/accounts"
	"github.com/MrEthical07/chatauth/internal/limiters"
	"github.com/MrEthical07/chatauth/internal/stores"
	"github.com/MrEthical07/chatauth/password"
	"github.com/MrEthical07/chatauth/session"
)

// Engine owns the account store, the session codec and every abuse-control
// map. All methods are safe for concurrent use after [Builder.Build].
type Engine struct {
	config     Config
	accounts   *accounts.Store
	codec      session.Codec
	verifier   password.CredentialVerifier
	sender     CodeSender
	codes      *stores.CodeRegistry
	loginRate  *limiters.LoginRateLimiter
	lockout    *limiters.AccountLockout
	invitation *limiters.InvitationGate
	audit      *auditDispatcher
	metrics    *Metrics
	logger     *slog.Logger
	clock      func() time.Time
}

// Close flushes the audit dispatcher. It does not stop a sweeper started
// with [Engine.StartSweeper]; cancel its context instead.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Accounts returns the underlying account store.
func (e *Engine) Accounts() *accounts.Store {
	return e.accounts
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// AuditDropped reports how many audit events a full queue discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the counters and histograms. It is empty when
// metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

func (e *Engine) ready() error {
	if e == nil || e.accounts == nil || e.codec == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	return nil
}

// logStoreFailure records a persistence failure. The in-memory change that
// preceded it is kept.
func (e *Engine) logStoreFailure(ctx context.Context, op, email string, err error) {
	e.metricInc(MetricStoreFailure)
	e.logger.ErrorContext(ctx, "account store write failed",
		"op", op,
		"email", email,
		"error", err,
	)
}
