package limiters

import (
	"crypto/subtle"
	"time"

	"github.com/MrEthical07/chatauth/internal/rate"
)

// InvitationConfig configures [InvitationGate].
type InvitationConfig struct {
	Code        string
	Window      time.Duration
	MaxFailures int
}

// GateResult reports the outcome of an invitation-code submission.
type GateResult struct {
	Blocked  bool
	Accepted bool
	Failures int
	// JustBlocked is set on the wrong submission that reached the limit.
	JustBlocked bool
}

// InvitationGate checks the shared invitation code and counts wrong
// submissions per client IP.
type InvitationGate struct {
	code   []byte
	window *rate.ResetWindow
}

// NewInvitationGate creates a gate for cfg.Code.
func NewInvitationGate(cfg InvitationConfig) *InvitationGate {
	return &InvitationGate{
		code:   []byte(cfg.Code),
		window: rate.NewResetWindow(cfg.Window, cfg.MaxFailures),
	}
}

// Check evaluates submitted for ip. A blocked IP is rejected without
// comparing the code; a correct code deletes the IP's record.
func (g *InvitationGate) Check(ip, submitted string, now time.Time) GateResult {
	if g == nil {
		return GateResult{Accepted: true}
	}
	out := g.window.Attempt(ip, now, func() bool {
		return len(g.code) > 0 && subtle.ConstantTimeCompare([]byte(submitted), g.code) == 1
	})
	return GateResult{
		Blocked:     out.Blocked,
		Accepted:    out.Passed,
		Failures:    out.Count,
		JustBlocked: out.Tripped,
	}
}

// Sweep removes records whose window has elapsed.
func (g *InvitationGate) Sweep(now time.Time) int {
	if g == nil {
		return 0
	}
	return g.window.Sweep(now)
}
