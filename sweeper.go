package chatauth

import (
	"context"
	"time"
)

// Sweep removes expired verification codes and, when
// SweeperConfig.PruneLimiters is set, stale limiter records. Expiry is
// enforced on every read, so sweeping only bounds memory.
func (e *Engine) Sweep(now time.Time) SweepReport {
	if e.ready() != nil {
		return SweepReport{}
	}
	report := SweepReport{Codes: e.codes.Sweep(now)}
	if e.config.Sweeper.PruneLimiters {
		report.LoginIPs = e.loginRate.Sweep(now)
		report.LockedAccounts = e.lockout.Sweep(now)
		report.InvitationIPs = e.invitation.Sweep(now)
	}
	if n := report.Total(); n > 0 && e.metrics != nil {
		e.metrics.Add(MetricSweepRemoved, uint64(n))
	}
	return report
}

// StartSweeper runs [Engine.Sweep] every SweeperConfig.Interval until ctx is
// done. The returned channel is closed once the goroutine has exited.
func (e *Engine) StartSweeper(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	interval := e.config.Sweeper.Interval
	if interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report := e.Sweep(e.now())
				if report.Total() > 0 {
					e.logger.DebugContext(ctx, "sweep removed expired records",
						"codes", report.Codes,
						"login_ips", report.LoginIPs,
						"locked_accounts", report.LockedAccounts,
						"invitation_ips", report.InvitationIPs,
					)
				}
			}
		}
	}()
	return done
}
