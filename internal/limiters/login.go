package limiters

import (
	"time"

	"github.com/MrEthical07/chatauth/internal/rate"
)

// LoginRateConfig configures [LoginRateLimiter].
type LoginRateConfig struct {
	Window      time.Duration
	MaxAttempts int
	// RetentionFactor scales Window to get the age past which Sweep drops
	// attempts. Values below 1 are treated as 1.
	RetentionFactor float64
}

// LoginRateLimiter caps login requests per client IP in a sliding window.
// It limits requests, not failures.
type LoginRateLimiter struct {
	log    *rate.SlidingLog
	config LoginRateConfig
}

// NewLoginRateLimiter creates a limiter for the given config.
func NewLoginRateLimiter(cfg LoginRateConfig) *LoginRateLimiter {
	if cfg.RetentionFactor < 1 {
		cfg.RetentionFactor = 1
	}
	return &LoginRateLimiter{
		log:    rate.NewSlidingLog(cfg.Window, cfg.MaxAttempts),
		config: cfg,
	}
}

// Allow records a login attempt from ip. When the IP is over budget it
// returns false and the whole seconds the caller should wait.
func (l *LoginRateLimiter) Allow(ip string, now time.Time) (int, bool) {
	if l == nil {
		return 0, true
	}
	wait, ok := l.log.Allow(ip, now)
	if ok {
		return 0, true
	}
	return RetryAfterSeconds(wait), false
}

// Sweep drops attempts older than the retention horizon.
func (l *LoginRateLimiter) Sweep(now time.Time) int {
	if l == nil {
		return 0
	}
	maxAge := time.Duration(float64(l.config.Window) * l.config.RetentionFactor)
	return l.log.Sweep(now, maxAge)
}

// Tracked returns how many IPs currently have attempts recorded.
func (l *LoginRateLimiter) Tracked() int {
	if l == nil {
		return 0
	}
	return l.log.Len()
}

// RetryAfterSeconds rounds wait up to whole seconds, never below 1.
func RetryAfterSeconds(wait time.Duration) int {
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
