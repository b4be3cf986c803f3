package stores

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/chatauth/internal"
)

var (
	ErrCodeNotFound         = errors.New("verification code not found")
	ErrCodeExpired          = errors.New("verification code expired")
	ErrCodeMismatch         = errors.New("verification code mismatch")
	ErrCodeAttemptsExceeded = errors.New("verification attempts exceeded")
	ErrCodeTooFrequent      = errors.New("verification code requested too frequently")
)

// VerificationConfig configures a [CodeRegistry].
type VerificationConfig struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

type codeRecord struct {
	code      string
	createdAt time.Time
	attempts  int
}

// CodeRegistry holds at most one live verification code per email.
type CodeRegistry struct {
	mu       sync.Mutex
	config   VerificationConfig
	records  map[string]*codeRecord
	generate func() (string, error)
}

// NewCodeRegistry creates a registry issuing six-digit codes.
func NewCodeRegistry(cfg VerificationConfig) *CodeRegistry {
	return &CodeRegistry{
		config:   cfg,
		records:  make(map[string]*codeRecord),
		generate: internal.NewVerificationCode,
	}
}

// WithGenerator replaces the code generator. Intended for tests.
func (r *CodeRegistry) WithGenerator(gen func() (string, error)) *CodeRegistry {
	r.generate = gen
	return r
}

// Issue generates a fresh code for email and stores it, replacing any
// previous record once the resend cooldown has passed.
func (r *CodeRegistry) Issue(email string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[email]; ok && now.Sub(rec.createdAt) < r.config.Cooldown {
		return "", ErrCodeTooFrequent
	}

	code, err := r.generate()
	if err != nil {
		return "", err
	}

	r.records[email] = &codeRecord{code: code, createdAt: now}
	return code, nil
}

// Consume checks submitted against the live code for email.
//
// On success the record is deleted. An expired record is deleted and
// reported as ErrCodeExpired. A mismatch increments the attempt counter and
// returns the attempts remaining; the attempt that reaches the limit deletes
// the record and reports ErrCodeAttemptsExceeded.
func (r *CodeRegistry) Consume(email, submitted string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[email]
	if !ok {
		return 0, ErrCodeNotFound
	}

	if now.Sub(rec.createdAt) > r.config.TTL {
		delete(r.records, email)
		return 0, ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(rec.code), []byte(submitted)) != 1 {
		rec.attempts++
		if rec.attempts >= r.config.MaxAttempts {
			delete(r.records, email)
			return 0, ErrCodeAttemptsExceeded
		}
		return r.config.MaxAttempts - rec.attempts, ErrCodeMismatch
	}

	delete(r.records, email)
	return 0, nil
}

// Sweep deletes every record older than the TTL and returns the count.
func (r *CodeRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for email, rec := range r.records {
		if now.Sub(rec.createdAt) > r.config.TTL {
			delete(r.records, email)
			removed++
		}
	}
	return removed
}

// Len returns the number of live records.
func (r *CodeRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
