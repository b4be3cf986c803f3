package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	phcPrefix             = "$argon2id$"
)

var (
	// ErrNotPHC is returned by [Argon2Verifier.Verify] when the stored value
	// is not an argon2id PHC string, e.g. a password stored by [Plaintext].
	ErrNotPHC = errors.New("stored credential is not an argon2id PHC string")
	// ErrMalformedPHC is returned for a PHC string with bad fields.
	ErrMalformedPHC = errors.New("malformed argon2id PHC string")
)

// Config holds Argon2id cost parameters.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the Argon2id parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (c Config) validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return fmt.Errorf("password memory must be >= %d KB", minMemoryKB)
	case c.Time < minTimeCost:
		return errors.New("password time must be >= 1")
	case c.Parallelism < minParallelism:
		return errors.New("password parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return fmt.Errorf("password salt length must be >= %d", minSaltLength)
	case c.KeyLength < minKeyLength:
		return fmt.Errorf("password key length must be >= %d", minKeyLength)
	}
	return nil
}

// Argon2Verifier stores passwords as Argon2id PHC strings.
//
// Accounts created under [Plaintext] keep their stored value; Verify rejects
// such values with [ErrNotPHC] instead of rewriting them.
type Argon2Verifier struct {
	config Config
}

// NewArgon2Verifier validates cfg and returns a verifier.
func NewArgon2Verifier(cfg Config) (*Argon2Verifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2Verifier{config: cfg}, nil
}

// Prepare hashes plain into a PHC string. The raw bytes are hashed with no
// Unicode normalization.
func (a *Argon2Verifier) Prepare(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
	}
	p.hash = p.derive(plain, a.config.KeyLength)
	return p.String(), nil
}

// Verify recomputes the hash of plain with the parameters recorded in stored.
func (a *Argon2Verifier) Verify(plain, stored string) (bool, error) {
	p, err := parsePHC(stored)
	if err != nil {
		return false, err
	}
	computed := p.derive(plain, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(computed, p.hash) == 1, nil
}

// phc is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$hash" string.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func (p phc) derive(plain string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(plain), p.salt, p.time, p.memory, p.parallelism, keyLen)
}

func (p phc) String() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix, argon2.Version,
		p.memory, p.time, p.parallelism,
		base64.StdEncoding.EncodeToString(p.salt),
		base64.StdEncoding.EncodeToString(p.hash),
	)
}

func parsePHC(s string) (phc, error) {
	if !strings.HasPrefix(s, phcPrefix) {
		return phc{}, ErrNotPHC
	}
	fields := strings.Split(strings.TrimPrefix(s, phcPrefix), "$")
	if len(fields) != 4 {
		return phc{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedPHC, len(fields))
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return phc{}, fmt.Errorf("%w: version", ErrMalformedPHC)
	}
	if version != argon2.Version {
		return phc{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedPHC, version)
	}

	var p phc
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.parallelism); err != nil {
		return phc{}, fmt.Errorf("%w: parameters", ErrMalformedPHC)
	}
	if fields[1] != fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, p.parallelism) {
		return phc{}, fmt.Errorf("%w: parameters", ErrMalformedPHC)
	}
	if p.memory < minMemoryKB || p.time < minTimeCost || p.parallelism < minParallelism {
		return phc{}, fmt.Errorf("%w: parameters below minimum", ErrMalformedPHC)
	}

	var err error
	if p.salt, err = base64.StdEncoding.DecodeString(fields[2]); err != nil || len(p.salt) < int(minSaltLength) {
		return phc{}, fmt.Errorf("%w: salt", ErrMalformedPHC)
	}
	if p.hash, err = base64.StdEncoding.DecodeString(fields[3]); err != nil || len(p.hash) == 0 {
		return phc{}, fmt.Errorf("%w: hash", ErrMalformedPHC)
	}
	return p, nil
}
