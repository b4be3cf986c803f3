package accounts

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserIDTaken   = errors.New("user id already in use")
	ErrInvalidRecord = errors.New("invalid account record")
	ErrStoreFailure  = errors.New("account store failure")
)

// Persister loads and saves the full account list.
type Persister interface {
	Load(ctx context.Context) ([]Account, error)
	Save(ctx context.Context, accounts []Account) error
}

// Store is the concurrency-safe account list. Reads return copies.
type Store struct {
	mu        sync.RWMutex
	accounts  []*Account
	byEmail   map[string]*Account
	byID      map[string]*Account
	persister Persister
	newID     func() string
}

// Open loads the account list through p and returns a ready store.
func Open(ctx context.Context, p Persister) (*Store, error) {
	list, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	s := newStore(p)
	for i := range list {
		if err := s.insert(list[i]); err != nil {
			return nil, fmt.Errorf("load account %d: %w", i, err)
		}
	}
	return s, nil
}

// NewMemoryStore returns an empty store that never persists.
func NewMemoryStore() *Store {
	return newStore(nil)
}

func newStore(p Persister) *Store {
	return &Store{
		byEmail:   make(map[string]*Account),
		byID:      make(map[string]*Account),
		persister: p,
		newID:     uuid.NewString,
	}
}

// FindByEmail looks up an account by normalized email.
func (s *Store) FindByEmail(email string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// FindByUserID looks up an account by id.
func (s *Store) FindByUserID(id string) (Account, bool) {
	if id == "" {
		return Account{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// FindBySessionPair returns the account whose id and current session token
// both match.
func (s *Store) FindBySessionPair(id, token string) (Account, bool) {
	if id == "" || token == "" {
		return Account{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok || subtle.ConstantTimeCompare([]byte(a.SessionToken), []byte(token)) != 1 {
		return Account{}, false
	}
	return *a, true
}

// Exists reports whether email is registered.
func (s *Store) Exists(email string) bool {
	_, ok := s.FindByEmail(email)
	return ok
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Create builds a new account with fresh id and session token and appends it.
func (s *Store) Create(ctx context.Context, username, email, password string) (Account, error) {
	a := Account{
		Username:     username,
		Email:        NormalizeEmail(email),
		Password:     password,
		UserID:       s.newID(),
		SessionToken: s.newID(),
	}
	if err := s.Append(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// Append adds a to the list and persists it. Duplicate emails and ids are
// rejected before any mutation. On a persistence error the account stays in
// memory.
func (s *Store) Append(ctx context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insert(a); err != nil {
		return err
	}
	return s.persistLocked(ctx)
}

// MutatePassword replaces the password of the account with the given email
// and rotates its session token, invalidating every issued session.
func (s *Store) MutatePassword(ctx context.Context, email, newPassword string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	a.Password = newPassword
	a.SessionToken = s.newID()

	return *a, s.persistLocked(ctx)
}

// RotateSessionToken rotates the token of the account with the given id
// without touching its password.
func (s *Store) RotateSessionToken(ctx context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	a.SessionToken = s.newID()

	return *a, s.persistLocked(ctx)
}

// Snapshot returns a copy of the full list in insertion order.
func (s *Store) Snapshot() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) insert(a Account) error {
	a.Email = NormalizeEmail(a.Email)
	if a.Email == "" || a.UserID == "" || a.SessionToken == "" {
		return ErrInvalidRecord
	}
	if _, ok := s.byEmail[a.Email]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.byID[a.UserID]; ok {
		return ErrUserIDTaken
	}
	rec := &a
	s.accounts = append(s.accounts, rec)
	s.byEmail[rec.Email] = rec
	s.byID[rec.UserID] = rec
	return nil
}

func (s *Store) snapshotLocked() []Account {
	out := make([]Account, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = *a
	}
	return out
}

func (s *Store) persistLocked(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return nil
}
