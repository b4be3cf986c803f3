package chatauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/chatauth/accounts"
	"github.com/MrEthical07/chatauth/session"
)

const testInvitation = "INV123"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
	err   error
}

func newCaptureSender() *captureSender {
	return &captureSender{codes: make(map[string]string)}
}

func (s *captureSender) Send(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	if s.err != nil {
		return s.err
	}
	s.codes[email] = code
	return nil
}

func (s *captureSender) Code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

func (s *captureSender) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Security.CookieSecret = []byte("test-cookie-secret")
	cfg.Invitation.Code = testInvitation
	return cfg
}

type testEngine struct {
	*Engine
	clock  *fakeClock
	sender *captureSender
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testEngine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := newFakeClock()
	sender := newCaptureSender()

	engine, err := New().
		WithConfig(cfg).
		WithSender(sender).
		WithClock(clock.Now).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, clock: clock, sender: sender}
}

func ipContext(ip string) context.Context {
	return WithClientIP(context.Background(), ip)
}

func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/chat.html", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// seedAccount creates an account directly in the store.
func seedAccount(t *testing.T, e *testEngine, username, email, password string) Account {
	t.Helper()
	a, err := e.Accounts().Create(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Invitation.Code = testInvitation
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error without cookie secret")
	}

	b := New().WithConfig(testConfig())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second Build")
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	if _, _, err := e.Login(context.Background(), "a@example.com", "pw"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if got := e.MetricsSnapshot(); len(got.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got.Counters)
	}
}

func TestSessionRoundTripAllEncodings(t *testing.T) {
	for _, encoding := range []string{session.EncodingSignedJSON, session.EncodingJWT, session.EncodingLegacy} {
		t.Run(encoding, func(t *testing.T) {
			e := newTestEngine(t, func(c *Config) { c.Session.Encoding = encoding })
			a := seedAccount(t, e, "alice", "alice@example.com", "secret")

			cookies, err := e.Issue(a)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			got, err := e.Validate(requestWith(cookies))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if got.UserID != a.UserID {
				t.Fatalf("user id = %q, want %q", got.UserID, a.UserID)
			}
		})
	}
}

func TestValidateFailsClosed(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "secret")

	if _, err := e.Validate(requestWith(nil)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("no cookie: expected ErrUnauthenticated, got %v", err)
	}

	cookies, err := e.Issue(a)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	forged := *cookies[0]
	forged.Value = forged.Value + "x"
	if _, err := e.Validate(requestWith([]*http.Cookie{&forged})); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("forged cookie: expected ErrUnauthenticated, got %v", err)
	}

	other := newTestEngine(t, nil)
	if _, err := other.Validate(requestWith(cookies)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("unknown user: expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionExpiresAfterMaxAge(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "secret")

	cookies, err := e.Issue(a)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	e.clock.Advance(47 * time.Hour)
	_, renewed, err := e.Renew(requestWith(cookies))
	if err != nil {
		t.Fatalf("Renew before expiry: %v", err)
	}

	e.clock.Advance(2 * time.Hour)
	if _, err := e.Validate(requestWith(cookies)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("stale cookie: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := e.Validate(requestWith(renewed)); err != nil {
		t.Fatalf("renewed cookie: %v", err)
	}
}

func TestRotationInvalidatesIssuedCookies(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "secret")

	cookies, err := e.Issue(a)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := e.Accounts().MutatePassword(context.Background(), a.Email, "new-secret"); err != nil {
		t.Fatalf("MutatePassword: %v", err)
	}
	if _, err := e.Validate(requestWith(cookies)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected old cookie rejected, got %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "secret")
	cookies, _ := e.Issue(a)

	rotated, err := e.RevokeAll(context.Background(), a.UserID)
	if err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if rotated.SessionToken == a.SessionToken {
		t.Fatal("expected session token to rotate")
	}
	if _, err := e.Validate(requestWith(cookies)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected revoked cookie rejected, got %v", err)
	}
	if _, err := e.RevokeAll(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStatusAndLogout(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "secret")

	if st := e.Status(requestWith(nil)); st.LoggedIn || st.Username != "" {
		t.Fatalf("anonymous status = %+v", st)
	}

	cookies, _ := e.Issue(a)
	if st := e.Status(requestWith(cookies)); !st.LoggedIn || st.Username != "alice" {
		t.Fatalf("status = %+v", st)
	}

	cleared := e.Logout(context.Background(), requestWith(cookies))
	if len(cleared) == 0 {
		t.Fatal("expected clearing cookies")
	}
	for _, c := range cleared {
		if c.MaxAge >= 0 {
			t.Fatalf("cookie %q not cleared: MaxAge=%d", c.Name, c.MaxAge)
		}
	}

	if cleared := e.Logout(context.Background(), requestWith(nil)); len(cleared) == 0 {
		t.Fatal("anonymous logout should still clear cookies")
	}
}

func TestStoreFailureKeepsMemoryMutation(t *testing.T) {
	e := newTestEngine(t, nil)
	store, err := accounts.Open(context.Background(), failingSave{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e.accounts = store

	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "bob@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}
	a, err := e.Register(context.Background(), Registration{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "pw",
		Code:     e.sender.Code("bob@example.com"),
	})
	if !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("expected ErrStoreFailure, got %v", err)
	}
	if a.UserID == "" {
		t.Fatal("expected the created account to be returned")
	}
	if _, ok := e.Accounts().FindByEmail("bob@example.com"); !ok {
		t.Fatal("expected account kept in memory")
	}
	if got := e.MetricsSnapshot().Counters[MetricStoreFailure]; got != 1 {
		t.Fatalf("store failure metric = %d", got)
	}
}

type failingSave struct{}

func (failingSave) Load(context.Context) ([]accounts.Account, error) { return nil, nil }

func (failingSave) Save(context.Context, []accounts.Account) error {
	return errors.New("disk full")
}
