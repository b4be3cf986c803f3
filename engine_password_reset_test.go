package chatauth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/chatauth/password"
)

func TestPasswordResetRotatesSessionAndClearsLockout(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "old-secret")
	oldCookies, _ := e.Issue(a)

	for i := 0; i < 10; i++ {
		e.Login(ipContext(fmt.Sprintf("10.0.1.%d", i)), "alice@example.com", "wrong")
	}
	if _, _, err := e.Login(ipContext("10.0.2.1"), "alice@example.com", "old-secret"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	if err := e.RequestPasswordResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordResetCode: %v", err)
	}
	updated, err := e.ResetPassword(context.Background(), PasswordReset{
		Email:       "alice@example.com",
		NewPassword: "new-secret",
		Code:        e.sender.Code("alice@example.com"),
	})
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if updated.SessionToken == a.SessionToken {
		t.Fatal("expected session token rotation")
	}

	if _, err := e.Validate(requestWith(oldCookies)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("old cookie: expected ErrUnauthenticated, got %v", err)
	}
	if _, _, err := e.Login(ipContext("10.0.2.2"), "alice@example.com", "old-secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := e.Login(ipContext("10.0.2.3"), "alice@example.com", "new-secret"); err != nil {
		t.Fatalf("new password: %v", err)
	}
}

func TestPasswordResetRequiresRegisteredEmail(t *testing.T) {
	e := newTestEngine(t, nil)

	if err := e.RequestPasswordResetCode(context.Background(), "nobody@example.com"); !errors.Is(err, ErrEmailNotRegistered) {
		t.Fatalf("expected ErrEmailNotRegistered, got %v", err)
	}
	_, err := e.ResetPassword(context.Background(), PasswordReset{
		Email: "nobody@example.com", NewPassword: "x", Code: "123456",
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordResetWrongCode(t *testing.T) {
	e := newTestEngine(t, nil)
	a := seedAccount(t, e, "alice", "alice@example.com", "secret")
	e.codes.WithGenerator(func() (string, error) { return "111111", nil })

	if err := e.RequestPasswordResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordResetCode: %v", err)
	}
	_, err := e.ResetPassword(context.Background(), PasswordReset{
		Email: "alice@example.com", NewPassword: "new", Code: "999999",
	})
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	current, _ := e.Accounts().FindByEmail("alice@example.com")
	if current.SessionToken != a.SessionToken || current.Password != "secret" {
		t.Fatal("account must not change on a wrong code")
	}
}

func TestPasswordResetWithArgon2Verifier(t *testing.T) {
	cfg := testConfig()
	clock := newFakeClock()
	sender := newCaptureSender()
	verifier, err := password.NewArgon2Verifier(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2Verifier: %v", err)
	}
	engine, err := New().
		WithConfig(cfg).
		WithSender(sender).
		WithClock(clock.Now).
		WithVerifier(verifier).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	e := &testEngine{Engine: engine, clock: clock, sender: sender}

	registerAccount(t, e, "alice", "alice@example.com", "secret")
	stored, _ := e.Accounts().FindByEmail("alice@example.com")
	if stored.Password == "secret" {
		t.Fatal("password stored in plaintext")
	}
	if _, _, err := e.Login(ipContext("10.0.0.1"), "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	clock.Advance(2 * cfg.Verification.Cooldown)
	if err := e.RequestPasswordResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordResetCode: %v", err)
	}
	if _, err := e.ResetPassword(context.Background(), PasswordReset{
		Email: "alice@example.com", NewPassword: "rotated", Code: sender.Code("alice@example.com"),
	}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, err := e.Login(ipContext("10.0.0.2"), "alice@example.com", "rotated"); err != nil {
		t.Fatalf("Login after reset: %v", err)
	}
}
