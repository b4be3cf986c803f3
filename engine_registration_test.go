package chatauth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/chatauth/accounts"
)

func registerAccount(t *testing.T, e *testEngine, username, email, password string) Account {
	t.Helper()
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), email, testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}
	a, err := e.Register(context.Background(), Registration{
		Username: username,
		Email:    email,
		Password: password,
		Code:     e.sender.Code(accounts.NormalizeEmail(email)),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return a
}

func TestRegisterThenLogin(t *testing.T) {
	e := newTestEngine(t, nil)
	registerAccount(t, e, "alice", "Alice@Example.com", "secret")

	_, cookies, err := e.Login(ipContext("10.0.0.1"), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if st := e.Status(requestWith(cookies)); !st.LoggedIn || st.Username != "alice" {
		t.Fatalf("status = %+v", st)
	}
	if a, ok := e.Accounts().FindByEmail("alice@example.com"); !ok || a.Email != "alice@example.com" {
		t.Fatalf("expected account stored under the normalized email, got %+v", a)
	}
	if got := e.MetricsSnapshot().Counters[MetricAccountCreated]; got != 1 {
		t.Fatalf("account created metric = %d", got)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := newTestEngine(t, nil)
	registerAccount(t, e, "alice", "alice@example.com", "secret")

	err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "ALICE@example.com", testInvitation)
	if !errors.Is(err, ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
	if e.Accounts().Len() != 1 {
		t.Fatalf("accounts = %d, want 1", e.Accounts().Len())
	}
}

func TestRegisterDuplicateRaceLosesAtCreate(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}
	code := e.sender.Code("alice@example.com")
	seedAccount(t, e, "other", "alice@example.com", "pw")

	_, err := e.Register(context.Background(), Registration{
		Username: "alice", Email: "alice@example.com", Password: "pw", Code: code,
	})
	if !errors.Is(err, ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}
	code := e.sender.Code("alice@example.com")

	tests := []struct {
		name string
		req  Registration
		want error
	}{
		{name: "missing username", req: Registration{Email: "alice@example.com", Password: "pw", Code: code}, want: ErrInvalidInput},
		{name: "missing code", req: Registration{Username: "alice", Email: "alice@example.com", Password: "pw"}, want: ErrInvalidInput},
		{name: "too wide", req: Registration{Username: "张三李四王五赵六", Email: "alice@example.com", Password: "pw", Code: code}, want: ErrUsernameTooWide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Register(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// Validation failures did not burn the code.
	if _, err := e.Register(context.Background(), Registration{
		Username: "张三李四王五", Email: "alice@example.com", Password: "pw", Code: code,
	}); err != nil {
		t.Fatalf("Register with width 12: %v", err)
	}
}

func TestCodeIsSingleUse(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}
	code := e.sender.Code("alice@example.com")

	if err := e.ConsumeCode(context.Background(), "alice@example.com", code); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := e.ConsumeCode(context.Background(), "alice@example.com", code); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("second consume: expected ErrCodeNotFound, got %v", err)
	}
}

func TestCodeExhaustedAfterFiveMismatches(t *testing.T) {
	e := newTestEngine(t, nil)
	e.codes.WithGenerator(func() (string, error) { return "123456", nil })
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}

	for i := 1; i <= 4; i++ {
		err := e.ConsumeCode(context.Background(), "alice@example.com", "000000")
		var mismatch *CodeMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("attempt %d: expected *CodeMismatchError, got %v", i, err)
		}
		if mismatch.AttemptsRemaining != 5-i {
			t.Fatalf("attempt %d: remaining = %d, want %d", i, mismatch.AttemptsRemaining, 5-i)
		}
	}
	if err := e.ConsumeCode(context.Background(), "alice@example.com", "000000"); !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("fifth mismatch: expected ErrCodeExhausted, got %v", err)
	}
	if err := e.ConsumeCode(context.Background(), "alice@example.com", "123456"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("after exhaustion: expected ErrCodeNotFound, got %v", err)
	}
}

func TestCodeExpires(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}
	code := e.sender.Code("alice@example.com")

	e.clock.Advance(10*time.Minute + time.Second)
	if err := e.ConsumeCode(context.Background(), "alice@example.com", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestCodeResendCooldown(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := ipContext("10.0.0.1")

	if err := e.RequestRegistrationCode(ctx, "alice@example.com", testInvitation); err != nil {
		t.Fatalf("first request: %v", err)
	}
	first := e.sender.Code("alice@example.com")

	e.clock.Advance(30 * time.Second)
	if err := e.RequestRegistrationCode(ctx, "alice@example.com", testInvitation); !errors.Is(err, ErrCodeTooFrequent) {
		t.Fatalf("expected ErrCodeTooFrequent, got %v", err)
	}

	e.codes.WithGenerator(func() (string, error) { return "654321", nil })
	e.clock.Advance(31 * time.Second)
	if err := e.RequestRegistrationCode(ctx, "alice@example.com", testInvitation); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
	if first == "654321" {
		t.Skip("random code collided with the fixed replacement")
	}
	if err := e.ConsumeCode(context.Background(), "alice@example.com", first); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("old code: expected ErrCodeMismatch, got %v", err)
	}
}

func TestCodeDeliveryFailureKeepsRecord(t *testing.T) {
	e := newTestEngine(t, nil)
	e.sender.err = errors.New("smtp down")

	err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation)
	if !errors.Is(err, ErrCodeDeliveryFailed) {
		t.Fatalf("expected ErrCodeDeliveryFailed, got %v", err)
	}
	if e.codes.Len() != 1 {
		t.Fatalf("code records = %d, want 1", e.codes.Len())
	}

	e.sender.err = nil
	err = e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation)
	if !errors.Is(err, ErrCodeTooFrequent) {
		t.Fatalf("expected cooldown to apply after failed delivery, got %v", err)
	}
}

func TestInvitationGate(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := ipContext("10.9.9.9")

	for i := 1; i <= 10; i++ {
		err := e.RequestRegistrationCode(ctx, fmt.Sprintf("u%d@example.com", i), "WRONG")
		if !errors.Is(err, ErrInvitationInvalid) {
			t.Fatalf("attempt %d: expected ErrInvitationInvalid, got %v", i, err)
		}
	}

	err := e.RequestRegistrationCode(ctx, "late@example.com", testInvitation)
	if !errors.Is(err, ErrInvitationBlocked) {
		t.Fatalf("expected ErrInvitationBlocked, got %v", err)
	}
	if e.sender.Sent() != 0 {
		t.Fatalf("sent = %d, want 0", e.sender.Sent())
	}

	if err := e.RequestRegistrationCode(ipContext("10.9.9.10"), "late@example.com", testInvitation); err != nil {
		t.Fatalf("other IP: %v", err)
	}

	e.clock.Advance(time.Hour + time.Second)
	if err := e.RequestRegistrationCode(ctx, "later@example.com", testInvitation); err != nil {
		t.Fatalf("after window: %v", err)
	}
}

func TestRegistrationWrongCodeThenRetry(t *testing.T) {
	e := newTestEngine(t, nil)
	e.codes.WithGenerator(func() (string, error) { return "111111", nil })
	if err := e.RequestRegistrationCode(ipContext("10.0.0.1"), "alice@example.com", testInvitation); err != nil {
		t.Fatalf("RequestRegistrationCode: %v", err)
	}

	req := Registration{Username: "alice", Email: "alice@example.com", Password: "pw", Code: "222222"}
	if _, err := e.Register(context.Background(), req); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
	if e.Accounts().Len() != 0 {
		t.Fatal("no account should be created on a wrong code")
	}

	req.Code = "111111"
	if _, err := e.Register(context.Background(), req); err != nil {
		t.Fatalf("Register: %v", err)
	}
}
