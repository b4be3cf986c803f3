package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/chatauth"
	"github.com/MrEthical07/chatauth/accounts"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func serveTestConfig(t *testing.T) fileConfig {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>chat</h1>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "signup.html"), []byte("<h1>signup</h1>"), 0o600))

	cfg := defaultFileConfig()
	cfg.Server.StaticDir = dir
	cfg.Server.SignupPage = filepath.Join(dir, "signup.html")
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Store.File = filepath.Join(dir, "users.json")
	cfg.Auth.CookieSecret = "serve-secret"
	cfg.Auth.InvitationCode = "INV123"
	return cfg
}

func startServe(t *testing.T, cfg fileConfig) (string, *syncBuffer, context.CancelFunc, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logs := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cfg, ln, logs)
	}()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "chatauth server started")
	}, 5*time.Second, 10*time.Millisecond)
	return base, logs, cancel, done
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServe_FileBackend(t *testing.T) {
	cfg := serveTestConfig(t)
	cfg.Server.MetricsPublic = true
	base, logs, cancel, done := startServe(t, cfg)

	resp, err := http.Get(base + "/index.html")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(page), "signup")

	resp = postJSON(t, base+"/user/getcode", map[string]string{
		"email":          "alice@example.com",
		"Invitationcode": "INV123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, logs.String(), "verification code issued")

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(metrics), "chatauth_code_issued_total")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Contains(t, logs.String(), "server stopped")
}

func TestServe_AuditFile(t *testing.T) {
	cfg := serveTestConfig(t)
	cfg.Auth.Audit = true
	cfg.Auth.AuditFile = filepath.Join(t.TempDir(), "audit.jsonl")
	base, _, cancel, done := startServe(t, cfg)

	resp := postJSON(t, base+"/user/getcode", map[string]string{
		"email":          "alice@example.com",
		"Invitationcode": "INV123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)

	data, err := os.ReadFile(cfg.Auth.AuditFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var ev chatauth.AuditEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "verification_code_request", ev.EventType)
	assert.Equal(t, "registration", ev.Purpose)
	assert.Equal(t, "127.0.0.1", ev.IP)
	assert.True(t, ev.Success)
}

func TestServe_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(accounts.DefaultRedisKey,
		`[{"username":"bob","email":"bob@example.com","password":"pw","userId":"u-1","sessionToken":"t-1"}]`))

	cfg := serveTestConfig(t)
	cfg.Store.Backend = "redis"
	cfg.Store.RedisAddr = mr.Addr()
	base, logs, cancel, done := startServe(t, cfg)
	defer func() {
		cancel()
		<-done
	}()
	assert.Contains(t, logs.String(), `"accounts":1`)

	resp := postJSON(t, base+"/user/postlogin", map[string]string{
		"email":    "bob@example.com",
		"password": "pw",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())

	anon, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	_ = anon.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, anon.StatusCode)

	req, err := http.NewRequest(http.MethodGet, base+"/metrics", nil)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(authed.Body)
	_ = authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
	assert.Contains(t, string(body), "chatauth_login_success_total")
}

func TestServe_RedisUnavailable(t *testing.T) {
	cfg := serveTestConfig(t)
	cfg.Store.Backend = "redis"
	cfg.Store.RedisAddr = "127.0.0.1:1"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = runServe(context.Background(), cfg, ln, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
