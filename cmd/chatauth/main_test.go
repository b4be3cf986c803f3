package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "check-config"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestCheckConfig_PrintsSummary(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: "127.0.0.1:4000"
store:
  backend: redis
  redis_addr: "127.0.0.1:6379"
  redis_db: 2
auth:
  cookie_secret: "file-secret"
  invitation_code: "INV123"
  password_hashing: argon2
`)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", path, "check-config"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "configuration OK")
	assert.Contains(t, out, "127.0.0.1:4000")
	assert.Contains(t, out, "redis 127.0.0.1:6379 db=2")
	assert.Contains(t, out, "log only")
	assert.Contains(t, out, "argon2")
	assert.Contains(t, out, "metrics public:   false")
}

func TestCheckConfig_RejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, `
auth:
  invitation_code: "INV123"
`)
	t.Setenv(envCookieSecret, "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", path, "check-config"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CookieSecret")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
