package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/chatauth"
	"github.com/MrEthical07/chatauth/internal/logging"
	"github.com/MrEthical07/chatauth/password"
)

// Environment variables that override secrets from the config file.
const (
	envCookieSecret   = "cookieSecret"
	envInvitationCode = "Invitationcode"
	envMailHost       = "MAIL_HOST"
	envMailUser       = "MAIL_USER"
	envMailPassword   = "MAIL_PWD"
	envNodeEnv        = "NODE_ENV"
)

type serverConfig struct {
	Listen          string        `koanf:"listen"`
	StaticDir       string        `koanf:"static_dir"`
	SignupPage      string        `koanf:"signup_page"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Metrics         bool          `koanf:"metrics"`
	MetricsPublic   bool          `koanf:"metrics_public"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type storeConfig struct {
	// Backend is "file" or "redis".
	Backend       string `koanf:"backend"`
	File          string `koanf:"file"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`
}

type mailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	Subject  string `koanf:"subject"`
}

type authConfig struct {
	SessionEncoding string        `koanf:"session_encoding"`
	SessionMaxAge   time.Duration `koanf:"session_max_age"`
	LegacyMaxAge    time.Duration `koanf:"legacy_max_age"`
	CookieSecret    string        `koanf:"cookie_secret"`
	Production      bool          `koanf:"production"`
	InvitationCode  string        `koanf:"invitation_code"`
	// PasswordHashing is "plaintext" or "argon2".
	PasswordHashing string        `koanf:"password_hashing"`
	CodeTTL         time.Duration `koanf:"code_ttl"`
	CodeCooldown    time.Duration `koanf:"code_cooldown"`
	CodeAttempts    int           `koanf:"code_attempts"`
	LockoutWindow   time.Duration `koanf:"lockout_window"`
	LockoutLimit    int           `koanf:"lockout_limit"`
	LoginWindow     time.Duration `koanf:"login_window"`
	LoginLimit      int           `koanf:"login_limit"`
	InviteWindow    time.Duration `koanf:"invite_window"`
	InviteLimit     int           `koanf:"invite_limit"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	Audit           bool          `koanf:"audit"`
	AuditFile       string        `koanf:"audit_file"`
}

// fileConfig is the YAML layout of the server configuration.
type fileConfig struct {
	Server serverConfig `koanf:"server"`
	Log    logConfig    `koanf:"log"`
	Store  storeConfig  `koanf:"store"`
	Mail   mailConfig   `koanf:"mail"`
	Auth   authConfig   `koanf:"auth"`
}

func defaultFileConfig() fileConfig {
	d := chatauth.DefaultConfig()
	return fileConfig{
		Server: serverConfig{
			Listen:          ":3000",
			StaticDir:       "public",
			SignupPage:      "public/signup.html",
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Store: storeConfig{
			Backend: "file",
			File:    "users.json",
		},
		Mail: mailConfig{
			Port:    465,
			Subject: "Verification code",
		},
		Auth: authConfig{
			SessionEncoding: d.Session.Encoding,
			SessionMaxAge:   d.Session.MaxAge,
			LegacyMaxAge:    d.Session.LegacyMaxAge,
			PasswordHashing: "plaintext",
			CodeTTL:         d.Verification.TTL,
			CodeCooldown:    d.Verification.Cooldown,
			CodeAttempts:    d.Verification.MaxAttempts,
			LockoutWindow:   d.Lockout.Window,
			LockoutLimit:    d.Lockout.Threshold,
			LoginWindow:     d.LoginRate.Window,
			LoginLimit:      d.LoginRate.MaxAttempts,
			InviteWindow:    d.Invitation.Window,
			InviteLimit:     d.Invitation.MaxFailures,
			SweepInterval:   d.Sweeper.Interval,
		},
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"listen":      "server.listen",
	"static-dir":  "server.static_dir",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"store":       "store.backend",
	"store-file":  "store.file",
	"redis-addr":  "store.redis_addr",
	"session-enc": "auth.session_encoding",
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("listen", "", "HTTP listen address")
	fs.String("static-dir", "", "directory served behind the session guard")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (json or text)")
	fs.String("store", "", "account store backend (file or redis)")
	fs.String("store-file", "", "account list file for the file backend")
	fs.String("redis-addr", "", "redis address for the redis backend")
	fs.String("session-enc", "", "session cookie encoding (signed-json, jwt, legacy)")
}

// loadConfig layers defaults, the YAML file at path (optional), changed
// flags and secret environment variables, in that order.
func loadConfig(path string, fs *pflag.FlagSet) (fileConfig, error) {
	cfg := defaultFileConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, fmt.Errorf("load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *fileConfig) {
	if v, ok := os.LookupEnv(envCookieSecret); ok {
		cfg.Auth.CookieSecret = v
	}
	if v, ok := os.LookupEnv(envInvitationCode); ok {
		cfg.Auth.InvitationCode = v
	}
	if v, ok := os.LookupEnv(envMailHost); ok {
		cfg.Mail.Host = v
	}
	if v, ok := os.LookupEnv(envMailUser); ok {
		cfg.Mail.Username = v
	}
	if v, ok := os.LookupEnv(envMailPassword); ok {
		cfg.Mail.Password = v
	}
	if os.Getenv(envNodeEnv) == "production" {
		cfg.Auth.Production = true
	}
}

// Validate checks the settings the engine does not own.
func (c *fileConfig) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be > 0")
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Store.Backend {
	case "file":
		if c.Store.File == "" {
			return errors.New("store.file is required for the file backend")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("store.backend must be 'file' or 'redis', got %q", c.Store.Backend)
	}
	switch strings.ToLower(c.Auth.PasswordHashing) {
	case "plaintext", "argon2":
	default:
		return fmt.Errorf("auth.password_hashing must be 'plaintext' or 'argon2', got %q", c.Auth.PasswordHashing)
	}
	_, err := c.engineConfig()
	return err
}

// engineConfig maps the file layout onto a validated chatauth.Config.
func (c *fileConfig) engineConfig() (chatauth.Config, error) {
	out := chatauth.DefaultConfig()

	out.Session.Encoding = c.Auth.SessionEncoding
	out.Session.MaxAge = c.Auth.SessionMaxAge
	out.Session.LegacyMaxAge = c.Auth.LegacyMaxAge
	out.Security.CookieSecret = []byte(c.Auth.CookieSecret)
	out.Security.ProductionMode = c.Auth.Production
	out.Verification.TTL = c.Auth.CodeTTL
	out.Verification.Cooldown = c.Auth.CodeCooldown
	out.Verification.MaxAttempts = c.Auth.CodeAttempts
	out.Lockout.Window = c.Auth.LockoutWindow
	out.Lockout.Threshold = c.Auth.LockoutLimit
	out.LoginRate.Window = c.Auth.LoginWindow
	out.LoginRate.MaxAttempts = c.Auth.LoginLimit
	out.Invitation.Code = c.Auth.InvitationCode
	out.Invitation.Window = c.Auth.InviteWindow
	out.Invitation.MaxFailures = c.Auth.InviteLimit
	out.Sweeper.Interval = c.Auth.SweepInterval
	out.Audit.Enabled = c.Auth.Audit
	out.Metrics.Enabled = c.Server.Metrics
	out.Metrics.EnableLatencyHistograms = c.Server.Metrics

	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

func (c *fileConfig) verifier() (password.CredentialVerifier, error) {
	if strings.EqualFold(c.Auth.PasswordHashing, "argon2") {
		return password.NewArgon2Verifier(password.DefaultConfig())
	}
	return password.Plaintext{}, nil
}
