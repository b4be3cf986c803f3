package chatauth

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// CodeSender delivers a verification code to an email address.
type CodeSender interface {
	Send(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log instead of mailing them. Use it for
// development only.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the code at Info and never fails.
func (s LogSender) Send(ctx context.Context, email, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "verification code issued", "email", email, "code", code)
	return nil
}

// SMTPConfig configures [SMTPSender].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From    string
	Subject string
	// Validity is printed in the message body.
	Validity    time.Duration
	DialTimeout time.Duration
}

// SMTPSender mails codes over implicit TLS (port 465 by default) with PLAIN
// auth and an HTML body.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender fills defaults for port, sender, subject, validity and dial
// timeout. Host, Username and Password are required.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp host, username and password are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Subject == "" {
		cfg.Subject = "Verification code"
	}
	if cfg.Validity <= 0 {
		cfg.Validity = 10 * time.Minute
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send dials a fresh TLS connection per code. ctx bounds the dial and its
// deadline, if any, covers the whole exchange.
func (s *SMTPSender) Send(ctx context.Context, email, code string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: s.cfg.DialTimeout},
		Config:    &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(s.message(email, code))); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

func (s *SMTPSender) message(to, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", s.cfg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "<p>Your verification code is <b>%s</b> (valid for %d minutes).</p>\r\n",
		code, int(s.cfg.Validity/time.Minute))
	return b.String()
}
