package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/chatauth"
	"github.com/MrEthical07/chatauth/accounts"
	"github.com/MrEthical07/chatauth/httpapi"
	"github.com/MrEthical07/chatauth/internal/logging"
	"github.com/MrEthical07/chatauth/metrics/export/prometheus"
	"github.com/MrEthical07/chatauth/middleware"
)

const serviceName = "chatauth"

// NewServeCmd creates the serve subcommand.
func NewServeCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with the account endpoints under /user/ and
the session-guarded static site everywhere else.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Server.Listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Listen, err)
			}
			return runServe(ctx, cfg, ln, cmd.ErrOrStderr())
		},
	}

	addConfigFlags(cmd.Flags())
	return cmd
}

// runServe serves on ln until ctx is cancelled, then drains in-flight
// requests for up to Server.ShutdownTimeout. ln is closed on return.
func runServe(ctx context.Context, cfg fileConfig, ln net.Listener, logOut io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		_ = ln.Close()
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, level, logOut)

	engine, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer cleanup()

	opts := httpapi.Options{
		Static: http.FileServer(http.Dir(cfg.Server.StaticDir)),
		Guard:  middleware.DefaultOptions(),
		Logger: logger,
	}
	if cfg.Server.SignupPage != "" {
		page, err := os.ReadFile(cfg.Server.SignupPage)
		if err != nil {
			logger.Warn("signup page unavailable, guard answers with JSON",
				"path", cfg.Server.SignupPage, "error", err)
		} else {
			opts.Guard.SignupPage = page
		}
	}
	if cfg.Server.Metrics {
		opts.Metrics = prometheus.Handler(engine)
		opts.PublicMetrics = cfg.Server.MetricsPublic
	}

	srv := &http.Server{
		Handler:           httpapi.New(engine, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := engine.StartSweeper(sweepCtx)
	defer func() {
		stopSweep()
		<-sweepDone
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("chatauth server started",
		"addr", ln.Addr().String(),
		"store", cfg.Store.Backend,
		"session_encoding", cfg.Auth.SessionEncoding,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	logger.Info("server stopped")
	return nil
}

// buildEngine opens the account store and wires the engine. The returned
// cleanup closes the engine, then the audit file and any redis client.
func buildEngine(ctx context.Context, cfg fileConfig, logger *slog.Logger) (*chatauth.Engine, func(), error) {
	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	verifier, err := cfg.verifier()
	if err != nil {
		return nil, nil, fmt.Errorf("password hashing: %w", err)
	}

	closers := []func(){}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var persister accounts.Persister
	switch cfg.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, oops.Code("REDIS_CONNECT_FAILED").
				With("addr", cfg.Store.RedisAddr).
				Wrap(err)
		}
		persister = accounts.NewRedisPersister(client, cfg.Store.RedisKey)
	default:
		persister = accounts.NewFilePersister(cfg.Store.File)
	}

	store, err := accounts.Open(ctx, persister)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open account store: %w", err)
	}
	logger.Info("account store loaded", "backend", cfg.Store.Backend, "accounts", store.Len())

	sender, err := buildSender(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	builder := chatauth.New().
		WithConfig(engineCfg).
		WithAccounts(store).
		WithSender(sender).
		WithVerifier(verifier).
		WithLogger(logger)
	if engineCfg.Audit.Enabled {
		var sink chatauth.AuditSink = chatauth.NewSlogSink(logger)
		if cfg.Auth.AuditFile != "" {
			f, err := os.OpenFile(cfg.Auth.AuditFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("open audit file: %w", err)
			}
			closers = append(closers, func() { _ = f.Close() })
			sink = chatauth.NewJSONWriterSink(f)
		}
		builder = builder.WithAuditSink(sink)
	}
	engine, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}
	closers = append(closers, engine.Close)
	return engine, cleanup, nil
}

func buildSender(cfg fileConfig, logger *slog.Logger) (chatauth.CodeSender, error) {
	if cfg.Mail.Host == "" {
		logger.Warn("mail.host not set, verification codes are written to the log")
		return chatauth.LogSender{Logger: logger}, nil
	}
	sender, err := chatauth.NewSMTPSender(chatauth.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Subject:  cfg.Mail.Subject,
		Validity: cfg.Auth.CodeTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("mail: %w", err)
	}
	return sender, nil
}
