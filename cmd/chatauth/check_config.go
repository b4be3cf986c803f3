package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckConfigCmd creates the check-config subcommand.
func NewCheckConfigCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration OK")
			fmt.Fprintf(out, "  listen:           %s\n", cfg.Server.Listen)
			fmt.Fprintf(out, "  static dir:       %s\n", cfg.Server.StaticDir)
			fmt.Fprintf(out, "  store:            %s\n", storeSummary(cfg.Store))
			fmt.Fprintf(out, "  mail:             %s\n", mailSummary(cfg.Mail))
			fmt.Fprintf(out, "  session encoding: %s\n", cfg.Auth.SessionEncoding)
			fmt.Fprintf(out, "  password hashing: %s\n", cfg.Auth.PasswordHashing)
			fmt.Fprintf(out, "  production:       %t\n", cfg.Auth.Production)
			fmt.Fprintf(out, "  metrics:          %t\n", cfg.Server.Metrics)
			fmt.Fprintf(out, "  metrics public:   %t\n", cfg.Server.MetricsPublic)
			return nil
		},
	}

	addConfigFlags(cmd.Flags())
	return cmd
}

func storeSummary(s storeConfig) string {
	if s.Backend == "redis" {
		return fmt.Sprintf("redis %s db=%d", s.RedisAddr, s.RedisDB)
	}
	return "file " + s.File
}

func mailSummary(m mailConfig) string {
	if m.Host == "" {
		return "log only"
	}
	return fmt.Sprintf("smtp %s:%d", m.Host, m.Port)
}
