// cmd/web/main.go
//
// HTTPS redirect service – CLI entry point.
//
// Commands
// --------
//
//	web [serve]   run the HTTP server (default)
//	web check     validate global and per-site redirect settings, then exit
//	web decide    dry-run one redirect decision against the global settings
//
// Every command shares the same bootstrap: resolve the root directory,
// start the daily rotating logger, connect Vault when VAULT_ADDR is set,
// and load the layered config.  A malformed `https_redirect` key fails the
// bootstrap, so no command ever runs with partial rules.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/httpsredirect/internal/config"
	"github.com/yanizio/httpsredirect/internal/database"
	"github.com/yanizio/httpsredirect/internal/logger"
	"github.com/yanizio/httpsredirect/internal/vault"
)

var rootFlag string

var rootCmd = &cobra.Command{
	Use:           "web",
	Short:         "HTTPS/HTTP scheme redirect service",
	Long:          `Multi-site web front that redirects each page to its required scheme.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "",
		"root directory holding conf/ and logs/ (default: ADEPT_ROOT or discovered)")

	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, checkCmd, decideCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.S().Errorw("command failed", "err", err)
		_ = zap.L().Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func rootDir() string {
	if rootFlag != "" {
		return rootFlag
	}
	return config.RootDir()
}

// bootstrap starts logging, Vault, and config.  secrets is nil when Vault
// is not configured.
func bootstrap(ctx context.Context, tee bool) (*config.Config, config.SecretResolver, error) {
	root := rootDir()
	if _, err := logger.New(root, "info", tee); err != nil {
		return nil, nil, fmt.Errorf("start logger: %w", err)
	}

	var secrets config.SecretResolver
	if vault.Enabled() {
		vc, err := vault.New(ctx)
		if err != nil {
			return nil, nil, err
		}
		secrets = vc
	}

	cfg, err := config.LoadFrom(ctx, root, secrets)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, nil, err
	}
	return cfg, secrets, nil
}

// openGlobalDB connects the control-plane DB with the resolved password.
func openGlobalDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	dsn, err := database.WithPassword(cfg.Database.GlobalDSN, cfg.Database.GlobalPassword)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect global DB: %w", err)
	}
	return db, nil
}
