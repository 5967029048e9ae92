package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/flencrypto/cfs-platform/internal/config"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/smoke"
	"github.com/flencrypto/cfs-platform/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 2 * time.Minute
)

func main() {
	secret := os.Getenv("CFS_AUTH_SECRET")
	if secret == "" {
		secret = config.DefaultAuthSecret
	}

	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		key     = flag.String("secret", secret, "HS256 secret shared with the service")
		issuer  = flag.String("issuer", "cfs-platform", "Token issuer")
		subject = flag.String("sub", "smoke-user", "Actor id the token is issued for")
		admin   = flag.Bool("admin", false, "Claim the CONTEST_ADMIN role")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every response")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &smoke.Config{
		BaseURL: *baseURL,
		Secret:  *key,
		Issuer:  *issuer,
		Subject: *subject,
		Timeout: *timeout,
		Verbose: *verbose,
	}
	if *admin {
		cfg.Roles = []string{model.RoleContestAdmin}
	}

	if _, err := smoke.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("smoke test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called explicitly above
	}
}
