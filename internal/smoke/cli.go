// Package smoke drives a running service through the contest lifecycle and
// reports whether every step behaved as expected.
package smoke

import "os"

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	os.Stdout.WriteString(`CFS Platform Smoke Test
=======================

Walks one contest through create, update, activate and cancel against a
running service. In fallback mode it checks reads and the 503 write path.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -secret string
        HS256 secret shared with the service (default $CFS_AUTH_SECRET or the dev secret)
  -issuer string
        Token issuer (default "cfs-platform")
  -sub string
        Actor id the token is issued for (default "smoke-user")
  -admin
        Claim the CONTEST_ADMIN role
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every response
  -help
        Show this help message
`)
}
