// Command admintoken mints operator tokens for the admin API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/eventra-app/admin-service/internal/auth"
	"github.com/eventra-app/admin-service/internal/config"
	"github.com/eventra-app/admin-service/internal/domain"
)

func main() {
	var (
		operatorID string
		email      string
		role       string
		ttl        int
		asJSON     bool
	)
	pflag.StringVarP(&operatorID, "operator", "o", "", "operator id written to the sub claim (required)")
	pflag.StringVarP(&email, "email", "e", "", "operator email")
	pflag.StringVarP(&role, "role", "r", string(domain.AdminRoleModerator), "ADMIN or MODERATOR")
	pflag.IntVar(&ttl, "ttl-minutes", 0, "token lifetime; defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES")
	pflag.BoolVar(&asJSON, "json", false, "print token and expiry as JSON")
	pflag.Parse()

	if operatorID == "" {
		fmt.Fprintln(os.Stderr, "--operator is required")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if ttl <= 0 {
		ttl = cfg.Auth.AccessTokenTTLMinutes
	}

	token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).
		GenerateToken(operatorID, email, domain.AdminRole(role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}

	if !asJSON {
		fmt.Println(token)
		return
	}
	_ = json.NewEncoder(os.Stdout).Encode(struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{token, expiresAt})
}
