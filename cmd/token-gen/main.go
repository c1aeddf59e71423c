package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/technosupport/vms-inventory/internal/config"
	"github.com/technosupport/vms-inventory/internal/tokens"
)

// token-gen mints a signed access token for local testing against the
// protected routes. It uses the same signing key and issuer as the server.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	userID := flag.Int64("user", 1, "user id placed in the subject claim")
	role := flag.String("role", "Admin", "role claim")
	refresh := flag.Bool("refresh", false, "mint a refresh token instead")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token-gen:", err)
		os.Exit(1)
	}

	mgr := tokens.NewManager(cfg.Auth.SigningKey, cfg.Auth.Issuer)
	gen := mgr.GenerateAccessToken
	if *refresh {
		gen = mgr.GenerateRefreshToken
	}
	token, err := gen(*userID, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token-gen:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
