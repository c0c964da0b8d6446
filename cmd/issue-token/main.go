// Command issue-token prints a bearer token for a chat user, signed with
// the contract service's JWT settings.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pravodoc/pravodoc-backend/pkg/auth"
	"github.com/pravodoc/pravodoc-backend/pkg/config"
)

func main() {
	var (
		userID = flag.String("user", "", "chat user id (required)")
		expiry = flag.Duration("expiry", 0, "token lifetime, defaults to jwt.access_expiry")
	)
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-token -user <id> [-expiry 24h]")
		os.Exit(2)
	}

	cfg, err := config.Load("contract-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *expiry > 0 {
		cfg.JWT.AccessExpiry = *expiry
	}

	token, expiresAt, err := auth.NewManager(&cfg.JWT).GenerateToken(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
