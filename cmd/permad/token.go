package main

import (
	"fmt"

	"github.com/spf13/cobra"

	auth "github.com/mind-engage/mindengage-perma/internal/auth/middleware"
	"github.com/mind-engage/mindengage-perma/internal/rbac"
)

var (
	tokenSub  string
	tokenRole string
)

// tokenCmd mints tokens for operators, e.g. read-only analyst access.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token signed with AUTH_HMAC_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !rbac.KnownRole(tokenRole) {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		tok, err := auth.NewAuthService(cfg.HMACSecret, cfg.AdminUser, cfg.AdminPassHash).IssueJWT(tokenSub, tokenRole)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSub, "sub", "ops", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "analyst", "token role")
}
