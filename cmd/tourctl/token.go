package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bentansusanto/travel-api/pkg/middleware"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with AUTH_JWT_SECRET",
		Long: `Issue a bearer token signed with AUTH_JWT_SECRET.

Only useful with AUTH_MODE=jwt. The user id must exist for booking and
payment calls to succeed.

Examples:
  tourctl token --user 7d1f... --email ana@example.com
  tourctl token --user 0b2c... --role owner --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case middleware.RoleTraveller, middleware.RoleAdmin, middleware.RoleOwner:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != "jwt" {
				return fmt.Errorf("auth mode is %q; tokens are only issued in jwt mode", cfg.Auth.Mode)
			}

			verifier := middleware.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
			token, err := verifier.Issue(middleware.Principal{UserID: userID, Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", middleware.RoleTraveller, "traveller, admin or owner")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
