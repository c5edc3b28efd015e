package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/traitforge-backend/internal/platform/authtoken"
)

func newTokenCmd(_ *rootOptions) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return fmt.Errorf("JWT_SECRET_KEY or --secret is required")
			}
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				id = parsed
			}
			tok, err := authtoken.NewVerifier(secret).Issue(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id for the token subject (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", envOr("JWT_SECRET_KEY", ""), "HS256 signing secret")
	return cmd
}
