package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jurix/jurix/internal/bootstrap"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

func tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}
	cmd.AddCommand(tokenIssueCommand())
	return cmd
}

func tokenIssueCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for an existing active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			services, err := bootstrap.NewServices(e.cfg, e.db, nil, nil, e.log)
			if err != nil {
				return err
			}

			user, err := services.Users.FindByID(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if user.Status != domain.UserStatusActive {
				return domain.ErrAccountInactive
			}

			token, err := services.Tokens.GenerateAccessToken(ports.TokenClaims{UserID: user.ID, Role: user.Role})
			if err != nil {
				return err
			}
			e.log.Info(cmd.Context(), "Access token issued", map[string]interface{}{
				"user_id": user.ID,
				"ttl":     services.Tokens.TTL().String(),
			})
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "user to issue the token for (required)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
