package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jurix/jurix/internal/bootstrap"
	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/usecase"
)

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userCreateCommand())
	return cmd
}

// userCreateCommand creates accounts without an acting user, which is how
// the first ADMIN of a fresh deployment is provisioned.
func userCreateCommand() *cobra.Command {
	var req usecase.CreateUserRequest
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
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

			req.Role = domain.Role(strings.ToUpper(role))
			user, err := services.AuthUseCase.CreateUser(cmd.Context(), req, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password (required)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "ADMIN, LEGAL or VIEWER")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
