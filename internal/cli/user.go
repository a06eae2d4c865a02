package cli

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/app"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/services"
)

func userCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(createManagerCmd(opts))
	return cmd
}

// createManagerCmd bootstraps a general manager. Every other account is
// created through the API by a manager.
func createManagerCmd(opts *options) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-manager",
		Short: "Create a general manager account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := mail.ParseAddress(email); err != nil {
				return fmt.Errorf("invalid --email: %w", err)
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			hash, err := services.HashPassword(password)
			if err != nil {
				return err
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.UserRepo.FindByEmail(ctx, email)
				switch {
				case err == nil:
					return services.ErrEmailTaken
				case !errors.Is(err, gorm.ErrRecordNotFound):
					return fmt.Errorf("failed to check email: %w", err)
				}

				user := &models.User{
					Email:        email,
					FullName:     strings.TrimSpace(name),
					Role:         models.RoleGeneralManager,
					Department:   models.DepartmentManagement,
					IsActive:     true,
					PasswordHash: hash,
				}
				if err := a.UserRepo.Create(ctx, user); err != nil {
					return fmt.Errorf("failed to create user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Created general manager %s (%s)\n", okMark, user.FullName, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
