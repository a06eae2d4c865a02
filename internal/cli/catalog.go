package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fuelops/task-tracker/internal/app"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
)

func catalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import or export the task catalog",
	}
	cmd.AddCommand(catalogImportCmd(opts))
	cmd.AddCommand(catalogExportCmd(opts))
	return cmd
}

func catalogImportCmd(opts *options) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Replace the catalog with the tasks of a workbook",
		Long: `Replace every non-custom task with the rows of the workbook.

The file is rejected as a whole when any row is invalid; each bad row is
listed. Ad-hoc tasks created by the general manager are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				manager, err := findManager(ctx, a.UserRepo, as)
				if err != nil {
					return err
				}
				result, err := a.Catalog.Import(ctx, manager, f)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d tasks, replaced %d\n", okMark, result.Imported, result.Replaced)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "email of the general manager to act as (default: the first active one)")
	return cmd
}

func catalogExportCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active catalog as a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := a.Catalog.Export(ctx, f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", okMark, output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "gorevler.xlsx", "output file")
	return cmd
}

// findManager resolves --as, or picks the first active general manager.
func findManager(ctx context.Context, users repository.UserRepository, email string) (*models.User, error) {
	if email != "" {
		u, err := users.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("no user with email %s: %w", email, err)
		}
		if u.Role != models.RoleGeneralManager || !u.IsActive {
			return nil, fmt.Errorf("%s is not an active general manager", email)
		}
		return u, nil
	}

	list, err := users.List(ctx, repository.UserFilter{
		Roles:      []models.Role{models.RoleGeneralManager},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("no active general manager; create one with `tasksctl user create-manager`")
	}
	return &list[0], nil
}

// describe flattens a domain error and its row details into one message.
func describe(err error) error {
	var de *apierrors.DomainError
	if !errors.As(err, &de) {
		return err
	}
	details, ok := de.Details.([]string)
	if !ok || len(details) == 0 {
		return err
	}
	return fmt.Errorf("%s:\n  %s", de.Message, strings.Join(details, "\n  "))
}
