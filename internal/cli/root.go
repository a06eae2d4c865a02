// Package cli implements tasksctl, the operator tool for tasks the web UI
// does not cover: schema migrations, bootstrapping the first manager,
// catalog imports and re-sending a daily report.
package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/app"
	"github.com/fuelops/task-tracker/internal/config"
	"github.com/fuelops/task-tracker/internal/logger"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnText = color.New(color.FgYellow).SprintFunc()
)

type options struct {
	configPath string
}

// RootCmd returns the tasksctl command tree.
func RootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tasksctl",
		Short:         "Administration commands for the task tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the config file (default ./config/config.yaml)")

	root.AddCommand(migrateCmd(opts))
	root.AddCommand(userCmd(opts))
	root.AddCommand(catalogCmd(opts))
	root.AddCommand(reportCmd(opts))

	return root
}

// open loads the config and builds the application for one command run.
func (o *options) open(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return a, nil
}

// withApp runs fn against a freshly opened application and closes it afterwards.
func (o *options) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		a.Close()
		_ = a.Log.Sync()
	}()

	if err := fn(ctx, a); err != nil {
		a.Log.Debug("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		return err
	}
	return nil
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okMark, "Schema is up to date")
				return nil
			})
		},
	}
}
