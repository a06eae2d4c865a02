package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fuelops/task-tracker/internal/app"
)

func reportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Daily report",
	}
	cmd.AddCommand(reportShowCmd(opts))
	cmd.AddCommand(reportSendCmd(opts))
	return cmd
}

func reportShowCmd(opts *options) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the report of a day as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Reports.Daily(ctx, date)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

func reportSendCmd(opts *options) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Mail the report of a day to the configured recipient",
		Long: `Build and mail the daily report now, for example to resend a day whose
scheduled run failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Reports.Send(ctx, date)
				if err != nil {
					return err
				}
				pending := fmt.Sprintf("%d pending", report.Pending)
				if report.Pending > 0 {
					pending = warnText(pending)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Sent report for %s to %s: %d tasks, %d completed, %s\n",
					okMark, report.Date, a.Config.Report.Recipient, report.Total, report.Completed, pending)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}
