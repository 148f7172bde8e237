package main

import (
	"context"
	"errors"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-lims/internal/app"
	"github.com/noah-isme/backend-lims/internal/config"
	"github.com/noah-isme/backend-lims/internal/db"
	"github.com/noah-isme/backend-lims/internal/report"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			version, err := db.MigrateUp(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]uint{"version": version})
		},
	}
}

func newInvoiceCmd() *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Manage invoice batches",
	}
	invoiceCmd.AddCommand(&cobra.Command{
		Use:   "issue <order-id>",
		Short: "Issue an order onto the current month's ad hoc batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				o, err := deps.Orders().GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				receipt, err := deps.InvoiceManager().IssueAdHoc(ctx, o)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), receipt)
			})
		},
	})
	return invoiceCmd
}

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Build reports",
	}
	var from, to string
	var states []string
	received := &cobra.Command{
		Use:   "received",
		Short: "Print the samples-received report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				q := url.Values{}
				if from != "" {
					q.Set("from", from)
				}
				if to != "" {
					q.Set("to", to)
				}
				q["state"] = states
				f, err := report.ParseFilter(q, deps.Config.Location)
				if err != nil {
					return err
				}
				if err := f.Validate(deps.Validator); err != nil {
					return err
				}
				model, err := deps.ReportService().SamplesReceived(ctx, f)
				if errors.Is(err, report.ErrEmptyResult) {
					return printJSON(cmd.OutOrStdout(), map[string]any{"data": nil, "notice": report.EmptyNotice})
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), model)
			})
		},
	}
	received.Flags().StringVar(&from, "from", "", "first received day (YYYY-MM-DD)")
	received.Flags().StringVar(&to, "to", "", "last received day (YYYY-MM-DD)")
	received.Flags().StringSliceVar(&states, "state", nil, "sample states to include")
	reportCmd.AddCommand(received)
	return reportCmd
}
