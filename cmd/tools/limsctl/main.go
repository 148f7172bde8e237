// Command limsctl runs operator tasks against the LIMS database.
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-lims/internal/app"
	"github.com/noah-isme/backend-lims/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "limsctl",
		Short:        "Operator tooling for the LIMS backend",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newInvoiceCmd(), newReportCmd())
	return root
}

// withDeps loads configuration, connects and runs fn with a bounded context.
func withDeps(cmd *cobra.Command, fn func(ctx context.Context, deps *app.Dependencies) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	deps, err := app.New(ctx, cfg, "limsctl")
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())
	return fn(ctx, deps)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
