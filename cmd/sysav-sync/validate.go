package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/auto-dns/sysav-sync/internal/app"
	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Look up every configured address once and report the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cmd.Context().Value(configKey).(*config.Config)
		logInstance := logger.SetupLogger(&cfg.Logging)

		ctx, cancel := signalContext(logInstance)
		defer cancel()

		results := app.ValidateAddresses(ctx, cfg, logInstance)
		if failed := printResults(cmd.OutOrStdout(), results); failed > 0 {
			return fmt.Errorf("%d of %d address(es) failed validation", failed, len(results))
		}
		return nil
	},
}

func printResults(w io.Writer, results []app.ValidationResult) int {
	failed := 0
	for _, r := range results {
		fmt.Fprintf(w, "%s [%s] %s\n", r.Address.ID(), r.Status, r.Address.Render())
		if r.Status != app.StatusOK {
			failed++
			fmt.Fprintf(w, "  error: %v\n", r.Err)
			continue
		}
		for _, cd := range r.Schedule.Entries() {
			date := cd.ISODate()
			if date == "" {
				date = "-"
			}
			fmt.Fprintf(w, "  %s: %s\n", cd.Label, date)
		}
	}
	return failed
}
