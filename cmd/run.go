package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/config"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/cost"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/pipeline"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/roster"
)

var (
	runInput      string
	runOutput     string
	runAudit      string
	runAuditDB    string
	runMetricsOut string
	runLimit      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full contact pipeline over an input roster",
	Long: `Reads a roster CSV with columns "company", "Root Domain" and "job titles"
(titles are taken from the first row), runs search, enrichment, validation and
contact discovery, and writes the roster joined with every validated contact.

Examples:
  contactgen run --input input.csv --output output.csv
  contactgen run --input input.csv --limit 5 --audit-db audit.db`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyRunFlags(cfg)
		if err := validateAPIKeys(cfg); err != nil {
			return err
		}
		_, err := executeRun(cmd.Context(), cfg)
		return err
	},
}

// applyRunFlags lets explicit flags override the loaded configuration.
func applyRunFlags(c *config.Config) {
	if runAudit != "" {
		c.Audit.CSVPath = runAudit
	}
	if runAuditDB != "" {
		c.Audit.SQLitePath = runAuditDB
	}
}

// executeRun drives one pipeline run end to end and returns its report.
func executeRun(ctx context.Context, c *config.Config) (*pipeline.Report, error) {
	r, err := roster.Read(runInput)
	if err != nil {
		return nil, err
	}
	r.Limit(runLimit)
	zap.L().Info("roster loaded",
		zap.String("path", runInput),
		zap.Int("companies", len(r.Companies)),
		zap.Strings("titles", r.Titles),
	)

	env, err := initPipeline(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "run: init pipeline")
	}
	defer env.Close()

	report, runErr := env.Pipeline.Run(ctx, r.Companies, r.Titles)
	env.Finish(ctx, runErr)

	summary := env.Ledger.Summary(cost.NewCalculator(c.Pricing))
	env.Ledger.Log(summary)

	if runMetricsOut != "" {
		if err := env.Ledger.WriteTextfile(runMetricsOut); err != nil {
			zap.L().Warn("write metrics", zap.Error(err))
		}
	}
	if runErr != nil {
		return report, eris.Wrap(runErr, "run: pipeline")
	}

	if err := roster.Write(runOutput, r, report.Results); err != nil {
		return report, err
	}
	zap.L().Info("results written",
		zap.String("path", runOutput),
		zap.Int("contacts", len(report.Results)),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "input.csv", "input roster CSV")
	runCmd.Flags().StringVar(&runOutput, "output", "output.csv", "output CSV path")
	runCmd.Flags().StringVar(&runAudit, "audit", "", "audit CSV path (overrides audit.csv_path)")
	runCmd.Flags().StringVar(&runAuditDB, "audit-db", "", "SQLite audit database (overrides audit.sqlite_path)")
	runCmd.Flags().StringVar(&runMetricsOut, "metrics-out", "", "write Prometheus metrics to this file after the run")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "process only the first N companies (0 = all)")
	rootCmd.AddCommand(runCmd)
}
