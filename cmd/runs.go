package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

var runsDB string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect runs recorded in the audit database",
	Long:  "Commands for viewing a run's counters and its audit trail. Requires a run made with --audit-db or audit.sqlite_path.",
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show status and stage counters of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path, err := auditDBPath()
		if err != nil {
			return err
		}
		st, err := initStore(ctx, path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs audit --

var runsAuditCmd = &cobra.Command{
	Use:   "audit <run-id>",
	Short: "List every dropped or flagged query of a run with its reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path, err := auditDBPath()
		if err != nil {
			return err
		}
		st, err := initStore(ctx, path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListAudit(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs audit")
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No audit entries found.")
			return nil
		}

		formatAuditList(os.Stdout, entries)
		return nil
	},
}

func auditDBPath() (string, error) {
	if runsDB != "" {
		return runsDB, nil
	}
	if cfg != nil && cfg.Audit.SQLitePath != "" {
		return cfg.Audit.SQLitePath, nil
	}
	return "", eris.New("runs: no audit database configured (use --audit-db)")
}

// formatAuditList writes entries as an aligned table.
func formatAuditList(w io.Writer, entries []model.AuditEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tQUERY\tREASON")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", truncateID(e.Key.String()), e.Query, e.Reason)
	}
	tw.Flush() //nolint:errcheck
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "audit-db", "", "SQLite audit database (default audit.sqlite_path)")
	runsCmd.AddCommand(runsShowCmd, runsAuditCmd)
	rootCmd.AddCommand(runsCmd)
}
