package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View audit logs of validation and publish runs.

Every validate, check and publish run is logged with:
  - Timestamp
  - User who ran it
  - Input file and config type
  - Deployment mode it resolved to
  - Success, or the failure and the section it names

Examples:
  bootcfg audit list --last 24h
  bootcfg audit list --user alice --failures
  bootcfg audit list --operation publish --json`,
}

var (
	auditUser      string
	auditOperation string
	auditSource    string
	auditLast      string
	auditLimit     int
	auditFailures  bool
	auditJSON      bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			User:        auditUser,
			Operation:   audit.Operation(auditOperation),
			Source:      auditSource,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}
		if auditSource != "" {
			if abs, err := filepath.Abs(auditSource); err == nil {
				filter.Source = abs
			}
		}

		// Parse --last duration
		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		w := cmd.OutOrStdout()
		if auditJSON {
			return json.NewEncoder(w).Encode(events)
		}
		if len(events) == 0 {
			fmt.Fprintln(w, "No audit events found")
			return nil
		}
		printAuditTable(w, events)
		return nil
	},
}

func printAuditTable(w io.Writer, events []*audit.Event) {
	t := cli.NewTable("TIMESTAMP", "USER", "OPERATION", "SOURCE", "TYPE", "STATUS", "DETAIL").WithWriter(w)
	for _, ev := range events {
		status := cli.Green("ok")
		detail := ev.SystemMode
		if !ev.Success {
			status = cli.Red("failed")
			detail = cli.FirstLine(ev.Error)
			if ev.Section != "" {
				detail = "[" + ev.Section + "] " + detail
			}
		}
		t.Row(
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			ev.User,
			string(ev.Operation),
			ev.Source,
			ev.ConfigType,
			status,
			detail,
		)
	}
	t.Flush()
}

func init() {
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "Filter by user")
	auditListCmd.Flags().StringVar(&auditOperation, "operation", "", "Filter by operation (validate, check, publish)")
	auditListCmd.Flags().StringVar(&auditSource, "source", "", "Filter by input file")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed runs")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditListCmd)
}
