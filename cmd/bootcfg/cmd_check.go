package main

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/cli"
	"github.com/newtron-network/bootcfg/pkg/metrics"
)

var (
	checkEnv         envFlags
	checkJobs        int
	checkMetricsFile string
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate many config files and report a status table",
	Long: `Validate several bootstrap configuration files in parallel.

Every file is validated with the same config type and environment. A status
table is printed and the command fails if any file fails, listing every
failure.

Examples:
  bootcfg check --offboard configs/*.ini
  bootcfg check --type subcloud -j 4 subclouds/*.ini
  bootcfg check --offboard --metrics-file /var/lib/node_exporter/bootcfg.prom configs/*.ini`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, env, err := checkEnv.resolve()
		if err != nil {
			return err
		}

		results, err := checkFiles(cmd.Context(), args, ct, env, checkJobs)
		if err != nil {
			return err
		}

		rec := metrics.NewRecorder()
		for _, r := range results {
			recordEvent(audit.OpCheck, r, "")
			rec.Observe(ct.String(), metricResult(r), r.Section(), r.Duration)
		}
		rec.Finish(time.Now())
		if checkMetricsFile != "" {
			if err := rec.WriteTextfile(checkMetricsFile); err != nil {
				return err
			}
		}

		printCheckTable(cmd.OutOrStdout(), results)
		return checkErrors(results)
	},
}

func init() {
	addEnvFlags(checkCmd, &checkEnv)
	checkCmd.Flags().IntVarP(&checkJobs, "jobs", "j", 0, "Files validated in parallel (default: number of CPUs)")
	checkCmd.Flags().StringVar(&checkMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
}

func metricResult(r *fileResult) string {
	switch {
	case r.OK():
		return metrics.ResultSuccess
	case r.Loaded():
		return metrics.ResultFailure
	}
	return metrics.ResultError
}

func printCheckTable(w io.Writer, results []*fileResult) {
	t := cli.NewTable("FILE", "MODE", "STATUS", "DETAIL").WithWriter(w)
	passed := 0
	for _, r := range results {
		detail := ""
		if r.OK() {
			passed++
		} else {
			detail = cli.FirstLine(r.Err.Error())
		}
		mode := r.Mode
		if mode == "" {
			mode = "-"
		}
		t.Row(r.Path, mode, cli.Status(r.OK()), detail)
	}
	t.Flush()

	summary := fmt.Sprintf("%d of %d files valid", passed, len(results))
	if passed == len(results) {
		summary = cli.Green(summary)
	} else {
		summary = cli.Red(summary)
	}
	fmt.Fprintf(w, "\n%s\n", summary)
}

// checkErrors joins the failures of results, or returns nil when all passed
func checkErrors(results []*fileResult) error {
	var merr *multierror.Error
	for _, r := range results {
		switch {
		case r.OK():
		case r.Loaded():
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Path, r.Err))
		default:
			// read errors already name the file
			merr = multierror.Append(merr, r.Err)
		}
	}
	return merr.ErrorOrNil()
}
