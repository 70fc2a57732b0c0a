package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/archivist/internal/models"
)

// NewReportCommand creates the report command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show pipeline state and batch history",
		Long: `Report prints the per-status breakdown of the source cache, the most
recent batch runs, and the number of recorded archive moves.

Examples:
  archivist report --source ~/inbox
  archivist report --source ~/inbox --archive ~/archive --runs 5`,
		Args: cobra.NoArgs,
		RunE: runReport,
	}
	addCommonFlags(cmd)
	cmd.Flags().Int("runs", 10, "Number of recent batch runs to show")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	o, cleanup, err := newOrchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runLimit, _ := cmd.Flags().GetInt("runs")
	report, err := o.BuildReport(cmd.Context(), runLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Cache state (%d files):\n", len(report.Entries))
	for _, status := range []models.Status{
		models.StatusPending,
		models.StatusScanned,
		models.StatusClassified,
		models.StatusSkipped,
		models.StatusError,
		models.StatusMoved,
	} {
		if n := report.StatusCounts[status]; n > 0 {
			fmt.Fprintf(out, "  %-10s %d\n", status, n)
		}
	}

	if report.MoveCount > 0 {
		fmt.Fprintf(out, "\nArchive move log: %d record(s)\n", report.MoveCount)
	}

	if len(report.Runs) > 0 {
		fmt.Fprintf(out, "\nRecent runs:\n")
		for _, run := range report.Runs {
			fmt.Fprintf(out, "  %s  %-8s total=%d ok=%d skip=%d err=%d cached=%d (%s)\n",
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Operation,
				run.Total,
				run.Succeeded,
				run.Skipped,
				run.Errored,
				run.Cached,
				run.Duration.Round(time.Millisecond))
		}
	}

	return nil
}
