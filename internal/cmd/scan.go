package cmd

import (
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Extract content and derive facts for new or changed files",
		Long: `Scan walks the source root, extracts text from each pending file, and asks
the model for a short summary and a reference-year hint (the "facts" phase).

Files whose cached result is still valid (same path, size, and mtime) are
not re-processed. Files with no usable content, or whose model output fails
validation, are recorded as skipped; I/O and backend failures are recorded
as errors and re-tried on the next scan.

Examples:
  archivist scan --source ~/inbox
  archivist scan --source ~/inbox --concurrency 6
  archivist scan --source ~/inbox --model llama3.1:8b`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	addCommonFlags(cmd)
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	o, cleanup, err := newOrchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	summary, err := o.Scan(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}
