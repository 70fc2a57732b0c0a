package cmd

import (
	"github.com/spf13/cobra"
)

// NewClassifyCommand creates the classify command
func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Assign a taxonomy category and archive name to scanned files",
		Long: `Classify sends each scanned file's facts to the model together with the
taxonomy and records the chosen category, reference year, and a proposed
archive filename.

Output that fails validation, names a category outside the taxonomy, or
falls below the confidence threshold is recorded as skipped with the
reason. Already-classified files are left alone; use "archivist reset
--unclassify" to redo them.

Examples:
  archivist classify --source ~/inbox
  archivist classify --source ~/inbox --confidence-threshold 0.5`,
		Args: cobra.NoArgs,
		RunE: runClassify,
	}
	addCommonFlags(cmd)
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
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

	summary, err := o.Classify(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}
