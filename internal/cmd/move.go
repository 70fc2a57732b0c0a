package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/archivist/internal/models"
	"github.com/harrison/archivist/internal/orchestrator"
)

// NewMoveCommand creates the move command
func NewMoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move classified files into the archive",
		Long: `Move relocates classified files into {archive}/{category}/{year} (or the
undated bucket), renaming them to their proposed archive name. Every move
is appended to the archive's audit log before the caches are updated.

Moves never run unattended: pass --yes or answer the confirmation prompt.
Name collisions get a deterministic suffix; existing files are never
overwritten. A failed move leaves the source file untouched.

Examples:
  archivist move --source ~/inbox --archive ~/archive --yes
  archivist move --source ~/inbox --archive ~/archive --include-unclassified --yes`,
		Args: cobra.NoArgs,
		RunE: runMove,
	}
	addCommonFlags(cmd)
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	cmd.Flags().Bool("include-unclassified", false, "Also move skipped and errored files into the unknown/undated bucket")
	return cmd
}

func runMove(cmd *cobra.Command, args []string) error {
	archiveRoot, _ := cmd.Flags().GetString("archive")
	if archiveRoot == "" {
		return fmt.Errorf("move requires --archive")
	}

	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	o, cleanup, err := newOrchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	includeUnclassified, _ := cmd.Flags().GetBool("include-unclassified")
	out := cmd.OutOrStdout()

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		classified := 0
		other := 0
		for _, entry := range o.SourceCache().Entries() {
			switch entry.Status {
			case models.StatusClassified:
				classified++
			case models.StatusSkipped, models.StatusError:
				other++
			}
		}
		fmt.Fprintf(out, "This will move %d classified file(s)", classified)
		if includeUnclassified {
			fmt.Fprintf(out, " and %d unclassified file(s)", other)
		}
		fmt.Fprintf(out, " into %s.\n", archiveRoot)
		if !confirmAction(out, cmd.InOrStdin()) {
			fmt.Fprintf(out, "Operation cancelled.\n")
			return nil
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	summary, err := o.Move(ctx, orchestrator.MoveOptions{IncludeUnclassified: includeUnclassified})
	if err != nil {
		return err
	}
	printSummary(out, summary)
	return nil
}
