package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command
func NewResetCommand() *cobra.Command {
	var resetAll bool
	var unclassify bool

	cmd := &cobra.Command{
		Use:   "reset [relative-path...]",
		Short: "Forget cached results so files are reprocessed",
		Long: `Reset invalidates cached results. A reset file starts over as pending on
the next scan. With --unclassify, classified files return to scanned
instead, keeping their facts so only the classify phase is redone.

Examples:
  # Reset two files (requires confirmation)
  archivist reset --source ~/inbox "bills/gas march.pdf" "misc/photo.jpg"

  # Reset everything under the source root
  archivist reset --source ~/inbox --all

  # Redo classification only, keeping the scanned facts
  archivist reset --source ~/inbox --unclassify "bills/gas march.pdf"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if resetAll && len(args) > 0 {
				return fmt.Errorf("cannot specify paths when using --all flag")
			}
			if !resetAll && len(args) == 0 {
				return fmt.Errorf("requires path arguments or --all flag")
			}
			if resetAll && unclassify {
				return fmt.Errorf("cannot use both --all and --unclassify")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, args, resetAll, unclassify)
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().BoolVar(&resetAll, "all", false, "Reset every cached result for the source root")
	cmd.Flags().BoolVar(&unclassify, "unclassify", false, "Return classified files to scanned, keeping facts")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	return cmd
}

func runReset(cmd *cobra.Command, args []string, resetAll, unclassify bool) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}

	o, cleanup, err := newOrchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()

	if unclassify {
		if err := o.Unclassify(args); err != nil {
			return err
		}
		fmt.Fprintf(out, "Unclassified %d file(s).\n", len(args))
		return nil
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if resetAll {
		if !yes {
			fmt.Fprintf(out, "This will forget ALL cached results for the source root.\n")
			if !confirmAction(out, cmd.InOrStdin()) {
				fmt.Fprintf(out, "Operation cancelled.\n")
				return nil
			}
		}
		if err := o.Reset(nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "Cache cleared.\n")
		return nil
	}

	if err := o.Reset(args); err != nil {
		return err
	}
	fmt.Fprintf(out, "Reset %d file(s).\n", len(args))
	return nil
}
