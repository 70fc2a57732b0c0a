package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for archivist
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archivist",
		Short: "Turn a folder of documents into a structured archive",
		Long: `Archivist runs every file in a source folder through a two-phase pipeline:
content extraction plus model-derived facts, then taxonomy-driven
classification. Approved files are moved into {category}/{year} folders
under an archive root, with an append-only audit log.

Results are cached per file identity (path, size, mtime), so re-running a
command only processes files that are new or changed.

Configuration is loaded from <source>/.archivist/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewClassifyCommand())
	cmd.AddCommand(NewMoveCommand())
	cmd.AddCommand(NewReportCommand())
	cmd.AddCommand(NewResetCommand())

	return cmd
}
