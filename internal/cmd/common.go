package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/archivist/internal/cache"
	"github.com/harrison/archivist/internal/config"
	"github.com/harrison/archivist/internal/history"
	"github.com/harrison/archivist/internal/logger"
	"github.com/harrison/archivist/internal/models"
	"github.com/harrison/archivist/internal/orchestrator"
)

// addCommonFlags registers the flags shared by the pipeline commands.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", ".", "Source root directory")
	cmd.Flags().String("archive", "", "Archive root directory")
	cmd.Flags().String("config", "", "Path to config file (default: <source>/.archivist/config.yaml)")
	cmd.Flags().Int("concurrency", -1, "Number of parallel workers (-1 = use config)")
	cmd.Flags().String("log-level", "", "Logging verbosity (trace, debug, info, warn, error)")
	cmd.Flags().Float64("confidence-threshold", -1, "Minimum classification confidence (-1 = use config)")
	cmd.Flags().String("model", "", "Model for both pipeline phases (overrides config)")
	cmd.Flags().Bool("no-recursive", false, "Do not walk subdirectories of the source root")
}

// loadMergedConfig loads the config file and merges CLI flags over it.
func loadMergedConfig(cmd *cobra.Command) (*config.Config, error) {
	sourceRoot, _ := cmd.Flags().GetString("source")
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(sourceRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var concurrencyPtr *int
	if cmd.Flags().Changed("concurrency") {
		v, _ := cmd.Flags().GetInt("concurrency")
		concurrencyPtr = &v
	}
	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}
	var recursivePtr *bool
	if cmd.Flags().Changed("no-recursive") {
		noRecursive, _ := cmd.Flags().GetBool("no-recursive")
		recursive := !noRecursive
		recursivePtr = &recursive
	}
	var thresholdPtr *float64
	if cmd.Flags().Changed("confidence-threshold") {
		v, _ := cmd.Flags().GetFloat64("confidence-threshold")
		thresholdPtr = &v
	}
	var modelPtr *string
	if cmd.Flags().Changed("model") {
		v, _ := cmd.Flags().GetString("model")
		modelPtr = &v
	}

	cfg.MergeWithFlags(concurrencyPtr, logLevelPtr, recursivePtr, thresholdPtr, modelPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newOrchestrator assembles the orchestrator for a command, with a progress
// listener writing to the command's output and batch history recording under
// the source root. The returned cleanup closes the history store.
func newOrchestrator(cmd *cobra.Command, cfg *config.Config) (*orchestrator.Orchestrator, func(), error) {
	sourceRoot, _ := cmd.Flags().GetString("source")
	archiveRoot, _ := cmd.Flags().GetString("archive")
	out := cmd.OutOrStdout()
	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)

	hist, err := history.NewStoreForRoot(sourceRoot, cache.DirName)
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}
	cleanup := func() { hist.Close() }

	o, err := orchestrator.New(orchestrator.Params{
		Config:      cfg,
		SourceRoot:  sourceRoot,
		ArchiveRoot: archiveRoot,
		Log:         log,
		History:     hist,
		Listener:    progressListener(out),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return o, cleanup, nil
}

// progressListener prints one line per item as it reaches a terminal status.
func progressListener(out io.Writer) orchestrator.Listener {
	return func(it models.Item) {
		if it.Status.IsTransient() || it.Status == models.StatusPending {
			return
		}
		detail := ""
		switch {
		case it.Status == models.StatusSkipped && it.SkipReason != "":
			detail = " (" + it.SkipReason + ")"
		case it.Status == models.StatusError && it.Error != nil:
			detail = " (" + it.Error.Message + ")"
		case it.Status == models.StatusClassified && it.Classification != nil:
			detail = fmt.Sprintf(" (%s/%s)", it.Classification.Category, it.Classification.ReferenceYear)
		case it.Status == models.StatusMoved && it.Moved != nil:
			detail = " -> " + it.Moved.MovedTo
		}
		fmt.Fprintf(out, "  %-10s %s%s\n", it.Status, it.Identity.RelPath, detail)
	}
}

// signalContext derives a context cancelled by Ctrl-C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printSummary writes the batch summary for a completed operation.
func printSummary(out io.Writer, s *orchestrator.Summary) {
	fmt.Fprintf(out, "\n%s summary:\n", s.Operation)
	fmt.Fprintf(out, "  Eligible:  %d\n", s.Total)
	fmt.Fprintf(out, "  Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(out, "  Skipped:   %d\n", s.Skipped)
	fmt.Fprintf(out, "  Errored:   %d\n", s.Errored)
	if s.Cached > 0 {
		fmt.Fprintf(out, "  Cached:    %d\n", s.Cached)
	}
	if s.Cancelled > 0 {
		fmt.Fprintf(out, "  Cancelled: %d\n", s.Cancelled)
	}
	fmt.Fprintf(out, "  Duration:  %s\n", s.Duration.Round(time.Millisecond))
}

// confirmAction prompts the user for confirmation on stdin.
func confirmAction(out io.Writer, in io.Reader) bool {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "Continue? [y/N]: ")
	if !scanner.Scan() {
		return false
	}
	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}
