package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	internal "github.com/bryanbarcelona/brybox/internal"
	"github.com/bryanbarcelona/brybox/internal/config"
	"github.com/bryanbarcelona/brybox/internal/events"
	"github.com/bryanbarcelona/brybox/internal/ingest"
	"github.com/bryanbarcelona/brybox/internal/ingest/dedup"
	"github.com/bryanbarcelona/brybox/internal/ingest/exif"
	"github.com/bryanbarcelona/brybox/internal/ingest/interfaces"
	"github.com/bryanbarcelona/brybox/internal/ingest/options"
	"github.com/bryanbarcelona/brybox/internal/ingest/sidecars"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := internal.GetLogger()
		logger.Error().Err(err).Msg("brybox failed")
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "brybox",
	Short:   "Personal media ingestion toolbox",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Stage, deduplicate and de-collide photos from a camera roll",
	Long: `Push copies every primary image in the source directory into the target
directory under collision-safe temporary names, bringing Apple sidecar
files (.aae, .mov, .xmp and their "._" resource forks) along with renamed
stems. Byte-identical staged copies are removed and overlapping EXIF
capture timestamps are nudged apart so downstream tools sort reliably.`,
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	pc := cfg.Brybox.PixelPorter

	opts := options.DefaultPushOptions()
	opts.SourceDir = pc.SourceDir
	opts.TargetDir = pc.TargetDir
	opts.MigrateSidecars = pc.MigrateSidecars
	opts.UniqueTimestamps = pc.UniqueTimestamps
	if pc.IgnoreFile != "" {
		opts.IgnoreFile = pc.IgnoreFile
	}

	if v, _ := cmd.Flags().GetString("source"); v != "" {
		opts.SourceDir = v
	}
	if v, _ := cmd.Flags().GetString("target"); v != "" {
		opts.TargetDir = v
	}
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	if noSidecars, _ := cmd.Flags().GetBool("no-sidecars"); noSidecars {
		opts.MigrateSidecars = false
	}
	if noTimestamps, _ := cmd.Flags().GetBool("no-timestamps"); noTimestamps {
		opts.UniqueTimestamps = false
	}

	deduplicate := pc.Deduplicate
	if noDedup, _ := cmd.Flags().GetBool("no-dedup"); noDedup {
		deduplicate = false
	}

	var deduper interfaces.Deduplicator
	if deduplicate {
		dedupOpts := options.DefaultDedupOptions()
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			dedupOpts.Workers = workers
		} else if pc.Workers > 0 {
			dedupOpts.Workers = pc.Workers
		}
		deduper = dedup.NewHashDeduplicator(nil, dedupOpts)
	}

	var timestampTool interfaces.TimestampTool
	if opts.UniqueTimestamps {
		tool, err := exif.NewTool(pc.ExifToolPath)
		if err != nil {
			slog.Warn("exiftool not available, timestamp adjustments disabled", "error", err)
		} else {
			timestampTool = tool
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bus *events.Bus
	var verifier *events.DirectoryVerifier
	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		bus = events.NewBus()
		verifier, err = events.NewDirectoryVerifier(bus, opts.SourceDir, opts.TargetDir)
		if err != nil {
			return fmt.Errorf("initializing directory verifier: %w", err)
		}
		defer verifier.Close()
	}

	porter := ingest.NewPixelPorter(bus, sidecars.NewResolver(), deduper, timestampTool, nil)
	result, err := porter.Push(ctx, opts)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	fmt.Printf("Processed: %d  Skipped: %d  Duplicates removed: %d  Failed: %d  (%s)\n",
		result.Processed, result.Skipped, result.DuplicatesRemoved, result.Failed,
		result.Duration.Round(time.Millisecond))

	if verifier != nil {
		ok, err := verifier.Report()
		if err != nil {
			return fmt.Errorf("verifying directories: %w", err)
		}
		if !ok {
			return errors.New("directory verification found discrepancies")
		}
		stats := verifier.Stats()
		fmt.Printf("Verification passed (%d copies, %d moves, %d deletions tracked)\n",
			stats.CopiesTracked, stats.MovesTracked, stats.DeletionsTracked)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", result.Failed)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringP("source", "s", "", "Directory to ingest photos from")
	pushCmd.Flags().StringP("target", "t", "", "Directory staged photos land in")
	pushCmd.Flags().String("config", "", "Path to a config file")
	pushCmd.Flags().Bool("dry-run", false, "Log planned operations without touching files")
	pushCmd.Flags().Bool("verify", false, "Audit directory state against published events after the run")
	pushCmd.Flags().Bool("no-sidecars", false, "Leave sidecar files behind")
	pushCmd.Flags().Bool("no-dedup", false, "Keep byte-identical duplicates")
	pushCmd.Flags().Bool("no-timestamps", false, "Skip EXIF timestamp uniqueness")
	pushCmd.Flags().Int("workers", 0, "Fingerprinting workers (defaults to CPU count)")
}
