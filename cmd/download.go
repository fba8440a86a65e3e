package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"s3download/config"
	"s3download/internal/downloader"
	"s3download/internal/progress"
	"s3download/internal/s3client"
	"s3download/pkg/utils"
)

const usageText = "Usage: s3download <bucketName> <comma-separated-source-files-list-or-single-file> " +
	"<comma-separated-target-folders-list-or-single-folder> <accessKeyId> <secretAccessKey> <serviceURL>"

const (
	reportNone  = "none"
	reportJSON  = "json"
	reportTable = "table"
)

// ErrDownloadsFailed is returned with --fail-on-error when at least one download failed.
var ErrDownloadsFailed = errors.New("one or more downloads failed")

var newTransfer = func(cfg *config.Config) (downloader.Transfer, error) {
	opts := s3client.OptionsFromConfig(cfg)
	if cfg.Engine == config.EngineMinio {
		return s3client.NewMinio(opts)
	}
	return s3client.NewWithOptions(context.Background(), opts)
}

// addDownloadFlags registers the optional flags with defaults taken from the
// loaded configuration, so --help shows what a run would actually use.
func addDownloadFlags(cmd *cobra.Command, defaults *config.Config) {
	if defaults == nil {
		defaults = &config.Config{}
	}
	cmd.Flags().String("engine", defaults.Engine, "Transfer engine: aws or minio")
	cmd.Flags().String("region", defaults.Region, "Region used to sign requests")
	cmd.Flags().Bool("secure", !defaults.UseHTTP, "Use HTTPS when the service URL has no scheme")
	cmd.Flags().Int("max-retries", defaults.MaxRetries, "Retries per request before a download fails")
	cmd.Flags().Int("concurrency", defaults.Concurrency, "Maximum downloads in flight (0: no limit)")
	cmd.Flags().Int64("part-size", defaults.PartSizeMB, "Multipart download part size in MiB")
	cmd.Flags().String("report", defaults.Report, "Print a run report after the summary: none, json or table")
	cmd.Flags().Bool("fail-on-error", false, "Exit with an error status when any download failed")
}

// applyFlags overrides configuration values with the flags set on the command line.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("region") {
		cfg.Region, _ = flags.GetString("region")
	}
	if flags.Changed("secure") {
		secure, _ := flags.GetBool("secure")
		cfg.UseHTTP = !secure
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("part-size") {
		cfg.PartSizeMB, _ = flags.GetInt64("part-size")
	}
	if flags.Changed("report") {
		cfg.Report, _ = flags.GetString("report")
	}
}

func runDownload(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) != config.RequiredArgs {
		fmt.Fprintln(out, usageText)
		return nil
	}

	if err := cfg.ApplyArgs(args); err != nil {
		utils.PrintError(err, "download")
		return err
	}
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		utils.PrintError(err, "download")
		return err
	}
	if cfg.Report != reportNone && cfg.Report != reportJSON && cfg.Report != reportTable {
		err := fmt.Errorf("unknown report format %q", cfg.Report)
		utils.PrintError(err, "download")
		return err
	}

	level := slog.LevelWarn
	if isVerbose(cmd) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	transfer, err := newTransfer(cfg)
	if err != nil {
		utils.PrintError(err, "download")
		return err
	}

	logger.Debug("starting download operation",
		"bucket", cfg.BucketName,
		"files", cfg.Files,
		"folders", cfg.Folders,
		"engine", cfg.Engine,
		"endpoint", s3client.NormalizeEndpoint(cfg.ApiURL, cfg.UseHTTP),
	)

	board := progress.NewBoard(out)
	orchestrator := downloader.New(transfer, board, out,
		downloader.WithConcurrency(cfg.Concurrency),
		downloader.WithLogger(logger),
	)

	result := orchestrator.Run(context.Background(), downloader.Plan{
		Bucket:  cfg.BucketName,
		Files:   cfg.Files,
		Folders: cfg.Folders,
	})

	switch cfg.Report {
	case reportJSON:
		if err := utils.PrintJSON(result); err != nil {
			utils.PrintError(err, "download")
		}
	case reportTable:
		utils.RenderTable(out, result)
	}

	if failOnError, _ := cmd.Flags().GetBool("fail-on-error"); failOnError && result.HasFailures() {
		return fmt.Errorf("%w: %d of %d", ErrDownloadsFailed, result.FailedFiles, result.TotalFiles)
	}
	return nil
}
