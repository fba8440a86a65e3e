package cmd

import (
	"github.com/spf13/cobra"
	"s3download/config"
)

var (
	cfg *config.Config
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "s3download <bucketName> <comma-separated-source-files-list-or-single-file> <comma-separated-target-folders-list-or-single-folder> <accessKeyId> <secretAccessKey> <serviceURL>",
		Short: "Download objects from an S3 compatible store into one or more folders",
		Long: `s3download downloads every listed object into every listed folder at the same time,
showing one progress line per destination file.

Files that already exist in a target folder are skipped. A failed download is reported
and does not stop the others. Defaults for the optional flags are read from a .env file
or environment variables.`,
		Example: `  # Download two objects into two folders
  s3download my-bucket a.bin,b.bin /data/one,/data/two AKIA... secret localhost:9000

  # Use HTTPS, at most 4 downloads at a time, and print a table of outcomes
  s3download my-bucket a.bin /data AKIA... secret s3.example.com --secure --concurrency 4 --report table`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDownload,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	addDownloadFlags(rootCmd, cfg)

	return rootCmd
}

func Execute(config *config.Config) error {
	cfg = config
	return newRootCmd().Execute()
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}
