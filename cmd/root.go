package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanq16/dw/internal/output"
	"github.com/tanq16/dw/internal/utils"
)

var (
	outputPath     string
	urlListFile    string
	workers        int
	force          bool
	silent         bool
	configPath     string
	timeout        time.Duration
	connectTimeout time.Duration
	logFile        string
	debug          bool
	metricsAddr    string
)

var DWVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "dw [URL] [flags]",
	Short:   "dw downloads files over HTTP, several at a time",
	Version: DWVersion,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && urlListFile == "" {
			output.PrintError(os.Stderr, "No URL or URL list provided")
			cmd.Usage()
			os.Exit(1)
		}
		if urlListFile != "" && len(args) > 0 {
			output.PrintError(os.Stderr, "Cannot specify url argument and --urllist together, choose one")
			os.Exit(1)
		}
		var urls []string
		if len(args) > 0 {
			urls = args
		} else {
			var err error
			urls, err = utils.ReadURLList(urlListFile)
			if err != nil {
				output.PrintError(os.Stderr, err.Error())
				os.Exit(1)
			}
			if len(urls) == 0 {
				output.PrintError(os.Stderr, "URL list is empty")
				os.Exit(1)
			}
		}
		entries := make([]entry, 0, len(urls))
		for _, u := range urls {
			entries = append(entries, entry{URL: u, Force: force})
		}
		os.Exit(runEntries(entries))
	},
}

func Execute() {
	rootCmd.AddCommand(newBatchCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (file name is derived from the URL for directories)")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to a file with one URL per line")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite destination files that already exist")

	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Number of downloads running in parallel (default from config, 5)")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "Silent mode, no progress or summary output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Use this config file instead of the default locations")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Whole request timeout (eg. 30s, 5m)")
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 0, "Connection timeout (eg. 5s)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (use "+utils.LogFile+" for the default)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while downloading (eg. :9090)")
}
