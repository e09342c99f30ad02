package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tanq16/dw/internal/output"
)

type BatchEntry struct {
	OutputPath string `yaml:"op,omitempty"`
	Link       string `yaml:"link"`
	Force      bool   `yaml:"force,omitempty"`
}

// BatchFile groups entries by source type. Only HTTP sources are downloaded.
type BatchFile map[string][]BatchEntry

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [OPTIONS]",
		Short: "Process multiple downloads from a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				output.PrintError(os.Stderr, fmt.Sprintf("Error reading YAML file: %v", err))
				os.Exit(1)
			}
			var batchFile BatchFile
			if err := yaml.Unmarshal(data, &batchFile); err != nil {
				output.PrintError(os.Stderr, fmt.Sprintf("Error parsing YAML file: %v", err))
				os.Exit(1)
			}
			entries := entriesFromBatch(batchFile, force)
			if len(entries) == 0 {
				output.PrintError(os.Stderr, "No valid entries found in the batch file")
				os.Exit(1)
			}
			os.Exit(runEntries(entries))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite every destination that already exists")
	return cmd
}

func entriesFromBatch(batchFile BatchFile, forceAll bool) []entry {
	var entries []entry
	for section, items := range batchFile {
		if !isHTTPSection(section) {
			output.PrintWarning(os.Stderr, fmt.Sprintf("Unknown section '%s', skipping...", section))
			continue
		}
		for _, item := range items {
			if item.Link == "" {
				output.PrintWarning(os.Stderr, fmt.Sprintf("Empty link found in %s section, skipping...", section))
				continue
			}
			entries = append(entries, entry{
				URL:    item.Link,
				Output: item.OutputPath,
				Force:  item.Force || forceAll,
			})
		}
	}
	return entries
}

func isHTTPSection(name string) bool {
	switch strings.ToLower(name) {
	case "http", "https", "downloads":
		return true
	}
	return false
}
