// Package cmd provides the CLI commands for aidocs.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/config"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/logging"
	"github.com/Sergey0703/aidocsbackend-sub002/pkg/version"
)

var (
	configPath     string
	logLevel       string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the aidocs CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aidocs",
		Short: "Document ingestion and retrieval-augmented QA",
		Long: `aidocs indexes a directory of documents and answers questions over
them with hybrid retrieval: dense-vector, keyword, and exact-entity
search fused into one ranked list, optionally re-ranked by a local LLM.

Run 'aidocs index' to build the index, then 'aidocs search' or
'aidocs ask'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("aidocs version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: .aidocs.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" {
			if cfg, err := config.Load(configPath); err == nil {
				level = cfg.Logging.Level
			}
		}
		cleanup, err := logging.SetupDefault(level)
		if err == nil {
			loggingCleanup = cleanup
		}
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
