// Package cmd provides the CLI commands for ragmcp.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ragmcp/ragmcp/internal/logging"
	"github.com/ragmcp/ragmcp/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the ragmcp CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragmcp",
		Short: "Hybrid retrieval engine over a local document corpus",
		Long: `ragmcp indexes a directory tree of text documents into a chunk-level
full-text index and a dense-vector store, and answers free-text
queries by fusing BM25 and vector ranking. The serve command exposes
the engine as MCP tools to an external agent.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("ragmcp version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: $RAGMCP_CONFIG or ./config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	// stdout/stderr discipline: the MCP stdio transport owns stdout, so
	// logs go to a rotating file and stderr only.
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
