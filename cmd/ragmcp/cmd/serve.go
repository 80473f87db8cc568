package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragmcp/ragmcp/internal/mcp"
	"github.com/ragmcp/ragmcp/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var noWatch bool
	var skipIngest bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index as MCP tools over stdio",
		Long: `Serve runs an initial incremental ingestion pass, starts the live
file watcher, and then speaks the MCP protocol on stdio. stdout is
reserved for protocol frames; all diagnostics go to the log file and
stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), noWatch, skipIngest)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the live file watcher")
	cmd.Flags().BoolVar(&skipIngest, "skip-ingest", false, "Skip the startup ingestion pass")

	return cmd
}

func runServe(ctx context.Context, noWatch, skipIngest bool) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !skipIngest {
		summary, err := a.pipeline.Run(ctx, a.cfg.Ragmcp.RagFolder)
		if err != nil {
			return err
		}
		a.logger.Info("startup ingestion complete",
			slog.Int("ingested", len(summary.Ingested)),
			slog.Int("failed", len(summary.Failed)))
	}

	server, err := mcp.NewServer(a.db, a.embedder, a.chunkCache, a.pipeline, a.registry, a.cfg, a.logger)
	if err != nil {
		return err
	}

	if !noWatch {
		window := time.Duration(a.cfg.Performance.WatchDebounceMS) * time.Millisecond
		w, err := watcher.New(a.cfg.Ragmcp.RagFolder, window, a.logger)
		if err != nil {
			// Watch is best-effort: the engine still serves queries and
			// tool-driven writes without it.
			a.logger.Warn("file watcher unavailable", slog.Any("error", err))
		} else {
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			loop := &watcher.Loop{
				Root:     a.cfg.Ragmcp.RagFolder,
				Pipeline: a.pipeline,
				Logger:   a.logger,
			}
			go func() {
				if err := w.Run(watchCtx); err != nil {
					a.logger.Warn("file watcher stopped", slog.Any("error", err))
				}
			}()
			go loop.Run(watchCtx, w.Events())
		}
	}

	return server.Serve(ctx, "stdio")
}
