package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var cleanup bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one incremental ingestion pass over the configured root",
		Long: `Ingest discovers files under rag_folder, classifies each as new,
modified, or unchanged against the stored content hashes, and
re-indexes only what changed. Per-file failures are reported but do
not abort the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			a.pipeline.Cleanup = cleanup
			summary, err := a.pipeline.Run(ctx, a.cfg.Ragmcp.RagFolder)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested: %d\n", len(summary.Ingested))
			fmt.Fprintf(out, "Deleted:  %d\n", len(summary.Deleted))
			fmt.Fprintf(out, "Failed:   %d\n", len(summary.Failed))

			if len(summary.Failed) > 0 {
				paths := make([]string, 0, len(summary.Failed))
				for p := range summary.Failed {
					paths = append(paths, p)
				}
				sort.Strings(paths)
				for _, p := range paths {
					fmt.Fprintf(out, "  %s: %v\n", p, summary.Failed[p])
				}
				// Partial failure: successful files stay indexed, the exit
				// code just flags that some did not make it.
				return fmt.Errorf("%d file(s) failed to ingest", len(summary.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Delete documents whose source file no longer exists")

	return cmd
}
