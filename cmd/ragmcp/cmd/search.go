package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ragmcp/ragmcp/internal/search"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

func newSearchCmd() *cobra.Command {
	var k int
	var namespace string
	var entity string
	var minScore float64
	var plain bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search against the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			query := strings.Join(args, " ")
			if k <= 0 {
				k = a.cfg.Search.DefaultK
			}
			if minScore < 0 {
				minScore = float64(a.cfg.Search.MinScore)
			}

			filter := search.Filter{EntityName: entity}
			if namespace != "" && namespace != "all" {
				filter.Namespace = namespace
			}

			results, err := search.HybridSearch(ctx, a.db, a.chunkCache, a.embedder, query, filter, k, minScore, search.Weights{
				BM25:   float64(a.cfg.Search.HybridBM25Weight),
				Vector: float64(a.cfg.Search.HybridVectorWeight),
			})
			if err != nil {
				return err
			}

			color := !plain && isatty.IsTerminal(os.Stdout.Fd())
			out := cmd.OutOrStdout()

			if len(results) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for _, r := range results {
				if color {
					fmt.Fprintf(out, "%s%d. %s%s (%.3f)\n", ansiBold, r.Rank, r.DocPath, ansiReset, r.Score)
				} else {
					fmt.Fprintf(out, "%d. %s (%.3f)\n", r.Rank, r.DocPath, r.Score)
				}
				if r.SectionHeader != "" {
					if color {
						fmt.Fprintf(out, "   %s%s%s\n", ansiDim, r.SectionHeader, ansiReset)
					} else {
						fmt.Fprintf(out, "   %s\n", r.SectionHeader)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "limit", "k", 0, "Number of results (default from config)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Filter by namespace ('all' for every namespace)")
	cmd.Flags().StringVar(&entity, "entity", "", "Filter by entity name")
	cmd.Flags().Float64Var(&minScore, "min-score", -1, "Minimum score in [0,1] (default from config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable colored output")

	return cmd
}
