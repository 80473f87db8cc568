package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ragmcp/ragmcp/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragmcp %s (%s/%s, %s)\n",
				version.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
}
