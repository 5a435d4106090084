package cli

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{"version": version, "commit": commit, "go": runtime.Version()}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, info)
			}
			PrintTable(os.Stdout, []string{"version", "commit", "go"},
				[][]string{{info["version"], info["commit"], info["go"]}})
			return nil
		},
	}
}
