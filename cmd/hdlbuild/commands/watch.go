package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/hdlbuild/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <project-file>",
		Short: "Build the project, then rebuild sources as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clean, _ := cmd.Flags().GetBool("clean")
			metricsFile, _ := cmd.Flags().GetString("metrics-file")
			return c.app.Watch(cmd.Context(), args[0], app.WatchOptions{
				Clean:       clean,
				MetricsFile: metricsFile,
			})
		},
	}
	cmd.Flags().BoolP("clean", "c", false, "Remove the saved state and the target directory first")
	return cmd
}
