// Package commands implements the CLI commands for hdlbuild.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/hdlbuild/internal/app"
	"go.trai.ch/hdlbuild/internal/build"
	"go.trai.ch/hdlbuild/internal/ui/output"
)

// CLI represents the command line interface for hdlbuild.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, projectFile string, opts app.RunOptions) error
	Watch(ctx context.Context, projectFile string, opts app.WatchOptions) error
	Check(ctx context.Context, files []string) error
	ConfigureLogging(verbosity int, jsonOutput bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:   "hdlbuild <project-file>",
		Short: "An incremental build scheduler for VHDL projects",
		Long: `hdlbuild compiles the VHDL sources listed in a project file in dependency
order, skipping sources that did not change since their last build.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file at session end")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = c.configureLogging
	rootCmd.RunE = c.runRoot

	rootCmd.Flags().BoolP("build", "b", false, "Build the project, or only the given targets")
	rootCmd.Flags().StringArrayP("target", "t", nil, "Source path to build or inspect (repeatable)")
	rootCmd.Flags().BoolP("clean", "c", false, "Remove the saved state and the target directory first")
	rootCmd.Flags().Bool("print-dependency-map", false, "Print the dependencies of every source")
	rootCmd.Flags().Bool("print-reverse-dependency-map", false, "Print the sources depending on every design unit")
	rootCmd.Flags().Bool("print-design-units", false, "Print the design units of every source")
	rootCmd.Flags().Bool("print-build-steps", false, "Print the planned build steps without building")

	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	opts := app.RunOptions{}
	opts.Build, _ = flags.GetBool("build")
	opts.Targets, _ = flags.GetStringArray("target")
	opts.Clean, _ = flags.GetBool("clean")
	opts.PrintDependencyMap, _ = flags.GetBool("print-dependency-map")
	opts.PrintReverseDependencyMap, _ = flags.GetBool("print-reverse-dependency-map")
	opts.PrintDesignUnits, _ = flags.GetBool("print-design-units")
	opts.PrintBuildSteps, _ = flags.GetBool("print-build-steps")
	opts.MetricsFile, _ = flags.GetString("metrics-file")

	nothingToDo := !opts.Build && !opts.Clean && !opts.PrintDependencyMap &&
		!opts.PrintReverseDependencyMap && !opts.PrintDesignUnits && !opts.PrintBuildSteps
	if len(args) == 0 || nothingToDo {
		// Display command usage help without returning an error
		_ = cmd.Help()
		return nil
	}

	return c.app.Run(cmd.Context(), args[0], opts)
}

// configureLogging applies -v and --json-logs. In CI, logs that do not go to
// a terminal are written as JSON unless a format was asked for.
func (c *CLI) configureLogging(cmd *cobra.Command, _ []string) {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	if !cmd.Flags().Changed("json-logs") && os.Getenv("CI") != "" && !output.IsTerminal(cmd.ErrOrStderr()) {
		jsonLogs = true
	}
	c.app.ConfigureLogging(verbosity, jsonLogs)
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
