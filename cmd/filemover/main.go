// Command filemover is FileMover's command-line entry point, exposing the
// scan, plan, dry-run, apply, and undo subcommands: a Cobra root command
// with flag-bound subcommand structs, a Mainify-wrapped RunE, and an
// optional .env file loaded into the process environment.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/SumihisaYutani/FileMover/pkg/logging"
)

var rootConfiguration struct {
	debug bool
}

var rootCommand = &cobra.Command{
	Use:   "filemover",
	Short: "FileMover matches folder names against rules and moves them to templated destinations.",
	PersistentPreRun: func(*cobra.Command, []string) {
		logging.SetDebugEnabled(rootConfiguration.debug || os.Getenv("FILEMOVER_DEBUG") != "")
	},
}

func init() {
	// A .env file in the working directory is loaded into the process
	// environment, where FILEMOVER_DEBUG (read in PersistentPreRun) can
	// enable debug logging; a missing file is not an error.
	_ = godotenv.Load()

	flags := rootCommand.PersistentFlags()
	flags.BoolVarP(&rootConfiguration.debug, "debug", "v", false, "Enable debug-level logging")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		scanCommand,
		planCommand,
		dryRunCommand,
		applyCommand,
		undoCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(2)
	}
}
