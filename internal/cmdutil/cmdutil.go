// Package cmdutil provides the small set of command-line helpers shared by
// every filemover subcommand: colorized warning/error/fatal printers and a
// Cobra RunE-to-Run adapter.
package cmdutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message to standard error and terminates the
// process with exit code 5, reserved for unexpected I/O failures.
// Subcommands whose failure modes map to a different exit code should
// call os.Exit directly instead of Fatal.
func Fatal(err error) {
	Error(err)
	os.Exit(5)
}

// Mainify wraps a RunE-style entry point (one returning an error) into a
// standard Cobra Run function, so entry points can rely on defer-based
// cleanup that wouldn't happen if they called os.Exit directly.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}

// DisallowArguments is a Cobra positional-argument validator that rejects
// any arguments, with a clearer message than cobra.NoArgs produces.
func DisallowArguments(_ *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New("command does not accept positional arguments")
	}
	return nil
}
