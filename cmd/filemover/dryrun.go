package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SumihisaYutani/FileMover/internal/cmdutil"
	"github.com/SumihisaYutani/FileMover/pkg/model"
)

var dryRunConfiguration struct {
	plan string
}

var dryRunCommand = &cobra.Command{
	Use:   "dry-run",
	Short: "Print a human-readable summary of a move plan without executing it",
	Args:  cmdutil.DisallowArguments,
	Run:   cmdutil.Mainify(dryRunMain),
}

func init() {
	flags := dryRunCommand.Flags()
	flags.StringVar(&dryRunConfiguration.plan, "plan", "", "Path to a plan JSON file (required)")
}

func dryRunMain(_ *cobra.Command, _ []string) error {
	if dryRunConfiguration.plan == "" {
		os.Exit(2)
	}

	data, err := os.ReadFile(dryRunConfiguration.plan)
	if err != nil {
		cmdutil.Error(errors.Wrap(err, "unable to read plan file"))
		os.Exit(2)
		return nil
	}

	var movePlan model.MovePlan
	if err := json.Unmarshal(data, &movePlan); err != nil {
		cmdutil.Error(errors.Wrap(err, "unable to parse plan file"))
		os.Exit(2)
		return nil
	}

	for _, id := range movePlan.RootIDs {
		node := movePlan.Nodes[id]
		if node == nil {
			continue
		}
		fmt.Printf("%-10s %s -> %s\n", node.Kind, node.PathBefore, node.PathAfter)
		for _, conflict := range node.Conflicts {
			fmt.Printf("    conflict: %s\n", conflict.Kind)
		}
		for _, warning := range node.Warnings {
			fmt.Printf("    warning: %s\n", warning)
		}
	}

	fmt.Println()
	fmt.Printf("%d directories, %d files", movePlan.Summary.CountDirs, movePlan.Summary.CountFiles)
	if movePlan.Summary.TotalBytes != nil {
		fmt.Printf(", %s total", humanize.Bytes(*movePlan.Summary.TotalBytes))
	}
	fmt.Println()
	fmt.Printf("%d conflicts, %d warnings, cross-volume: %v\n",
		movePlan.Summary.Conflicts, movePlan.Summary.Warnings, movePlan.Summary.CrossVolume)

	return nil
}
