package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SumihisaYutani/FileMover/internal/cmdutil"
	"github.com/SumihisaYutani/FileMover/pkg/journal"
)

var undoConfiguration struct {
	journal string
}

var undoCommand = &cobra.Command{
	Use:   "undo",
	Short: "Reverse a completed apply run by replaying its journal backwards",
	Args:  cmdutil.DisallowArguments,
	Run:   cmdutil.Mainify(undoMain),
}

func init() {
	flags := undoCommand.Flags()
	flags.StringVar(&undoConfiguration.journal, "journal", "", "Path to the journal file produced by apply (required)")
}

func undoMain(_ *cobra.Command, _ []string) error {
	if undoConfiguration.journal == "" {
		os.Exit(2)
	}

	entries, err := journal.Read(undoConfiguration.journal)
	if err != nil {
		cmdutil.Error(errors.Wrap(err, "unable to read journal"))
		os.Exit(2)
		return nil
	}

	if journal.IsInterrupted(entries) {
		cmdutil.Warning("journal ends mid-operation; the interrupted entry will be skipped")
	}

	results := journal.Undo(entries)

	failures := 0
	for _, r := range results {
		if r.Outcome == journal.UndoFailed || r.Outcome == journal.UndoFailedRestore {
			failures++
			cmdutil.Warning(fmt.Sprintf("%s -> %s: %v", r.Entry.Dest, r.Entry.Source, r.Err))
		}
	}

	if failures > 0 {
		os.Exit(3)
	}
	return nil
}
