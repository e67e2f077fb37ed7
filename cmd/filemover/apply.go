package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SumihisaYutani/FileMover/internal/cmdutil"
	"github.com/SumihisaYutani/FileMover/pkg/execute"
	"github.com/SumihisaYutani/FileMover/pkg/journal"
	"github.com/SumihisaYutani/FileMover/pkg/logging"
	"github.com/SumihisaYutani/FileMover/pkg/model"
)

var applyConfiguration struct {
	plan         string
	journal      string
	parallelism  int
	preserveACLs bool
}

var applyCommand = &cobra.Command{
	Use:   "apply",
	Short: "Execute a move plan, journaling every operation",
	Args:  cmdutil.DisallowArguments,
	Run:   cmdutil.Mainify(applyMain),
}

func init() {
	flags := applyCommand.Flags()
	flags.StringVar(&applyConfiguration.plan, "plan", "", "Path to a plan JSON file (required)")
	flags.StringVar(&applyConfiguration.journal, "journal", "", "Path to write the journal (required)")
	flags.IntVar(&applyConfiguration.parallelism, "parallelism", 4, "Maximum number of concurrent operations")
	flags.BoolVar(&applyConfiguration.preserveACLs, "preserve-acls", true, "Reapply source ACLs after a cross-volume copy")
}

func applyMain(_ *cobra.Command, _ []string) error {
	if applyConfiguration.plan == "" || applyConfiguration.journal == "" {
		os.Exit(2)
	}

	data, err := os.ReadFile(applyConfiguration.plan)
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

	journalWriter, err := journal.Create(applyConfiguration.journal)
	if err != nil {
		cmdutil.Error(errors.Wrap(err, "unable to create journal"))
		os.Exit(5)
		return nil
	}
	defer journalWriter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		cmdutil.Warning("cancellation requested, finishing in-flight operations")
		cancel()
	}()

	logger := logging.RootLogger.Sublogger("apply")

	// A redirected stdout (piped to a file or another process) can't show a
	// carriage-return-erased progress line sensibly, so fall back to one
	// line per reported step.
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	opts := execute.Options{
		Parallelism:  applyConfiguration.parallelism,
		Logger:       logger,
		PreserveACLs: applyConfiguration.preserveACLs,
		OnProgress: func(p execute.Progress) {
			line := fmt.Sprintf("%d/%d ops, %s/%s", p.CompletedOps, p.TotalOps,
				humanize.Bytes(p.BytesProcessed), humanize.Bytes(p.TotalBytes))
			if interactive {
				fmt.Printf("\r%s", line)
			} else {
				fmt.Println(line)
			}
		},
	}

	result, err := execute.Apply(ctx, &movePlan, journalWriter, opts)
	fmt.Println()
	if err != nil {
		return errors.Wrap(err, "execution failed")
	}

	switch result.Status {
	case execute.StatusSucceeded:
		os.Exit(0)
	case execute.StatusPartial:
		cmdutil.Warning(fmt.Sprintf("%d operations failed; see the journal for details", len(result.Failures)))
		os.Exit(3)
	case execute.StatusCancelled:
		os.Exit(4)
	}

	return nil
}
