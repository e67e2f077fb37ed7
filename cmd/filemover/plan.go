package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SumihisaYutani/FileMover/internal/cmdutil"
	"github.com/SumihisaYutani/FileMover/pkg/config"
	"github.com/SumihisaYutani/FileMover/pkg/match"
	"github.com/SumihisaYutani/FileMover/pkg/model"
	"github.com/SumihisaYutani/FileMover/pkg/plan"
)

var planConfiguration struct {
	hits              string
	rules             string
	output            string
	enableCrossVolume bool
}

var planCommand = &cobra.Command{
	Use:   "plan",
	Short: "Build a move plan from scanned hits and rule definitions",
	Args:  cmdutil.DisallowArguments,
	Run:   cmdutil.Mainify(planMain),
}

func init() {
	flags := planCommand.Flags()
	flags.StringVar(&planConfiguration.hits, "input", "", "Path to a hits JSON file produced by scan (required)")
	flags.StringVar(&planConfiguration.rules, "rules", "", "Path to a rules JSON file (required)")
	flags.StringVar(&planConfiguration.output, "output", "", "Path to write the resulting plan as JSON (required)")
	flags.BoolVar(&planConfiguration.enableCrossVolume, "enable-cross-volume", false, "Allow a CopyDelete fallback when source and destination are on different volumes")
}

func planMain(_ *cobra.Command, _ []string) error {
	if planConfiguration.hits == "" || planConfiguration.rules == "" || planConfiguration.output == "" {
		os.Exit(2)
	}

	hitsData, err := os.ReadFile(planConfiguration.hits)
	if err != nil {
		cmdutil.Error(errors.Wrap(err, "unable to read hits file"))
		os.Exit(2)
		return nil
	}
	var hits []model.FolderHit
	if err := json.Unmarshal(hitsData, &hits); err != nil {
		cmdutil.Error(errors.Wrap(err, "unable to parse hits file"))
		os.Exit(2)
		return nil
	}

	rules, err := config.LoadRules(planConfiguration.rules)
	if err != nil {
		cmdutil.Error(err)
		os.Exit(2)
		return nil
	}

	ruleSet, err := match.Compile(rules)
	if err != nil {
		return errors.Wrap(err, "unable to compile rules")
	}

	builder := plan.NewBuilder(ruleSet, plan.Options{EnableCrossVolume: planConfiguration.enableCrossVolume})
	if err := builder.Build(hits); err != nil {
		return errors.Wrap(err, "unable to build plan")
	}

	output, err := os.Create(planConfiguration.output)
	if err != nil {
		return errors.Wrap(err, "unable to create output file")
	}
	defer output.Close()

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(builder.Plan()); err != nil {
		return errors.Wrap(err, "unable to write plan")
	}

	return nil
}
