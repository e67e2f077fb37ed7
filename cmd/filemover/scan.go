package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SumihisaYutani/FileMover/internal/cmdutil"
	"github.com/SumihisaYutani/FileMover/pkg/config"
	"github.com/SumihisaYutani/FileMover/pkg/logging"
	"github.com/SumihisaYutani/FileMover/pkg/match"
	"github.com/SumihisaYutani/FileMover/pkg/scan"
)

var scanConfiguration struct {
	config  string
	profile string
	output  string
}

var scanCommand = &cobra.Command{
	Use:   "scan",
	Short: "Scan configured roots and emit matched folders as JSON",
	Args:  cmdutil.DisallowArguments,
	Run:   cmdutil.Mainify(scanMain),
}

func init() {
	flags := scanCommand.Flags()
	flags.StringVar(&scanConfiguration.config, "config", "", "Path to the configuration file (required)")
	flags.StringVar(&scanConfiguration.profile, "profile", "", "Named profile to apply from the configuration")
	flags.StringVar(&scanConfiguration.output, "output", "", "Path to write the resulting hits as JSON (required)")
}

func scanMain(_ *cobra.Command, _ []string) error {
	if scanConfiguration.config == "" || scanConfiguration.output == "" {
		os.Exit(2)
	}

	cfg, err := config.Load(scanConfiguration.config, scanConfiguration.profile)
	if err != nil {
		cmdutil.Error(err)
		os.Exit(2)
		return nil
	}

	ruleSet, err := match.Compile(cfg.Rules)
	if err != nil {
		return errors.Wrap(err, "unable to compile rules")
	}

	logger := logging.RootLogger.Sublogger("scan")
	scanner := scan.New(ruleSet, cfg.Options, logger)

	result, err := scanner.Scan(context.Background(), cfg.Roots)
	if err != nil {
		os.Exit(4)
		return nil
	}

	for _, problem := range result.Problems {
		cmdutil.Warning(problem.Path + ": " + problem.Err.Error())
	}

	output, err := os.Create(scanConfiguration.output)
	if err != nil {
		return errors.Wrap(err, "unable to create output file")
	}
	defer output.Close()

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result.Hits); err != nil {
		return errors.Wrap(err, "unable to write hits")
	}

	return nil
}
