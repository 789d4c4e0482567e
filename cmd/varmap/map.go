package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/varmap/varmap/internal/analyzer"
	"github.com/varmap/varmap/internal/buildmodel"
	"github.com/varmap/varmap/internal/kconfig"
	"github.com/varmap/varmap/internal/output"
	"github.com/varmap/varmap/internal/progress"
	"github.com/varmap/varmap/internal/scanner"
	"github.com/varmap/varmap/pkg/config"
	"github.com/varmap/varmap/pkg/models"
)

func mapCmd() *cli.Command {
	return &cli.Command{
		Name:      "map",
		Usage:     "Map configuration variables to the artifacts that use them",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "state",
				Usage: "Only show elements in the given state (USED, UNMAPPED, UNUSED, UNDEFINED)",
			},
		},
		Action: runMap,
	}
}

func runMap(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root := getPath(c)

	inputs, err := scanner.NewScanner(cfg).ScanDir(root)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}

	vm, err := loadVariabilityModel(cfg, root, inputs)
	if err != nil {
		return err
	}

	var bm *models.BuildModel
	if len(inputs.BuildFiles) > 0 {
		bm, err = buildmodel.NewMiner(cfg.Mapping.BuildFiles...).MineFiles(root, inputs.BuildFiles)
		if err != nil {
			return err
		}
	}

	var tracker *progress.Tracker
	if c.String("output") == "" && len(inputs.Sources) > 0 {
		tracker = progress.NewTracker("Extracting conditionals...", len(inputs.Sources))
	}
	result, err := analyzer.NewMapper(cfg).Run(vm, bm, root, inputs.Sources, tracker.Tick)
	tracker.FinishSuccess()
	if err != nil {
		return fmt.Errorf("mapping failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	for _, warning := range result.Warnings {
		formatter.Warning("%s", warning)
	}

	stateFilter := c.String("state")
	colored := formatter.Format() == output.FormatText && cfg.Output.Color

	var rows [][]string
	for _, e := range result.Elements {
		state := string(e.State())
		if stateFilter != "" && state != stateFilter {
			continue
		}
		if colored {
			state = output.StateColor(string(e.State()), state)
		}
		rows = append(rows, []string{
			e.VariableName(),
			state,
			truncate(e.ControlledFilesString(), 60),
			truncate(e.ControlledElementsString(), 60),
		})
	}

	table := output.NewTable(
		"Variability Mapping",
		[]string{"Variable", "State", "Controlled Files", "Controlled Elements"},
		rows,
		[]string{
			fmt.Sprintf("%d variables", result.Summary.Total),
			fmt.Sprintf("%d used, %d unmapped, %d unused, %d undefined",
				result.Summary.Used, result.Summary.Unmapped, result.Summary.Unused, result.Summary.Undefined),
			"", "",
		},
		result,
	)
	return formatter.Output(table)
}

// loadVariabilityModel loads either the configured plain variable list or
// the Kconfig tree found by the scanner. The map pipeline cannot run
// without one.
func loadVariabilityModel(cfg *config.Config, root string, inputs *scanner.Inputs) (*models.VariabilityModel, error) {
	if cfg.Mapping.VariableListFile != "" {
		color.Yellow("Using variable list without constraint information")
		return kconfig.LoadVariableList(filepath.Join(root, cfg.Mapping.VariableListFile))
	}
	if inputs.KconfigFile == "" {
		name := cfg.Mapping.KconfigFile
		if name == "" {
			name = "Kconfig"
		}
		return nil, fmt.Errorf("no variability model: %s not found under %s", name, root)
	}
	return kconfig.Load(inputs.KconfigFile)
}
