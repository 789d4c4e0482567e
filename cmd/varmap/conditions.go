package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/varmap/varmap/internal/extractor"
	"github.com/varmap/varmap/internal/output"
	"github.com/varmap/varmap/internal/progress"
	"github.com/varmap/varmap/internal/scanner"
	"github.com/varmap/varmap/pkg/models"
)

func conditionsCmd() *cli.Command {
	return &cli.Command{
		Name:      "conditions",
		Usage:     "Show the presence conditions extracted from conditional code regions",
		ArgsUsage: "[path]",
		Action:    runConditions,
	}
}

func runConditions(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root := getPath(c)

	inputs, err := scanner.NewScanner(cfg).ScanDir(root)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var tracker *progress.Tracker
	if c.String("output") == "" && len(inputs.Sources) > 0 {
		tracker = progress.NewTracker("Extracting conditionals...", len(inputs.Sources))
	}
	files := extractor.ExtractFiles(inputs.Sources, tracker.Tick, func(path string, err error) {
		if cfg.Output.Verbose || c.Bool("verbose") {
			formatter.Warning("skipped %s: %v", path, err)
		}
	})
	tracker.FinishSuccess()

	var rows [][]string
	regions := 0
	for _, file := range files {
		for _, e := range file.Elements {
			rows, regions = appendConditionRows(rows, regions, e)
		}
	}

	table := output.NewTable(
		"Code Conditions",
		[]string{"Location", "Condition"},
		rows,
		[]string{fmt.Sprintf("%d regions in %d files", regions, len(files)), ""},
		files,
	)
	return formatter.Output(table)
}

func appendConditionRows(rows [][]string, regions int, e *models.CodeElement) ([][]string, int) {
	condition := ""
	if e.Condition != nil {
		condition = e.Condition.String()
	}
	rows = append(rows, []string{e.Location(), truncate(condition, 80)})
	regions++
	for _, child := range e.Children {
		rows, regions = appendConditionRows(rows, regions, child)
	}
	return rows, regions
}
