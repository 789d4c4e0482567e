package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"
	"github.com/varmap/varmap/internal/output"
	"github.com/varmap/varmap/internal/scanner"
	"github.com/varmap/varmap/pkg/models"
)

func modelCmd() *cli.Command {
	return &cli.Command{
		Name:      "model",
		Usage:     "Show the variability model extracted from Kconfig",
		ArgsUsage: "[path]",
		Action:    runModel,
	}
}

type modelVariable struct {
	Name              string   `json:"name"`
	Type              string   `json:"type,omitempty"`
	Constraint        string   `json:"constraint,omitempty"`
	UsedInConstraints []string `json:"used_in_constraints_of,omitempty"`
}

func runModel(c *cli.Context) error {
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

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	variables := vm.Variables()
	data := make([]modelVariable, 0, len(variables))
	rows := make([][]string, 0, len(variables))
	for _, v := range variables {
		mv := modelVariable{Name: v.Name, Type: v.Type}
		if v.Constraint != nil {
			mv.Constraint = v.Constraint.String()
		}
		mv.UsedInConstraints = constraintUsers(v)
		data = append(data, mv)
		rows = append(rows, []string{
			v.Name,
			v.Type,
			truncate(mv.Constraint, 50),
			fmt.Sprintf("%d", len(mv.UsedInConstraints)),
		})
	}

	table := output.NewTable(
		"Variability Model",
		[]string{"Variable", "Type", "Constraint", "Used In Constraints"},
		rows,
		[]string{fmt.Sprintf("%d variables", vm.Len()), "", "", ""},
		data,
	)
	return formatter.Output(table)
}

func constraintUsers(v *models.VariabilityVariable) []string {
	users := make([]string, 0, len(v.UsedInConstraintsOf))
	for name := range v.UsedInConstraintsOf {
		users = append(users, name)
	}
	sort.Strings(users)
	return users
}
