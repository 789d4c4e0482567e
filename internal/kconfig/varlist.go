package kconfig

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/varmap/varmap/pkg/models"
)

// LoadVariableList reads a plain list of variable names, one per line, into a
// variability model without constraint-usage metadata. Lines may carry a type
// after the name ("CONFIG_FOO bool"); blank lines and # comments are skipped.
// This is the degraded input for projects without a parseable Kconfig tree.
func LoadVariableList(path string) (*models.VariabilityModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening variable list: %w", err)
	}
	defer f.Close()

	vm := models.NewVariabilityModel(false)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, typ, _ := strings.Cut(line, " ")
		vm.Add(&models.VariabilityVariable{
			Name: configName(name),
			Type: strings.TrimSpace(typ),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vm, nil
}
