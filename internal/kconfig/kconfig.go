// Package kconfig extracts a variability model from Kconfig files.
package kconfig

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/varmap/varmap/pkg/logic"
	"github.com/varmap/varmap/pkg/models"
)

// entry is one config block as read from the files, before symbol wiring.
type entry struct {
	name       string
	typ        string
	dependsOn  []string // raw expressions from "depends on" lines
	selects    []string // selected symbol names
	conditions []string // raw expressions from "select ... if" and "default ... if"
}

// Parser reads Kconfig files into a models.VariabilityModel. Symbol names in
// the resulting model carry the CONFIG_ prefix, matching how build files and
// code refer to them.
type Parser struct {
	root    string
	entries map[string]*entry
	order   []string
	visited map[string]bool
}

// NewParser creates a parser rooted at the directory that source directives
// are resolved against.
func NewParser(root string) *Parser {
	return &Parser{
		root:    root,
		entries: make(map[string]*entry),
		visited: make(map[string]bool),
	}
}

// ParseFile reads one Kconfig file, following source directives relative to
// the parser root. Files already seen are skipped.
func (p *Parser) ParseFile(path string) error {
	abs := filepath.Clean(path)
	if p.visited[abs] {
		return nil
	}
	p.visited[abs] = true

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("opening kconfig file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *entry
	inHelp := false
	helpIndent := -1

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if inHelp {
			if line == "" {
				continue
			}
			indent := leadingIndent(raw)
			if helpIndent < 0 {
				helpIndent = indent
			}
			if indent >= helpIndent {
				continue
			}
			inHelp = false
			helpIndent = -1
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, rest := splitKeyword(line)
		switch keyword {
		case "config", "menuconfig":
			current = p.obtainEntry(configName(rest))
		case "source":
			if err := p.ParseFile(filepath.Join(p.root, strings.Trim(rest, `"`))); err != nil {
				return err
			}
		case "help", "---help---":
			inHelp = true
		case "menu", "endmenu", "choice", "endchoice", "comment", "mainmenu", "if", "endif":
			// Structural directives carry no per-variable information we use.
			current = nil
		case "bool", "tristate", "string", "int", "hex", "def_bool", "def_tristate":
			if current != nil {
				current.typ = strings.TrimPrefix(keyword, "def_")
			}
		case "depends":
			if current != nil {
				expr := strings.TrimSpace(strings.TrimPrefix(rest, "on"))
				current.dependsOn = append(current.dependsOn, expr)
			}
		case "select", "imply":
			if current != nil {
				target, cond := splitIf(rest)
				current.selects = append(current.selects, configName(target))
				if cond != "" {
					current.conditions = append(current.conditions, cond)
				}
			}
		case "default":
			if current != nil {
				if _, cond := splitIf(rest); cond != "" {
					current.conditions = append(current.conditions, cond)
				}
			}
		}
	}
	return scanner.Err()
}

// Model assembles the variability model from everything parsed so far.
// Constraint-usage metadata is always available from Kconfig input: a
// variable referenced in another variable's depends on, select or
// conditional default is recorded as used in that variable's constraints.
func (p *Parser) Model() *models.VariabilityModel {
	vm := models.NewVariabilityModel(true)
	for _, name := range p.order {
		e := p.entries[name]
		vm.Add(&models.VariabilityVariable{Name: e.name, Type: e.typ})
	}

	for _, name := range p.order {
		e := p.entries[name]
		owner := vm.Variable(e.name)

		var constraints []logic.Formula
		for _, expr := range e.dependsOn {
			f, err := parseExpr(expr)
			if err != nil {
				continue
			}
			constraints = append(constraints, f)
			recordUsage(vm, f, owner)
		}
		for _, expr := range e.conditions {
			f, err := parseExpr(expr)
			if err != nil {
				continue
			}
			recordUsage(vm, f, owner)
		}
		if len(constraints) > 0 {
			owner.Constraint = logic.Conjunction(constraints...)
		}

		// A selected symbol is forced by the selecting one, so the
		// reference counts as constraint usage of the target.
		for _, target := range e.selects {
			if v := vm.Variable(target); v != nil {
				v.RecordConstraintUsage(owner)
			}
		}
	}
	return vm
}

func (p *Parser) obtainEntry(name string) *entry {
	if e, ok := p.entries[name]; ok {
		return e
	}
	e := &entry{name: name}
	p.entries[name] = e
	p.order = append(p.order, name)
	return e
}

// parseExpr parses a Kconfig expression with the CONFIG_ prefix applied to
// each referenced symbol.
func parseExpr(expr string) (logic.Formula, error) {
	f, err := logic.Parse(expr)
	if err != nil {
		return nil, err
	}
	return prefixVariables(f), nil
}

func prefixVariables(f logic.Formula) logic.Formula {
	switch v := f.(type) {
	case logic.Variable:
		return logic.Variable{Name: configName(v.Name)}
	case logic.Not:
		return logic.Not{Operand: prefixVariables(v.Operand)}
	case logic.And:
		return logic.And{Left: prefixVariables(v.Left), Right: prefixVariables(v.Right)}
	case logic.Or:
		return logic.Or{Left: prefixVariables(v.Left), Right: prefixVariables(v.Right)}
	default:
		return f
	}
}

// recordUsage marks every declared variable referenced by f as used in the
// constraints of owner. References to undeclared symbols are dropped.
func recordUsage(vm *models.VariabilityModel, f logic.Formula, owner *models.VariabilityVariable) {
	for _, name := range logic.Variables(f) {
		if v := vm.Variable(name); v != nil && v != owner {
			v.RecordConstraintUsage(owner)
		}
	}
}

// configName applies the CONFIG_ prefix, tolerating input that already has it.
func configName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "CONFIG_") {
		return name
	}
	return "CONFIG_" + name
}

func splitKeyword(line string) (string, string) {
	keyword, rest, _ := strings.Cut(line, " ")
	return keyword, strings.TrimSpace(rest)
}

// splitIf separates a trailing "if EXPR" clause from a directive body.
func splitIf(rest string) (body, cond string) {
	if idx := strings.Index(rest, " if "); idx >= 0 {
		return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+4:])
	}
	return strings.TrimSpace(rest), ""
}

func leadingIndent(line string) int {
	indent := 0
	for _, c := range line {
		switch c {
		case ' ':
			indent++
		case '\t':
			indent += 8
		default:
			return indent
		}
	}
	return indent
}

// Load parses the Kconfig file at path and returns the assembled model.
func Load(path string) (*models.VariabilityModel, error) {
	p := NewParser(filepath.Dir(path))
	if err := p.ParseFile(path); err != nil {
		return nil, err
	}
	return p.Model(), nil
}
