// Package buildmodel mines Makefile and Kbuild files for the presence
// conditions the build system attaches to source files.
package buildmodel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/varmap/varmap/pkg/logic"
	"github.com/varmap/varmap/pkg/models"
)

var (
	// obj-$(CONFIG_X) += foo.o, also lib-/subdir- variants.
	conditionalRule = regexp.MustCompile(`^(?:obj|lib|subdir|core|drivers)-\$\(([A-Za-z0-9_]+)\)\s*[+:]?=\s*(.*)$`)

	// obj-y += foo.o and obj-m += foo.o are unconditional from the
	// mapping's point of view: no variable controls them.
	unconditionalRule = regexp.MustCompile(`^(?:obj|lib|subdir|core|drivers)-[ym]\s*[+:]?=\s*(.*)$`)

	// ifeq ($(CONFIG_X),y) and ifneq ($(CONFIG_X),) style guards.
	condDirective = regexp.MustCompile(`^if(n?)eq\s*\(\s*\$\(([A-Za-z0-9_]+)\)\s*,\s*([^)]*)\)`)

	// ifdef CONFIG_X / ifndef CONFIG_X.
	defDirective = regexp.MustCompile(`^if(n?)def\s+([A-Za-z0-9_]+)`)
)

// Miner builds a models.BuildModel by scanning build files line by line. It
// does not evaluate the build system; it recognizes the common Kbuild idioms
// for conditional object lists.
type Miner struct {
	fileNames []string
}

// NewMiner creates a miner that recognizes the given build file names
// (typically Makefile and Kbuild).
func NewMiner(fileNames ...string) *Miner {
	if len(fileNames) == 0 {
		fileNames = []string{"Makefile", "Kbuild"}
	}
	return &Miner{fileNames: fileNames}
}

// MineTree walks the directory tree under root and mines every build file
// found. Returned paths are relative to root.
func (m *Miner) MineTree(root string) (*models.BuildModel, error) {
	bm := models.NewBuildModel()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !m.isBuildFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			rel = "."
		}
		return m.mineFile(bm, path, rel)
	})
	if err != nil {
		return nil, fmt.Errorf("mining build files: %w", err)
	}
	return bm, nil
}

// MineFiles mines the given build files, recording source paths relative to
// root.
func (m *Miner) MineFiles(root string, paths []string) (*models.BuildModel, error) {
	bm := models.NewBuildModel()
	for _, path := range paths {
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			rel = "."
		}
		if err := m.mineFile(bm, path, rel); err != nil {
			return nil, err
		}
	}
	return bm, nil
}

// MineFile mines a single build file, recording paths relative to the file's
// directory.
func (m *Miner) MineFile(path string) (*models.BuildModel, error) {
	bm := models.NewBuildModel()
	if err := m.mineFile(bm, path, "."); err != nil {
		return nil, err
	}
	return bm, nil
}

func (m *Miner) isBuildFile(name string) bool {
	for _, fn := range m.fileNames {
		if name == fn {
			return true
		}
	}
	return false
}

func (m *Miner) mineFile(bm *models.BuildModel, path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening build file: %w", err)
	}
	defer f.Close()

	// Conditions of enclosing ifeq/ifdef blocks, innermost last.
	var stack []logic.Formula

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := joinContinuations(scanner)
		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "ifeq") || strings.HasPrefix(line, "ifneq"):
			stack = append(stack, condFromDirective(line))
		case strings.HasPrefix(line, "ifdef") || strings.HasPrefix(line, "ifndef"):
			stack = append(stack, defFromDirective(line))
		case line == "else" || strings.HasPrefix(line, "else "):
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top != nil {
					stack[len(stack)-1] = logic.Not{Operand: top}
				}
			}
		case line == "endif":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			m.mineRule(bm, line, dir, stack)
		}
	}
	return scanner.Err()
}

func (m *Miner) mineRule(bm *models.BuildModel, line, dir string, stack []logic.Formula) {
	var variable string
	var objects string

	if match := conditionalRule.FindStringSubmatch(line); match != nil {
		variable = match[1]
		objects = match[2]
	} else if match := unconditionalRule.FindStringSubmatch(line); match != nil {
		objects = match[1]
	} else {
		return
	}

	var condition logic.Formula
	if variable != "" {
		condition = logic.Variable{Name: variable}
	}
	condition = logic.Conjunction(append(enclosing(stack), condition)...)
	if condition == logic.True {
		// Unconditional files carry no presence condition.
		return
	}

	for _, obj := range strings.Fields(objects) {
		src := objectToSource(obj)
		if src == "" {
			continue
		}
		bm.SetCondition(filepath.Join(dir, src), condition)
	}
}

// enclosing returns the non-nil conditions of the surrounding blocks.
func enclosing(stack []logic.Formula) []logic.Formula {
	conds := make([]logic.Formula, 0, len(stack))
	for _, c := range stack {
		if c != nil {
			conds = append(conds, c)
		}
	}
	return conds
}

// condFromDirective extracts the variable from an ifeq/ifneq guard. Guards
// not testing a single $(VAR) yield nil, meaning the block contributes no
// condition.
func condFromDirective(line string) logic.Formula {
	match := condDirective.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	negated := match[1] == "n"
	value := strings.TrimSpace(match[3])

	var f logic.Formula = logic.Variable{Name: match[2]}
	// ifeq against the empty string or n tests for absence.
	if value == "" || value == "n" {
		f = logic.Not{Operand: f}
	}
	if negated {
		f = logic.Not{Operand: f}
	}
	if inner, ok := f.(logic.Not); ok {
		if double, ok := inner.Operand.(logic.Not); ok {
			return double.Operand
		}
	}
	return f
}

func defFromDirective(line string) logic.Formula {
	match := defDirective.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	var f logic.Formula = logic.Variable{Name: match[2]}
	if match[1] == "n" {
		f = logic.Not{Operand: f}
	}
	return f
}

// objectToSource maps a build object to its source file. Directory entries
// and non-object words (variables, flags) are skipped.
func objectToSource(obj string) string {
	if strings.ContainsAny(obj, "$(") || strings.HasSuffix(obj, "/") {
		return ""
	}
	if strings.HasSuffix(obj, ".o") {
		return strings.TrimSuffix(obj, ".o") + ".c"
	}
	if strings.HasSuffix(obj, ".c") {
		return obj
	}
	return ""
}

// stripComment removes a trailing # comment.
func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// joinContinuations folds backslash-continued lines into one.
func joinContinuations(scanner *bufio.Scanner) string {
	line := scanner.Text()
	for strings.HasSuffix(line, "\\") && scanner.Scan() {
		line = strings.TrimSuffix(line, "\\") + " " + scanner.Text()
	}
	return line
}
