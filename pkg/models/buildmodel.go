package models

import (
	"path/filepath"
	"sort"

	"github.com/varmap/varmap/pkg/logic"
)

// BuildModel maps source file paths to the presence conditions the build
// system attaches to them. Files absent from the model are unconditional as
// far as the build is concerned.
type BuildModel struct {
	conditions map[string]logic.Formula
}

// NewBuildModel creates an empty build model.
func NewBuildModel() *BuildModel {
	return &BuildModel{conditions: make(map[string]logic.Formula)}
}

// SetCondition records the presence condition of a file. A second call for
// the same file disjoins the conditions: a file referenced by several build
// rules is present when any of them applies.
func (b *BuildModel) SetCondition(path string, condition logic.Formula) {
	key := normalizePath(path)
	if existing, ok := b.conditions[key]; ok {
		b.conditions[key] = logic.Or{Left: existing, Right: condition}
		return
	}
	b.conditions[key] = condition
}

// Condition returns the presence condition for the given file, or nil when
// the build model does not mention it.
func (b *BuildModel) Condition(path string) logic.Formula {
	return b.conditions[normalizePath(path)]
}

// Paths returns all file paths the model has conditions for, sorted.
func (b *BuildModel) Paths() []string {
	paths := make([]string, 0, len(b.conditions))
	for p := range b.conditions {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of files with recorded conditions.
func (b *BuildModel) Len() int {
	return len(b.conditions)
}

func normalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
