package analyzer

import (
	"fmt"
	"path/filepath"

	"github.com/varmap/varmap/internal/extractor"
	"github.com/varmap/varmap/internal/fileproc"
	"github.com/varmap/varmap/pkg/config"
	"github.com/varmap/varmap/pkg/logic"
	"github.com/varmap/varmap/pkg/models"
)

// Mapper runs the full mapping pipeline: extract conditional regions from
// the sources, ingest them together with the build model, reconcile, and
// return the classified elements.
type Mapper struct {
	cfg *config.Config
}

// NewMapper creates a mapper with the given configuration. A nil config uses
// defaults.
func NewMapper(cfg *config.Config) *Mapper {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Mapper{cfg: cfg}
}

// Summary counts elements per state.
type Summary struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Unmapped  int `json:"unmapped"`
	Unused    int `json:"unused"`
	Undefined int `json:"undefined"`
}

// Result is the outcome of one mapping run.
type Result struct {
	Elements []*models.MappingElement `json:"elements"`
	Summary  Summary                  `json:"summary"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// Run executes the pipeline. The variability model is required; the build
// model is optional and its absence degrades to code-only associations with
// a completeness warning. root anchors build-model path lookups for the
// extracted sources. Extraction runs in parallel, ingestion is sequential.
func (m *Mapper) Run(vm *models.VariabilityModel, bm *models.BuildModel, root string, sources []string, onProgress fileproc.ProgressFunc) (*Result, error) {
	if vm == nil {
		return nil, fmt.Errorf("variability model is required")
	}

	filter, err := m.cfg.VariableFilter()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if bm == nil {
		result.Warnings = append(result.Warnings,
			"no build model found; file-level associations are unavailable")
	}
	if !vm.HasConstraintUsage() {
		result.Warnings = append(result.Warnings,
			"variability model has no constraint-usage information; constraint-only variables stay UNUSED")
	}

	extractErrs := &fileproc.ProcessingErrors{}
	files := extractor.ExtractFiles(sources, onProgress, extractErrs.Add)
	for _, pe := range extractErrs.Errors {
		result.Warnings = append(result.Warnings, fmt.Sprintf("skipped %s: %v", pe.Path, pe.Err))
	}

	mapping, err := NewMapping(vm)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		mapping.Add(file, buildConditionFor(bm, root, file.Path), filter)
	}
	mapping.ResolveUnused()

	result.Elements = mapping.Elements()
	result.Summary = summarize(result.Elements)
	return result, nil
}

// buildConditionFor looks up the build condition of a source file, trying
// the path relative to the scan root first.
func buildConditionFor(bm *models.BuildModel, root, path string) logic.Formula {
	if bm == nil {
		return nil
	}
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil {
			if cond := bm.Condition(rel); cond != nil {
				return cond
			}
		}
	}
	return bm.Condition(path)
}

func summarize(elements []*models.MappingElement) Summary {
	s := Summary{Total: len(elements)}
	for _, e := range elements {
		switch e.State() {
		case models.StateUsed:
			s.Used++
		case models.StateUnmapped:
			s.Unmapped++
		case models.StateUnused:
			s.Unused++
		case models.StateUndefined:
			s.Undefined++
		}
	}
	return s
}
