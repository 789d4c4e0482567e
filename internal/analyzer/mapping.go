package analyzer

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/varmap/varmap/pkg/logic"
	"github.com/varmap/varmap/pkg/models"
)

// Mapping relates the configuration variables of a variability model to the
// build and code artifacts that reference them. It is single-owner: one
// goroutine ingests artifacts, reconciles, and reads the result.
type Mapping struct {
	elements        map[string]*models.MappingElement
	constraintUsage bool
}

// NewMapping creates a mapping seeded with one UNUSED element per variable
// declared in the model. The model is required; extraction without it has
// nothing to classify against.
func NewMapping(vm *models.VariabilityModel) (*Mapping, error) {
	if vm == nil {
		return nil, fmt.Errorf("variability model is required")
	}
	m := &Mapping{
		elements:        make(map[string]*models.MappingElement, vm.Len()),
		constraintUsage: vm.HasConstraintUsage(),
	}
	for _, v := range vm.Variables() {
		m.elements[v.Name] = models.NewMappingElement(v)
	}
	return m, nil
}

// NewEmptyMapping creates a mapping with no declared variables. Every
// artifact reference creates an UNDEFINED element.
func NewEmptyMapping() *Mapping {
	return &Mapping{elements: make(map[string]*models.MappingElement)}
}

// Add ingests one source file. When buildCondition is non-nil the file is
// first associated with every variable the build condition references, then
// the file's code elements are scanned recursively. nameFilter restricts
// which referenced names participate; nil accepts all.
func (m *Mapping) Add(file *models.SourceFile, buildCondition logic.Formula, nameFilter *regexp.Regexp) {
	if file == nil {
		return
	}
	if buildCondition != nil {
		for _, name := range filterNames(logic.Variables(buildCondition), nameFilter) {
			m.obtain(name).AddFileAssociation(file)
		}
	}
	for _, element := range file.Elements {
		m.addElement(element, nameFilter)
	}
}

// AddCodeOnly ingests a source file without build-model information. Only
// code-level associations are recorded.
func (m *Mapping) AddCodeOnly(file *models.SourceFile, nameFilter *regexp.Regexp) {
	m.Add(file, nil, nameFilter)
}

// addElement associates one code element with the variables its presence
// condition references, then recurses into its children. An element without
// a condition contributes nothing itself but its children are still visited.
func (m *Mapping) addElement(element *models.CodeElement, nameFilter *regexp.Regexp) {
	if element == nil {
		return
	}
	if element.Condition != nil {
		for _, name := range filterNames(logic.Variables(element.Condition), nameFilter) {
			m.obtain(name).AddElementAssociation(element)
		}
	}
	for _, child := range element.Children {
		m.addElement(child, nameFilter)
	}
}

// obtain returns the element for the given variable name, creating an
// UNDEFINED one on first reference to an undeclared name.
func (m *Mapping) obtain(name string) *models.MappingElement {
	if e, ok := m.elements[name]; ok {
		return e
	}
	e := models.NewUndefinedElement(name)
	m.elements[name] = e
	return e
}

// ResolveUnused reclassifies UNUSED variables that appear in other declared
// variables' constraints as UNMAPPED. It reports whether at least one element
// changed state. It does not run when the variability model carries no
// constraint-usage information, since UNUSED and UNMAPPED cannot be told
// apart then. Safe to run repeatedly: it only ever moves elements from
// UNUSED to UNMAPPED.
func (m *Mapping) ResolveUnused() bool {
	if !m.constraintUsage {
		return false
	}
	resolved := false
	for _, e := range m.elements {
		if e.State() != models.StateUnused {
			continue
		}
		v := e.Variable()
		if v == nil {
			continue
		}
		if usedInOtherConstraint(v) {
			e.SetState(models.StateUnmapped)
			resolved = true
		}
	}
	return resolved
}

// usedInOtherConstraint reports whether some other variable's constraint
// references v. A self-reference does not count.
func usedInOtherConstraint(v *models.VariabilityVariable) bool {
	for name := range v.UsedInConstraintsOf {
		if name != v.Name {
			return true
		}
	}
	return false
}

// Elements returns all mapping elements sorted by variable name.
func (m *Mapping) Elements() []*models.MappingElement {
	names := make([]string, 0, len(m.elements))
	for name := range m.elements {
		names = append(names, name)
	}
	sort.Strings(names)
	elements := make([]*models.MappingElement, len(names))
	for i, name := range names {
		elements[i] = m.elements[name]
	}
	return elements
}

// Element looks up a single mapping element by variable name, nil when the
// name was neither declared nor referenced.
func (m *Mapping) Element(name string) *models.MappingElement {
	return m.elements[name]
}

// Len returns the number of mapping elements.
func (m *Mapping) Len() int {
	return len(m.elements)
}

// filterNames keeps the names the filter matches in full. A nil filter
// accepts everything.
func filterNames(names []string, filter *regexp.Regexp) []string {
	if filter == nil {
		return names
	}
	kept := names[:0]
	for _, name := range names {
		if matchesFullName(filter, name) {
			kept = append(kept, name)
		}
	}
	return kept
}

// matchesFullName reports whether the filter matches the entire name. Go
// regexp matching is leftmost-first, so a shorter alternative can win even
// when a longer one spans the whole name; a match that starts at the
// beginning but stops short is rechecked with the pattern anchored.
func matchesFullName(filter *regexp.Regexp, name string) bool {
	loc := filter.FindStringIndex(name)
	if loc == nil || loc[0] != 0 {
		return false
	}
	if loc[1] == len(name) {
		return true
	}
	anchored, err := regexp.Compile(`\A(?:` + filter.String() + `)\z`)
	return err == nil && anchored.MatchString(name)
}
