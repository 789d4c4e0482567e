package models

import (
	"sort"
	"strings"
)

// MappingState classifies a configuration variable with respect to the
// problem/solution-space mapping.
type MappingState string

const (
	// StateUsed marks a variable declared in the variability model and
	// referenced by at least one build or code artifact.
	StateUsed MappingState = "USED"

	// StateUnmapped marks a declared variable that is only referenced inside
	// other variables' constraints, never by an artifact.
	StateUnmapped MappingState = "UNMAPPED"

	// StateUnused marks a declared variable with no references anywhere.
	// This is the initial state of every declared variable.
	StateUnused MappingState = "UNUSED"

	// StateUndefined marks a variable referenced by artifacts but absent
	// from the variability model.
	StateUndefined MappingState = "UNDEFINED"
)

// MappingElement relates one configuration variable to the source files and
// code elements whose presence it controls. Elements for declared variables
// start UNUSED and are promoted to USED on their first artifact association;
// elements created for undeclared names are UNDEFINED and stay that way.
type MappingElement struct {
	variable *VariabilityVariable
	name     string
	state    MappingState
	files    map[string]*SourceFile
	elements map[string]*CodeElement
}

// NewMappingElement creates an element for a variable declared in the
// variability model. Its initial state is UNUSED.
func NewMappingElement(variable *VariabilityVariable) *MappingElement {
	return &MappingElement{
		variable: variable,
		name:     variable.Name,
		state:    StateUnused,
		files:    make(map[string]*SourceFile),
		elements: make(map[string]*CodeElement),
	}
}

// NewUndefinedElement creates an element for a variable that is referenced
// in build or code artifacts but not declared in the variability model.
func NewUndefinedElement(name string) *MappingElement {
	return &MappingElement{
		name:     name,
		state:    StateUndefined,
		files:    make(map[string]*SourceFile),
		elements: make(map[string]*CodeElement),
	}
}

// Variable returns the declared variability-model variable, or nil if the
// element's state is UNDEFINED.
func (m *MappingElement) Variable() *VariabilityVariable {
	return m.variable
}

// VariableName returns the configuration variable name of this element.
func (m *MappingElement) VariableName() string {
	return m.name
}

// State returns the current classification of the variable.
func (m *MappingElement) State() MappingState {
	return m.state
}

// SetState overwrites the classification. Only the reconciliation pass of
// the mapping should call this.
func (m *MappingElement) SetState(state MappingState) {
	m.state = state
}

// AddFileAssociation records that the variable controls the presence of the
// given source file during the build. Idempotent per file path. A first
// association promotes UNUSED to USED; UNDEFINED stays as it is since that
// state already implies the variable is referenced.
func (m *MappingElement) AddFileAssociation(file *SourceFile) {
	m.files[file.Path] = file
	m.promote()
}

// AddElementAssociation records that the variable controls the presence of
// the given code element. Idempotent per element identity.
func (m *MappingElement) AddElementAssociation(element *CodeElement) {
	m.elements[element.ID()] = element
	m.promote()
}

func (m *MappingElement) promote() {
	switch m.state {
	case StateUnused:
		m.state = StateUsed
	case StateUnmapped:
		// Associations precede reconciliation, so an UNMAPPED element must
		// not receive one. Record the reference rather than dropping it.
		m.state = StateUsed
	}
}

// ControlledFiles returns the source files controlled by this variable,
// sorted by path.
func (m *MappingElement) ControlledFiles() []*SourceFile {
	files := make([]*SourceFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// ControlledElements returns the code elements controlled by this variable,
// sorted by owning file and start line.
func (m *MappingElement) ControlledElements() []*CodeElement {
	elements := make([]*CodeElement, 0, len(m.elements))
	for _, e := range m.elements {
		elements = append(elements, e)
	}
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].File != elements[j].File {
			return elements[i].File < elements[j].File
		}
		return elements[i].StartLine < elements[j].StartLine
	})
	return elements
}

// ControlledFilesString renders the controlled files as a space-separated
// list of file names. Empty string when no file association exists.
func (m *MappingElement) ControlledFilesString() string {
	files := m.ControlledFiles()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	return strings.Join(names, " ")
}

// ControlledElementsString renders the controlled elements as a
// space-separated list of file[start:end] locations. Empty string when no
// element association exists.
func (m *MappingElement) ControlledElementsString() string {
	elements := m.ControlledElements()
	locations := make([]string, len(elements))
	for i, e := range elements {
		locations[i] = e.Location()
	}
	return strings.Join(locations, " ")
}

// mappingElementJSON is the serialization shape of a MappingElement.
type mappingElementJSON struct {
	VariableName       string   `json:"variable_name"`
	State              string   `json:"state"`
	ControlledFiles    []string `json:"controlled_files"`
	ControlledElements []string `json:"controlled_elements"`
}

// MarshalJSON serializes the element with its association sets rendered as
// sorted identifier lists.
func (m *MappingElement) MarshalJSON() ([]byte, error) {
	files := m.ControlledFiles()
	fileNames := make([]string, len(files))
	for i, f := range files {
		fileNames[i] = f.Path
	}
	elements := m.ControlledElements()
	locations := make([]string, len(elements))
	for i, e := range elements {
		locations[i] = e.Location()
	}
	return marshalJSON(mappingElementJSON{
		VariableName:       m.name,
		State:              string(m.state),
		ControlledFiles:    fileNames,
		ControlledElements: locations,
	})
}
