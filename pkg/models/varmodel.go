package models

import (
	"sort"

	"github.com/varmap/varmap/pkg/logic"
)

// VariabilityVariable is one configuration variable declared in the
// variability model.
type VariabilityVariable struct {
	// Name is the variable's unique name, including any CONFIG_ prefix.
	Name string `json:"name"`

	// Type is the declared type (bool, tristate, string, int, hex).
	Type string `json:"type,omitempty"`

	// Constraint is the variable's own dependency expression, nil when it
	// has none.
	Constraint logic.Formula `json:"-"`

	// UsedInConstraintsOf holds the declared variables whose constraint
	// expressions reference this variable, keyed by name. Nil when the
	// model does not provide constraint-usage information.
	UsedInConstraintsOf map[string]*VariabilityVariable `json:"-"`
}

// RecordConstraintUsage notes that the given variable's constraint
// references this one.
func (v *VariabilityVariable) RecordConstraintUsage(user *VariabilityVariable) {
	if v.UsedInConstraintsOf == nil {
		v.UsedInConstraintsOf = make(map[string]*VariabilityVariable)
	}
	v.UsedInConstraintsOf[user.Name] = user
}

// VariabilityModel is the problem-space input: the set of declared
// configuration variables, optionally annotated with constraint usage.
type VariabilityModel struct {
	variables       map[string]*VariabilityVariable
	constraintUsage bool
}

// NewVariabilityModel creates an empty model. constraintUsage declares
// whether variables carry UsedInConstraintsOf information; extractors that
// cannot provide it (plain variable lists) pass false.
func NewVariabilityModel(constraintUsage bool) *VariabilityModel {
	return &VariabilityModel{
		variables:       make(map[string]*VariabilityVariable),
		constraintUsage: constraintUsage,
	}
}

// Add inserts a declared variable, replacing any previous declaration of
// the same name.
func (m *VariabilityModel) Add(v *VariabilityVariable) {
	m.variables[v.Name] = v
}

// Variable looks up a declared variable by name, nil when absent.
func (m *VariabilityModel) Variable(name string) *VariabilityVariable {
	return m.variables[name]
}

// Variables returns all declared variables sorted by name.
func (m *VariabilityModel) Variables() []*VariabilityVariable {
	vars := make([]*VariabilityVariable, 0, len(m.variables))
	for _, v := range m.variables {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// Len returns the number of declared variables.
func (m *VariabilityModel) Len() int {
	return len(m.variables)
}

// HasConstraintUsage reports whether the model provides constraint-usage
// information for its variables.
func (m *VariabilityModel) HasConstraintUsage() bool {
	return m.constraintUsage
}
