// Package logic provides the boolean presence-condition representation used
// throughout varmap. Formulas are built by the extractors and queried by the
// mapping for the set of configuration variables they reference; varmap never
// solves them.
package logic

import (
	"sort"
)

// Formula is a boolean expression over named configuration variables.
type Formula interface {
	// String renders the formula in C-style operator syntax.
	String() string

	// precedence is used internally for minimal parenthesization.
	precedence() int
}

// Variable is a reference to a configuration variable by name.
type Variable struct {
	Name string
}

// Not negates its operand.
type Not struct {
	Operand Formula
}

// And is the conjunction of two formulas.
type And struct {
	Left, Right Formula
}

// Or is the disjunction of two formulas.
type Or struct {
	Left, Right Formula
}

// Constant is a literal truth value.
type Constant bool

// True and False are the constant formulas.
const (
	True  = Constant(true)
	False = Constant(false)
)

func (v Variable) String() string { return v.Name }
func (v Variable) precedence() int { return 4 }

func (c Constant) String() string {
	if bool(c) {
		return "1"
	}
	return "0"
}
func (c Constant) precedence() int { return 4 }

func (n Not) String() string  { return "!" + wrap(n.Operand, n.precedence()) }
func (n Not) precedence() int { return 3 }

func (a And) String() string {
	return wrap(a.Left, a.precedence()) + " && " + wrap(a.Right, a.precedence())
}
func (a And) precedence() int { return 2 }

func (o Or) String() string {
	return wrap(o.Left, o.precedence()) + " || " + wrap(o.Right, o.precedence())
}
func (o Or) precedence() int { return 1 }

func wrap(f Formula, outer int) string {
	if f.precedence() < outer {
		return "(" + f.String() + ")"
	}
	return f.String()
}

// Conjunction folds the given formulas into a single conjunction, dropping
// constant-true operands. Returns True for an empty input.
func Conjunction(fs ...Formula) Formula {
	var result Formula
	for _, f := range fs {
		if f == nil || f == True {
			continue
		}
		if result == nil {
			result = f
			continue
		}
		result = And{Left: result, Right: f}
	}
	if result == nil {
		return True
	}
	return result
}

// Variables returns the distinct free variable names of the formula in
// lexicographic order. A nil formula has no variables.
func Variables(f Formula) []string {
	seen := make(map[string]struct{})
	collectVariables(f, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectVariables(f Formula, seen map[string]struct{}) {
	switch t := f.(type) {
	case Variable:
		seen[t.Name] = struct{}{}
	case Not:
		collectVariables(t.Operand, seen)
	case And:
		collectVariables(t.Left, seen)
		collectVariables(t.Right, seen)
	case Or:
		collectVariables(t.Left, seen)
		collectVariables(t.Right, seen)
	}
}

// References reports whether the formula mentions the given variable name.
func References(f Formula, name string) bool {
	for _, v := range Variables(f) {
		if v == name {
			return true
		}
	}
	return false
}
