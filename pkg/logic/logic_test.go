package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringRendering(t *testing.T) {
	tests := []struct {
		name    string
		formula Formula
		want    string
	}{
		{"variable", Variable{Name: "CONFIG_A"}, "CONFIG_A"},
		{"not", Not{Operand: Variable{Name: "CONFIG_A"}}, "!CONFIG_A"},
		{"and", And{Left: Variable{Name: "A"}, Right: Variable{Name: "B"}}, "A && B"},
		{"or", Or{Left: Variable{Name: "A"}, Right: Variable{Name: "B"}}, "A || B"},
		{"true", True, "1"},
		{"false", False, "0"},
		{
			"or inside and needs parens",
			And{Left: Or{Left: Variable{Name: "A"}, Right: Variable{Name: "B"}}, Right: Variable{Name: "C"}},
			"(A || B) && C",
		},
		{
			"and inside or needs none",
			Or{Left: And{Left: Variable{Name: "A"}, Right: Variable{Name: "B"}}, Right: Variable{Name: "C"}},
			"A && B || C",
		},
		{
			"not over and",
			Not{Operand: And{Left: Variable{Name: "A"}, Right: Variable{Name: "B"}}},
			"!(A && B)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.formula.String())
		})
	}
}

func TestConjunction(t *testing.T) {
	a := Variable{Name: "A"}
	b := Variable{Name: "B"}

	assert.Equal(t, True, Conjunction())
	assert.Equal(t, True, Conjunction(nil, True))
	assert.Equal(t, a, Conjunction(a))
	assert.Equal(t, a, Conjunction(nil, a, True))
	assert.Equal(t, "A && B", Conjunction(a, b).String())
}

func TestVariables(t *testing.T) {
	f := And{
		Left:  Or{Left: Variable{Name: "CONFIG_B"}, Right: Not{Operand: Variable{Name: "CONFIG_A"}}},
		Right: Variable{Name: "CONFIG_B"},
	}
	assert.Equal(t, []string{"CONFIG_A", "CONFIG_B"}, Variables(f))
	assert.Empty(t, Variables(nil))
	assert.Empty(t, Variables(True))
}

func TestReferences(t *testing.T) {
	f := And{Left: Variable{Name: "A"}, Right: Variable{Name: "B"}}
	assert.True(t, References(f, "A"))
	assert.False(t, References(f, "C"))
}
