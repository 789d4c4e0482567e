package kconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesConfigBlocks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
# Calculator features

config CALCULATION
	bool "Enable calculation"

config ADDITION
	bool "Addition"
	depends on CALCULATION

config DEBUG
	tristate "Debug output"
`)

	vm, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, vm.Len())
	assert.True(t, vm.HasConstraintUsage())

	calc := vm.Variable("CONFIG_CALCULATION")
	require.NotNil(t, calc)
	assert.Equal(t, "bool", calc.Type)

	debug := vm.Variable("CONFIG_DEBUG")
	require.NotNil(t, debug)
	assert.Equal(t, "tristate", debug.Type)
}

func TestDependsOnRecordsConstraintUsage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
config DEBUG
	bool

config ADDITION
	bool
	depends on DEBUG && !BROKEN
`)

	vm, err := Load(path)
	require.NoError(t, err)

	debug := vm.Variable("CONFIG_DEBUG")
	require.NotNil(t, debug)
	require.Contains(t, debug.UsedInConstraintsOf, "CONFIG_ADDITION")

	addition := vm.Variable("CONFIG_ADDITION")
	require.NotNil(t, addition)
	require.NotNil(t, addition.Constraint)
	assert.Contains(t, addition.Constraint.String(), "CONFIG_DEBUG")
	// BROKEN is never declared, so no usage is recorded for it.
	assert.Nil(t, vm.Variable("CONFIG_BROKEN"))
}

func TestSelectRecordsUsageOnTarget(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
config HELPER
	bool

config GATE
	bool

config FEATURE
	bool
	select HELPER if GATE
`)

	vm, err := Load(path)
	require.NoError(t, err)

	helper := vm.Variable("CONFIG_HELPER")
	require.NotNil(t, helper)
	assert.Contains(t, helper.UsedInConstraintsOf, "CONFIG_FEATURE")

	gate := vm.Variable("CONFIG_GATE")
	require.NotNil(t, gate)
	assert.Contains(t, gate.UsedInConstraintsOf, "CONFIG_FEATURE")
}

func TestSourceDirectiveFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Kconfig.sub", `
config SUBFEATURE
	bool
`)
	path := writeFile(t, dir, "Kconfig", `
config MAIN
	bool

source "Kconfig.sub"
`)

	vm, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, vm.Variable("CONFIG_MAIN"))
	assert.NotNil(t, vm.Variable("CONFIG_SUBFEATURE"))
}

func TestHelpBlocksAreSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
config FEATURE
	bool "A feature"
	help
	  This help text mentions config OTHER and
	  depends on NOTHING, none of which is parsed.

config AFTER
	bool
`)

	vm, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, vm.Len())
	assert.Nil(t, vm.Variable("CONFIG_OTHER"))
	assert.Nil(t, vm.Variable("CONFIG_NOTHING"))
	assert.NotNil(t, vm.Variable("CONFIG_AFTER"))
}

func TestDefaultIfConditionRecordsUsage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
config BASE
	bool

config DERIVED
	bool
	default y if BASE
`)

	vm, err := Load(path)
	require.NoError(t, err)
	base := vm.Variable("CONFIG_BASE")
	require.NotNil(t, base)
	assert.Contains(t, base.UsedInConstraintsOf, "CONFIG_DERIVED")
}

func TestLoadVariableList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.txt", `
# declared variables
CONFIG_ADDITION bool
SUBTRACTION tristate
CONFIG_DEBUG
`)

	vm, err := LoadVariableList(path)
	require.NoError(t, err)

	assert.False(t, vm.HasConstraintUsage())
	assert.Equal(t, 3, vm.Len())
	require.NotNil(t, vm.Variable("CONFIG_ADDITION"))
	assert.Equal(t, "bool", vm.Variable("CONFIG_ADDITION").Type)
	assert.NotNil(t, vm.Variable("CONFIG_SUBTRACTION"))
	assert.Equal(t, "", vm.Variable("CONFIG_DEBUG").Type)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
