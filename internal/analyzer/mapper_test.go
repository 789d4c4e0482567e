package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varmap/varmap/pkg/config"
	"github.com/varmap/varmap/pkg/models"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMapperRequiresVariabilityModel(t *testing.T) {
	m := NewMapper(nil)
	_, err := m.Run(nil, nil, "", nil, nil)
	require.Error(t, err)
}

func TestMapperCodeOnlyRun(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.c", `#ifdef CONFIG_ADDITION
int add;
#ifdef CONFIG_DEBUG
int trace;
#endif
#endif
`)

	vm := newModel(false, "CONFIG_ADDITION", "CONFIG_DEBUG", "CONFIG_CALCULATION")
	m := NewMapper(config.DefaultConfig())

	result, err := m.Run(vm, nil, dir, []string{src}, nil)
	require.NoError(t, err)

	// Missing build model and missing constraint usage both warn.
	assert.Len(t, result.Warnings, 2)
	assert.Equal(t, Summary{Total: 3, Used: 2, Unused: 1}, result.Summary)

	states := map[string]models.MappingState{}
	for _, e := range result.Elements {
		states[e.VariableName()] = e.State()
	}
	assert.Equal(t, models.StateUsed, states["CONFIG_ADDITION"])
	assert.Equal(t, models.StateUsed, states["CONFIG_DEBUG"])
	assert.Equal(t, models.StateUnused, states["CONFIG_CALCULATION"])
}

func TestMapperWithBuildModel(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "feature.c", "int f;\n")

	vm := newModel(true, "CONFIG_FEATURE")
	bm := models.NewBuildModel()
	bm.SetCondition("feature.c", mustParse(t, "CONFIG_FEATURE"))

	m := NewMapper(config.DefaultConfig())
	result, err := m.Run(vm, bm, dir, []string{filepath.Join(dir, "feature.c")}, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	require.Len(t, result.Elements, 1)
	e := result.Elements[0]
	assert.Equal(t, models.StateUsed, e.State())
	assert.Equal(t, "feature.c", e.ControlledFilesString())
}

func TestMapperResolvesUnusedBeforeRead(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.c", "#ifdef CONFIG_ADDITION\nint a;\n#endif\n")

	vm := models.NewVariabilityModel(true)
	debug := &models.VariabilityVariable{Name: "CONFIG_DEBUG", Type: "bool"}
	addition := &models.VariabilityVariable{Name: "CONFIG_ADDITION", Type: "bool"}
	debug.RecordConstraintUsage(addition)
	vm.Add(debug)
	vm.Add(addition)

	m := NewMapper(config.DefaultConfig())
	result, err := m.Run(vm, nil, dir, []string{src}, nil)
	require.NoError(t, err)

	states := map[string]models.MappingState{}
	for _, e := range result.Elements {
		states[e.VariableName()] = e.State()
	}
	assert.Equal(t, models.StateUsed, states["CONFIG_ADDITION"])
	assert.Equal(t, models.StateUnmapped, states["CONFIG_DEBUG"])
}

func TestMapperAppliesVariableFilter(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.c", `#if defined(CONFIG_NET) && defined(DEBUG_LOCAL)
int n;
#endif
`)

	vm := newModel(false, "CONFIG_NET")
	m := NewMapper(config.DefaultConfig())
	result, err := m.Run(vm, nil, dir, []string{src}, nil)
	require.NoError(t, err)

	// DEBUG_LOCAL does not match CONFIG_.* and never becomes an element.
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "CONFIG_NET", result.Elements[0].VariableName())
	assert.Equal(t, models.StateUsed, result.Elements[0].State())
}

func TestMapperReportsUndefined(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.c", "#ifdef CONFIG_GHOST\nint g;\n#endif\n")

	vm := newModel(true, "CONFIG_REAL")
	m := NewMapper(config.DefaultConfig())
	result, err := m.Run(vm, nil, dir, []string{src}, nil)
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 2, Unused: 1, Undefined: 1}, result.Summary)
}

func TestMapperSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.c", "#ifdef CONFIG_A\nint a;\n#endif\n")
	missing := filepath.Join(dir, "missing.c")

	vm := newModel(false, "CONFIG_A")
	m := NewMapper(config.DefaultConfig())
	result, err := m.Run(vm, nil, dir, []string{good, missing}, nil)
	require.NoError(t, err)

	var skipWarning bool
	for _, w := range result.Warnings {
		if strings.Contains(w, missing) {
			skipWarning = true
		}
	}
	assert.True(t, skipWarning, "expected a skip warning for the unreadable file")
	assert.Equal(t, 1, result.Summary.Used)
}

func TestMapperInvalidRegex(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mapping.VariableRegex = "["
	m := NewMapper(cfg)
	_, err := m.Run(newModel(false, "CONFIG_A"), nil, "", nil, nil)
	require.Error(t, err)
}
