package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varmap/varmap/pkg/config"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	sort.Strings(names)
	return names
}

func TestScanDirCollectsInputs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Kconfig":          "config FEATURE\n\tbool\n",
		"Makefile":         "obj-$(CONFIG_FEATURE) += feature.o\n",
		"feature.c":        "#ifdef CONFIG_FEATURE\nint f;\n#endif\n",
		"include/api.h":    "#ifndef API_H\n#define API_H\n#endif\n",
		"drivers/Kbuild":   "obj-y += d.o\n",
		"drivers/d.c":      "int d;\n",
		"README.md":        "docs\n",
		"scripts/helper.c": "int skipped;\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	s := NewScanner(cfg)

	inputs, err := s.ScanDir(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"api.h", "d.c", "feature.c"}, baseNames(inputs.Sources))
	assert.Equal(t, []string{"Kbuild", "Makefile"}, baseNames(inputs.BuildFiles))
	assert.Equal(t, filepath.Join(root, "Kconfig"), inputs.KconfigFile)
}

func TestScanDirHonorsExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.c":       "int k;\n",
		"skip.mod.c":   "int s;\n",
		"vendor/bad.c": "int b;\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	cfg.Exclude.Dirs = append(cfg.Exclude.Dirs, "vendor")
	s := NewScanner(cfg)

	inputs, err := s.ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.c"}, baseNames(inputs.Sources))
}

func TestScanDirMissingKconfig(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.c": "int a;\n"})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	s := NewScanner(cfg)

	inputs, err := s.ScanDir(root)
	require.NoError(t, err)
	assert.Empty(t, inputs.KconfigFile)
	assert.Empty(t, inputs.BuildFiles)
	assert.Equal(t, []string{"a.c"}, baseNames(inputs.Sources))
}

func TestScanDirCustomKconfigName(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Kconfig.board": "config BOARD\n\tbool\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	cfg.Mapping.KconfigFile = "Kconfig.board"
	s := NewScanner(cfg)

	inputs, err := s.ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Kconfig.board"), inputs.KconfigFile)
}

func TestScanDirNonexistentRoot(t *testing.T) {
	s := NewScanner(config.DefaultConfig())
	_, err := s.ScanDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
