package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatToon},
		{"text", FormatText},
		{"", FormatText},
		{"bogus", FormatText},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFormat(tt.input), tt.input)
	}
}

func sampleTable() *Table {
	return NewTable(
		"Variability Mapping",
		[]string{"Variable", "State"},
		[][]string{
			{"CONFIG_ADDITION", "USED"},
			{"CONFIG_DEBUG", "UNMAPPED"},
		},
		nil, nil)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "Variability Mapping")
	assert.Contains(t, out, "CONFIG_ADDITION")
	assert.Contains(t, out, "UNMAPPED")
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderMarkdown(&buf))

	out := buf.String()
	assert.Contains(t, out, "## Variability Mapping")
	assert.Contains(t, out, "| Variable | State |")
	assert.Contains(t, out, "| CONFIG_ADDITION | USED |")
}

func TestTableRenderData(t *testing.T) {
	data := sampleTable().RenderData()
	rows, ok := data.([]map[string]string)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "CONFIG_ADDITION", rows[0]["Variable"])

	wrapped := NewTable("t", nil, nil, nil, map[string]int{"n": 1})
	assert.Equal(t, map[string]int{"n": 1}, wrapped.RenderData())
}

func TestFormatterJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)

	require.NoError(t, f.Output(sampleTable()))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "USED", decoded[0]["State"])
}

func TestFormatterToonToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toon")
	f, err := NewFormatter(FormatToon, path, false)
	require.NoError(t, err)

	require.NoError(t, f.Output(map[string]any{"variables": 4}))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "variables")
}

func TestSectionRender(t *testing.T) {
	s := &Section{Title: "Summary", Content: "4 variables, 2 used"}

	var text bytes.Buffer
	require.NoError(t, s.RenderText(&text, false))
	assert.Contains(t, text.String(), "Summary")
	assert.Contains(t, text.String(), strings.Repeat("=", len("Summary")))

	var md bytes.Buffer
	require.NoError(t, s.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "## Summary")
}
