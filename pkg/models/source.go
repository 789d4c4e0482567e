package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/varmap/varmap/pkg/logic"
	"github.com/zeebo/blake3"
)

// SourceFile is one solution-space code artifact: a file together with the
// tree of conditional code regions extracted from it.
type SourceFile struct {
	Path     string         `json:"path"`
	Elements []*CodeElement `json:"elements,omitempty"`
}

// Name returns the file name without its directory.
func (f *SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// CodeElement is a conditional code region within a source file. Condition
// holds the region's full presence condition, conjoined with all enclosing
// regions; nil means the region is unconditional. Children are nested
// regions, in document order.
type CodeElement struct {
	File      string         `json:"file"`
	StartLine uint32         `json:"start_line"`
	EndLine   uint32         `json:"end_line"`
	Condition logic.Formula  `json:"-"`
	Children  []*CodeElement `json:"children,omitempty"`

	id string
}

// ID returns a stable content-derived identifier for the element, used for
// set identity and in serialized output.
func (e *CodeElement) ID() string {
	if e.id == "" {
		sum := blake3.Sum256(fmt.Appendf(nil, "%s:%d:%d", e.File, e.StartLine, e.EndLine))
		e.id = hex.EncodeToString(sum[:8])
	}
	return e.id
}

// Location renders the element as file[start:end] for reporting.
func (e *CodeElement) Location() string {
	return fmt.Sprintf("%s[%d:%d]", filepath.Base(e.File), e.StartLine, e.EndLine)
}

// MarshalJSON includes the rendered condition alongside the element fields.
func (e *CodeElement) MarshalJSON() ([]byte, error) {
	type alias CodeElement
	condition := ""
	if e.Condition != nil {
		condition = e.Condition.String()
	}
	return json.Marshal(struct {
		*alias
		ID        string `json:"id"`
		Condition string `json:"condition,omitempty"`
	}{(*alias)(e), e.ID(), condition})
}

// marshalJSON is a tiny indirection so model types can share the encoder.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
