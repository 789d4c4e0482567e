// Package extractor parses C sources and extracts the preprocessor
// conditional regions as code elements with presence conditions.
package extractor

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/varmap/varmap/internal/fileproc"
	"github.com/varmap/varmap/pkg/logic"
	"github.com/varmap/varmap/pkg/models"
)

// Parser wraps a tree-sitter C parser. Not safe for concurrent use; create
// one per worker.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a parser for C sources.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(c.GetLanguage())
	return &Parser{parser: p}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// ExtractFile parses one C file and returns its conditional regions as a
// nested element tree. A file without conditionals yields an empty tree, not
// an error.
func (p *Parser) ExtractFile(path string) (*models.SourceFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file: %w", err)
	}
	return p.Extract(source, path)
}

// Extract parses in-memory source.
func (p *Parser) Extract(source []byte, path string) (*models.SourceFile, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	return &models.SourceFile{
		Path:     path,
		Elements: extractChildren(tree.RootNode(), source, path, nil),
	}, nil
}

// ExtractFiles extracts all given files in parallel, one parser per worker.
// Unreadable or unparseable files are reported through onError and skipped.
func ExtractFiles(paths []string, onProgress fileproc.ProgressFunc, onError fileproc.ErrorFunc) []*models.SourceFile {
	return fileproc.MapFilesWithResource(paths,
		func() (*Parser, error) { return NewParser(), nil },
		func(p *Parser) { p.Close() },
		func(p *Parser, path string) (*models.SourceFile, error) {
			return p.ExtractFile(path)
		},
		onProgress, onError)
}

func isConditional(nodeType string) bool {
	return nodeType == "preproc_if" || nodeType == "preproc_ifdef"
}

// extractChildren walks node's subtree collecting conditional regions, with
// enclosing as the presence condition inherited from surrounding regions.
func extractChildren(node *sitter.Node, source []byte, path string, enclosing logic.Formula) []*models.CodeElement {
	var elements []*models.CodeElement
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if isConditional(child.Type()) {
			elements = append(elements, extractConditional(child, source, path, enclosing)...)
			continue
		}
		elements = append(elements, extractChildren(child, source, path, enclosing)...)
	}
	return elements
}

// extractConditional turns an #if/#ifdef directive and its #elif/#else chain
// into one element per branch. Each branch's condition is the enclosing
// condition, conjoined with the negations of all earlier branches in the
// chain, conjoined with the branch's own expression.
func extractConditional(node *sitter.Node, source []byte, path string, enclosing logic.Formula) []*models.CodeElement {
	// The #endif token belongs to the outermost node of the chain.
	endifLine := node.EndPoint().Row + 1

	var elements []*models.CodeElement
	var negations []logic.Formula

	branch := node
	for branch != nil {
		own := branchCondition(branch, source)
		alternative := branchAlternative(branch)

		parts := make([]logic.Formula, 0, len(negations)+2)
		parts = append(parts, enclosing)
		parts = append(parts, negations...)
		if own != nil {
			parts = append(parts, own)
		}
		condition := logic.Conjunction(parts...)
		if condition == logic.True {
			condition = nil
		}

		startLine := branch.StartPoint().Row + 1
		endLine := endifLine
		if alternative != nil {
			endLine = alternative.StartPoint().Row
		}

		elements = append(elements, &models.CodeElement{
			File:      path,
			StartLine: startLine,
			EndLine:   endLine,
			Condition: condition,
			Children:  branchChildren(branch, alternative, source, path, condition),
		})

		if own != nil {
			negations = append(negations, logic.Not{Operand: own})
		}
		branch = alternative
	}
	return elements
}

// branchCondition extracts the branch's own expression. #else has none; an
// expression that fails to parse also yields nil, which marks the region
// unconditional without aborting extraction.
func branchCondition(branch *sitter.Node, source []byte) logic.Formula {
	switch branch.Type() {
	case "preproc_ifdef":
		name := branch.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		var f logic.Formula = logic.Variable{Name: nodeText(name, source)}
		if directive := branch.Child(0); directive != nil && nodeText(directive, source) == "#ifndef" {
			f = logic.Not{Operand: f}
		}
		return f
	case "preproc_if", "preproc_elif":
		cond := branch.ChildByFieldName("condition")
		if cond == nil {
			return nil
		}
		f, err := logic.Parse(nodeText(cond, source))
		if err != nil {
			return nil
		}
		if f == logic.True || f == logic.False {
			return nil
		}
		return f
	default: // preproc_else
		return nil
	}
}

// branchAlternative returns the #elif/#else continuation of a branch, nil at
// the end of the chain.
func branchAlternative(branch *sitter.Node) *sitter.Node {
	if alt := branch.ChildByFieldName("alternative"); alt != nil {
		return alt
	}
	// Older grammar revisions expose the alternative as a plain child.
	for i := 0; i < int(branch.ChildCount()); i++ {
		child := branch.Child(i)
		if child != nil && (child.Type() == "preproc_elif" || child.Type() == "preproc_else") {
			return child
		}
	}
	return nil
}

// branchChildren collects the nested conditional regions inside one branch
// body, excluding the alternative subtree which is the next branch.
func branchChildren(branch, alternative *sitter.Node, source []byte, path string, condition logic.Formula) []*models.CodeElement {
	var children []*models.CodeElement
	for i := 0; i < int(branch.ChildCount()); i++ {
		child := branch.Child(i)
		if child == nil || child == alternative {
			continue
		}
		if child.Type() == "preproc_elif" || child.Type() == "preproc_else" {
			continue
		}
		if isConditional(child.Type()) {
			children = append(children, extractConditional(child, source, path, condition)...)
			continue
		}
		children = append(children, extractChildren(child, source, path, condition)...)
	}
	return children
}

func nodeText(node *sitter.Node, source []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
