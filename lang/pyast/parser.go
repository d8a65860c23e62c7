// Copyright 2025 the EVUA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pyast wraps the tree-sitter Python grammar behind the small
// surface the transformation stages need: parse, locate the first
// syntax error, and walk nodes with byte offsets so edits can be
// applied as reverse-sorted textual patches.
package pyast

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser parses Python source text. A Parser is not safe for concurrent
// use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser returns a parser configured with the Python grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse returns the syntax tree for content. Tree-sitter always
// produces a tree; syntax errors appear as ERROR or missing nodes.
// Callers must Close the returned tree.
func (p *Parser) Parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	return p.parser.ParseCtx(ctx, nil, content)
}

// SyntaxError locates the first unparseable region of a source file.
// Legacy marks a construct the grammar accepts but the modern
// interpreter rejects.
type SyntaxError struct {
	Line    int // 1-based
	Snippet string
	Missing bool
	Legacy  bool
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Legacy:
		return fmt.Sprintf("line %d: legacy-only syntax near %q", e.Line, e.Snippet)
	case e.Missing:
		return fmt.Sprintf("line %d: missing syntax near %q", e.Line, e.Snippet)
	}
	return fmt.Sprintf("line %d: invalid syntax near %q", e.Line, e.Snippet)
}

// Check parses content and returns the first syntax error, or nil when
// the source is valid modern Python. Python-2-only statement forms the
// grammar tolerates are reported as legacy syntax errors so the
// recovery loop sees them.
func (p *Parser) Check(ctx context.Context, content []byte) (*SyntaxError, error) {
	tree, err := p.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return firstLegacyConstruct(content), nil
	}

	node := firstErrorNode(root)
	if node == nil {
		// HasError with no locatable node: blame the last line.
		return &SyntaxError{Line: int(root.EndPoint().Row) + 1}, nil
	}
	snippet := string(content[node.StartByte():min(node.EndByte(), node.StartByte()+40)])
	snippet = strings.TrimSpace(strings.SplitN(snippet, "\n", 2)[0])
	return &SyntaxError{
		Line:    int(node.StartPoint().Row) + 1,
		Snippet: snippet,
		Missing: node.IsMissing(),
	}, nil
}

// Parseable reports whether content is valid modern Python.
func (p *Parser) Parseable(ctx context.Context, content []byte) bool {
	serr, err := p.Check(ctx, content)
	return err == nil && serr == nil
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
