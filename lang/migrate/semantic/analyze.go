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

package semantic

import (
	"context"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Shreyas20004/EVUA/lang/pyast"
)

// Edit is one textual patch: replace the byte span with Text. Edits are
// produced per rule from a parsed tree and applied as one batch in
// reverse offset order, so column positions stay valid throughout.
type Edit struct {
	Span pyast.Span
	Text string
	Rule string
}

// applyEdits patches content with all non-overlapping edits, highest
// offset first.
func applyEdits(content []byte, edits []Edit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].Span.Start > edits[j].Span.Start })
	out := content
	prevStart := uint32(len(content)) + 1
	for _, e := range edits {
		if e.Span.End > prevStart || int(e.Span.End) > len(out) {
			continue // overlapping or stale edit
		}
		out = append(out[:e.Span.Start:e.Span.Start], append([]byte(e.Text), out[e.Span.End:]...)...)
		prevStart = e.Span.Start
	}
	return out
}

var (
	futureDivisionRe = regexp.MustCompile(`(?m)^\s*from\s+__future__\s+import\s+.*\bdivision\b`)
	counterNameRe    = regexp.MustCompile(`^(i|j|k|n|m|count|idx|index|num|size|len|length)$`)
)

// intLikeCalls return integer results, so dividing them is at risk of
// the legacy floor behavior.
var intLikeCalls = map[string]bool{"len": true, "int": true, "range": true}

// hasFutureDivision reports whether the unit opted in to
// forward-compatible division semantics; the division rewrite is
// skipped entirely in that case.
func hasFutureDivision(content []byte) bool {
	return futureDivisionRe.Match(content)
}

// likelyInteger is the best-effort operand heuristic: literal integers,
// counter-like identifier names, and calls known to return ints. It is
// a lint, not a soundness guarantee.
func likelyInteger(node *sitter.Node, content []byte) bool {
	switch node.Type() {
	case "integer":
		return true
	case "identifier":
		return counterNameRe.MatchString(pyast.Text(node, content))
	case "call":
		return intLikeCalls[pyast.CallName(node, content)]
	case "parenthesized_expression":
		if node.NamedChildCount() == 1 {
			return likelyInteger(node.NamedChild(0), content)
		}
	}
	return false
}

// divisionEdits rewrites / to // where both operands are heuristically
// integer-typed.
func divisionEdits(root *sitter.Node, content []byte) []Edit {
	var edits []Edit
	pyast.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "binary_operator" {
			return true
		}
		op := n.ChildByFieldName("operator")
		if op == nil || pyast.Text(op, content) != "/" {
			return true
		}
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		if left == nil || right == nil {
			return true
		}
		if likelyInteger(left, content) && likelyInteger(right, content) {
			edits = append(edits, Edit{Span: pyast.NodeSpan(op), Text: "//", Rule: "safe_division"})
		}
		return true
	})
	return edits
}

// iteratorProducers return lazy iterators in the modern dialect where
// the legacy dialect returned lists.
var iteratorProducers = map[string]bool{"map": true, "filter": true, "zip": true}

// iteratorEdits wraps iterator-returning builtins in an explicit list
// materialization when they are used in a list-requiring context:
// subscripting or len().
func iteratorEdits(root *sitter.Node, content []byte) []Edit {
	var edits []Edit
	wrap := func(call *sitter.Node) {
		span := pyast.NodeSpan(call)
		edits = append(edits, Edit{
			Span: span,
			Text: "list(" + pyast.Text(call, content) + ")",
			Rule: "wrap_iterator",
		})
	}

	pyast.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "subscript":
			value := n.ChildByFieldName("value")
			if value != nil && iteratorProducers[pyast.CallName(value, content)] {
				wrap(value)
			}
		case "call":
			if pyast.CallName(n, content) != "len" {
				return true
			}
			args := n.ChildByFieldName("arguments")
			if args == nil {
				return true
			}
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				if iteratorProducers[pyast.CallName(arg, content)] {
					wrap(arg)
				}
			}
		}
		return true
	})
	return edits
}

// encodingEdits appends an explicit text encoding to open() calls that
// have neither an encoding keyword nor a binary mode.
func encodingEdits(root *sitter.Node, content []byte) []Edit {
	var edits []Edit
	pyast.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "call" || pyast.CallName(n, content) != "open" {
			return true
		}
		args := n.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			return true
		}
		positional := 0
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() == "keyword_argument" {
				name := arg.ChildByFieldName("name")
				if name != nil && pyast.Text(name, content) == "encoding" {
					return true
				}
				continue
			}
			positional++
			if positional == 2 && arg.Type() == "string" && strings.Contains(pyast.Text(arg, content), "b") {
				return true // binary mode
			}
		}
		// Insert before the argument list's closing paren.
		end := args.EndByte() - 1
		edits = append(edits, Edit{
			Span: pyast.Span{Start: end, End: end, Line: int(n.StartPoint().Row) + 1},
			Text: ", encoding='utf-8'",
			Rule: "explicit_encoding",
		})
		return true
	})
	return edits
}

// AnalyzeContent parses a unit and returns all semantic-risk edits.
func AnalyzeContent(ctx context.Context, parser *pyast.Parser, content []byte) ([]Edit, error) {
	tree, err := parser.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	var edits []Edit
	if !hasFutureDivision(content) {
		edits = append(edits, divisionEdits(root, content)...)
	}
	edits = append(edits, iteratorEdits(root, content)...)
	edits = append(edits, encodingEdits(root, content)...)
	return edits, nil
}
