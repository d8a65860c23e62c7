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

package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Walk visits every named node depth-first. The visitor returns false
// to skip a node's children.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		Walk(node.NamedChild(i), visit)
	}
}

// Text returns the source text a node spans.
func Text(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

// CallName returns the simple function name of a call node, or "" when
// the callee is not a plain identifier.
func CallName(call *sitter.Node, content []byte) string {
	if call.Type() != "call" {
		return ""
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return ""
	}
	return Text(fn, content)
}

// Span is a byte range in the source, used to apply textual edits in
// reverse offset order.
type Span struct {
	Start uint32
	End   uint32
	Line  int // 1-based line of the span start
}

// NodeSpan returns the byte span of a node.
func NodeSpan(node *sitter.Node) Span {
	return Span{
		Start: node.StartByte(),
		End:   node.EndByte(),
		Line:  int(node.StartPoint().Row) + 1,
	}
}
