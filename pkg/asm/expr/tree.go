// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package expr

import (
	"fmt"
	"strings"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/util/source"
)

// NodeKind identifies the kind of an expression node.
type NodeKind uint8

const (
	// INTEGER is a literal value
	INTEGER NodeKind = iota
	// SYMBOL is a reference to a named symbol
	SYMBOL
	// OPERATION applies a unary or binary operator
	OPERATION
	// GROUP opens a parenthesised subexpression
	GROUP
	// CLOSE closes the innermost open group.  Close nodes are never stored in
	// the tree.
	CLOSE
)

// Node is an element to be inserted into an expression tree.
type Node struct {
	Kind     NodeKind
	Operator Operator
	Value    int64
	Symbol   string
	// Token from which this node arose, used for reporting.
	Token lexer.Token
}

// IntegerNode constructs a literal node.
func IntegerNode(value int64, token lexer.Token) Node {
	return Node{Kind: INTEGER, Value: value, Token: token}
}

// SymbolNode constructs a symbol reference node.
func SymbolNode(name string, token lexer.Token) Node {
	return Node{Kind: SYMBOL, Symbol: name, Token: token}
}

// OperationNode constructs an operator node.
func OperationNode(op Operator, token lexer.Token) Node {
	return Node{Kind: OPERATION, Operator: op, Token: token}
}

// GroupNode constructs a node opening a parenthesised group.
func GroupNode(token lexer.Token) Node {
	return Node{Kind: GROUP, Token: token}
}

// CloseNode constructs a node closing the innermost open group.
func CloseNode(token lexer.Token) Node {
	return Node{Kind: CLOSE, Token: token}
}

// NONE is the null handle.
const NONE = -1

// entry is a node as stored in the tree's arena.  Nodes refer to each other by
// their index within the arena.
type entry struct {
	Node
	parent int
	// Binary operators use both children; unary operators and groups use only
	// the first.
	children [2]int
	// Indicates a group has been closed.
	closed bool
}

func (e *entry) isOpenGroup() bool {
	return e.Kind == GROUP && !e.closed
}

func (e *entry) isBinary() bool {
	return e.Kind == OPERATION && !e.Operator.IsUnary()
}

// Tree is a completed expression tree.
type Tree struct {
	nodes []entry
	root  int
}

// Location returns the location of the first token of this expression.  Nodes
// are stored in the order they were added, hence this is the first node.
func (t *Tree) Location() source.Location {
	return t.nodes[0].Token.Location
}

// IsSymbol determines whether this expression consists of a single symbol,
// returning its name if so.
func (t *Tree) IsSymbol() (string, bool) {
	root := &t.nodes[t.root]
	return root.Symbol, root.Kind == SYMBOL
}

// String returns this expression fully parenthesised, which is primarily
// useful for checking its structure.
func (t *Tree) String() string {
	var builder strings.Builder
	//
	t.write(&builder, t.root)
	//
	return builder.String()
}

func (t *Tree) write(builder *strings.Builder, index int) {
	n := &t.nodes[index]
	//
	switch {
	case n.Kind == INTEGER:
		builder.WriteString(fmt.Sprintf("%d", n.Value))
	case n.Kind == SYMBOL:
		builder.WriteString(n.Symbol)
	case n.Kind == GROUP:
		t.write(builder, n.children[0])
	case n.isBinary():
		builder.WriteString("(")
		t.write(builder, n.children[0])
		builder.WriteString(fmt.Sprintf(" %s ", n.Operator))
		t.write(builder, n.children[1])
		builder.WriteString(")")
	default:
		builder.WriteString("(")
		builder.WriteString(n.Operator.String())
		t.write(builder, n.children[0])
		builder.WriteString(")")
	}
}

// ============================================================================
// Builder
// ============================================================================

// Builder incrementally constructs an expression tree, one node at a time, in
// the order they appear in the source.  Rather than re-parsing, each binary
// operator is spliced into the right spine of the tree according to its
// precedence.
type Builder struct {
	logger diag.Logger
	nodes  []entry
	root   int
	// The node most recently inserted (or the group most recently closed).
	// When a value is expected, this is the operator (or open group) whose
	// empty child slot the value will fill.
	active int
	// Indicates whether a value (or prefix operator) is expected next.
	expecting bool
	// Indicates some node was rejected.
	failed bool
}

// NewBuilder constructs an empty builder, which reports malformed expressions
// to a given logger.
func NewBuilder(logger diag.Logger) *Builder {
	return &Builder{logger: logger, root: NONE, active: NONE, expecting: true}
}

// ExpectingValue determines whether the next node must be a value (or prefix
// operator), rather than a binary operator.
func (b *Builder) ExpectingValue() bool {
	return b.expecting
}

// AddNode inserts a node into the tree being built.  This returns false (and
// reports a diagnostic) if the node cannot appear at this point.
func (b *Builder) AddNode(node Node) bool {
	switch {
	case node.Kind == CLOSE:
		return b.closeGroup(node)
	case node.Kind == OPERATION && !node.Operator.IsUnary():
		return b.addInfix(node)
	default:
		return b.addPrefixOrValue(node)
	}
}

// Build completes the tree, returning false if the expression is incomplete or
// some node was rejected.
func (b *Builder) Build(location source.Location) (*Tree, bool) {
	switch {
	case b.failed:
		return nil, false
	case b.root == NONE || b.expecting:
		diag.Report(b.logger, diag.IncompleteExpression, b.lastLocation(location), nil)
		return nil, false
	}
	//
	for i := range b.nodes {
		if b.nodes[i].isOpenGroup() {
			diag.Report(b.logger, diag.UnbalancedParenthesis, b.nodes[i].Token.Location,
				[]string{b.nodes[i].Token.Text})
			//
			return nil, false
		}
	}
	//
	return &Tree{b.nodes, b.root}, true
}

func (b *Builder) lastLocation(fallback source.Location) source.Location {
	if len(b.nodes) == 0 {
		return fallback
	}
	//
	return b.nodes[len(b.nodes)-1].Token.Location
}

func (b *Builder) addPrefixOrValue(node Node) bool {
	if !b.expecting {
		return b.reject(node)
	}
	//
	index := b.alloc(node)
	//
	if b.root == NONE {
		b.root = index
	} else {
		b.nodes[index].parent = b.active
		//
		if b.nodes[b.active].isBinary() {
			b.nodes[b.active].children[1] = index
		} else {
			b.nodes[b.active].children[0] = index
		}
	}
	//
	b.active = index
	// Operators and groups still need their operand
	b.expecting = node.Kind == OPERATION || node.Kind == GROUP
	//
	return true
}

func (b *Builder) addInfix(node Node) bool {
	if b.expecting {
		return b.reject(node)
	}
	//
	var (
		prec   = node.Operator.Precedence()
		child  = b.active
		parent = b.nodes[child].parent
	)
	// Walk up whilst the parent binds at least as tightly, giving
	// left-associativity.  An open group is a barrier.
	for parent != NONE && !b.nodes[parent].isOpenGroup() && operatorPrecedence(&b.nodes[parent]) >= prec {
		child = parent
		parent = b.nodes[child].parent
	}
	//
	index := b.alloc(node)
	b.nodes[index].parent = parent
	b.nodes[index].children[0] = child
	b.nodes[child].parent = index
	//
	if parent == NONE {
		b.root = index
	} else if b.nodes[parent].children[1] == child {
		b.nodes[parent].children[1] = index
	} else {
		b.nodes[parent].children[0] = index
	}
	//
	b.active = index
	b.expecting = true
	//
	return true
}

func (b *Builder) closeGroup(node Node) bool {
	if b.expecting {
		return b.reject(node)
	}
	//
	group := b.active
	//
	for group != NONE && !b.nodes[group].isOpenGroup() {
		group = b.nodes[group].parent
	}
	//
	if group == NONE {
		b.failed = true
		diag.Report(b.logger, diag.UnbalancedParenthesis, node.Token.Location, []string{node.Token.Text})
		//
		return false
	}
	//
	b.nodes[group].closed = true
	b.active = group
	//
	return true
}

func (b *Builder) alloc(node Node) int {
	b.nodes = append(b.nodes, entry{node, NONE, [2]int{NONE, NONE}, false})
	return len(b.nodes) - 1
}

func (b *Builder) reject(node Node) bool {
	b.failed = true
	diag.Report(b.logger, diag.UnexpectedExprToken, node.Token.Location, []string{node.Token.Text},
		node.Token.Describe())
	//
	return false
}

// Precedence of a node on the right spine.  Closed groups and values never
// appear as parents, hence only operators need be considered.
func operatorPrecedence(e *entry) uint {
	if e.Kind != OPERATION {
		panic("unreachable")
	}
	//
	return e.Operator.Precedence()
}
