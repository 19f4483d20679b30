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
package insn

import (
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/expr"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/util/source"
)

// OperandKind distinguishes the syntactic forms of an operand.
type OperandKind uint8

const (
	// REGISTER_OPERAND is a single register, such as "$t0"
	REGISTER_OPERAND OperandKind = iota
	// EXPRESSION_OPERAND is an arbitrary expression, such as "label+4"
	EXPRESSION_OPERAND
	// MEMORY_OPERAND is an optional offset followed by a base register, such
	// as "4($sp)" or "($a0)"
	MEMORY_OPERAND
)

// Operand is a syntactically valid (but not yet evaluated) operand.
type Operand struct {
	Kind OperandKind
	// Register operand, or base register of a memory operand
	Register isa.Register
	// Expression operand, or offset of a memory operand (nil if omitted)
	Expr *expr.Tree
	// Location and text of the first token
	Location source.Location
	Text     string
}

// ParseOperand parses a single operand from its tokens.  Problems are reported
// to the given logger, using the given location if there are no tokens.
func ParseOperand(tokens []lexer.Token, location source.Location, logger diag.Logger) (Operand, bool) {
	var operand Operand
	//
	if len(tokens) == 0 {
		diag.Report(logger, diag.IncompleteExpression, location, nil)
		return operand, false
	}
	//
	operand.Location = tokens[0].Location
	operand.Text = tokens[0].Text
	// Register?
	if len(tokens) == 1 && tokens[0].Kind == lexer.REGISTER {
		reg, ok := parseRegister(tokens[0], logger)
		operand.Kind = REGISTER_OPERAND
		operand.Register = reg
		//
		return operand, ok
	}
	// Memory?
	if n := len(tokens); n >= 3 && tokens[n-3].Kind == lexer.LPAREN && tokens[n-2].Kind == lexer.REGISTER &&
		tokens[n-1].Kind == lexer.RPAREN {
		reg, ok := parseRegister(tokens[n-2], logger)
		operand.Kind = MEMORY_OPERAND
		operand.Register = reg
		//
		if n > 3 {
			tree, eok := expr.Parse(tokens[:n-3], location, logger)
			operand.Expr = tree
			ok = ok && eok
		}
		//
		return operand, ok
	}
	// Expression
	tree, ok := expr.Parse(tokens, location, logger)
	operand.Kind = EXPRESSION_OPERAND
	operand.Expr = tree
	//
	return operand, ok
}

func parseRegister(token lexer.Token, logger diag.Logger) (isa.Register, bool) {
	reg, ok := isa.ParseRegister(token.Text)
	//
	if !ok {
		diag.Report(logger, diag.UnknownRegister, token.Location, []string{token.Text}, token.Text)
	}
	//
	return reg, ok
}

// accepts determines whether an operand of this kind can be supplied for a
// given argument.
func (k OperandKind) accepts(arg isa.Argument) bool {
	switch arg {
	case isa.RS, isa.RT, isa.RD:
		return k == REGISTER_OPERAND
	case isa.MEMORY:
		return k == MEMORY_OPERAND
	default:
		return k == EXPRESSION_OPERAND
	}
}
