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
	"unicode/utf8"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/util/source"
)

// Parse constructs an expression tree from a sequence of tokens.  Problems are
// reported to the given logger, using the given location when the expression
// is empty.
func Parse(tokens []lexer.Token, location source.Location, logger diag.Logger) (*Tree, bool) {
	builder := NewBuilder(logger)
	//
	for _, token := range tokens {
		if node, ok := toNode(token, builder.ExpectingValue()); ok {
			builder.AddNode(node)
		} else {
			builder.reject(Node{Token: token})
		}
	}
	//
	return builder.Build(location)
}

func toNode(token lexer.Token, expectingValue bool) (Node, bool) {
	switch token.Kind {
	case lexer.IMMEDIATE:
		value, ok := lexer.ParseInteger(token.Text)
		return IntegerNode(value, token), ok
	case lexer.CHAR:
		text, _ := lexer.Unquote(token.Text)
		//
		if text == "" {
			return IntegerNode(0, token), true
		}
		//
		c, _ := utf8.DecodeRuneInString(text)
		//
		return IntegerNode(int64(c), token), true
	case lexer.IDENTIFIER:
		return SymbolNode(token.Text, token), true
	case lexer.LPAREN:
		return GroupNode(token), true
	case lexer.RPAREN:
		return CloseNode(token), true
	case lexer.OPERATOR:
		var (
			op Operator
			ok bool
		)
		//
		if expectingValue {
			op, ok = unaryOperator(token.Text)
		} else {
			op, ok = binaryOperator(token.Text)
		}
		//
		return OperationNode(op, token), ok
	}
	//
	return Node{}, false
}
