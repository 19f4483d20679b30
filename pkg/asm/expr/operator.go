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

import "fmt"

// Operator is one of a closed set of arithmetic and bitwise operators.
type Operator uint8

const (
	// ADD is binary "+"
	ADD Operator = iota
	// SUB is binary "-"
	SUB
	// MUL is "*"
	MUL
	// DIV is "/" (truncating)
	DIV
	// MOD is "%"
	MOD
	// AND is "&"
	AND
	// OR is "|"
	OR
	// XOR is "^"
	XOR
	// SHL is "<<"
	SHL
	// SHR is ">>" (arithmetic)
	SHR
	// PLUS is unary "+"
	PLUS
	// NEG is unary "-"
	NEG
	// NOT is unary "~"
	NOT
)

// IsUnary determines whether this operator takes a single operand.
func (op Operator) IsUnary() bool {
	return op >= PLUS
}

// Precedence returns the binding strength of this operator, where larger
// values bind more tightly.
func (op Operator) Precedence() uint {
	switch op {
	case PLUS, NEG, NOT:
		return 7
	case MUL, DIV, MOD:
		return 6
	case ADD, SUB:
		return 5
	case SHL, SHR:
		return 4
	case AND:
		return 3
	case XOR:
		return 2
	case OR:
		return 1
	}
	//
	panic("unreachable")
}

func (op Operator) String() string {
	switch op {
	case ADD, PLUS:
		return "+"
	case SUB, NEG:
		return "-"
	case MUL:
		return "*"
	case DIV:
		return "/"
	case MOD:
		return "%"
	case AND:
		return "&"
	case OR:
		return "|"
	case XOR:
		return "^"
	case SHL:
		return "<<"
	case SHR:
		return ">>"
	case NOT:
		return "~"
	}
	//
	panic("unreachable")
}

// verb describes this operator in a diagnostic.
func (op Operator) verb() string {
	switch op {
	case ADD, PLUS:
		return "add"
	case SUB:
		return "subtract"
	case MUL:
		return "multiply"
	case DIV:
		return "divide"
	case MOD:
		return "take modulus of"
	case AND:
		return "and"
	case OR:
		return "or"
	case XOR:
		return "xor"
	case SHL, SHR:
		return "shift"
	case NEG:
		return "negate"
	case NOT:
		return "complement"
	}
	//
	panic("unreachable")
}

// binaryOperator maps the text of an operator token to a binary operator.
func binaryOperator(text string) (Operator, bool) {
	switch text {
	case "+":
		return ADD, true
	case "-":
		return SUB, true
	case "*":
		return MUL, true
	case "/":
		return DIV, true
	case "%":
		return MOD, true
	case "&":
		return AND, true
	case "|":
		return OR, true
	case "^":
		return XOR, true
	case "<<":
		return SHL, true
	case ">>":
		return SHR, true
	}
	//
	return 0, false
}

// unaryOperator maps the text of an operator token to a unary operator.
func unaryOperator(text string) (Operator, bool) {
	switch text {
	case "+":
		return PLUS, true
	case "-":
		return NEG, true
	case "~":
		return NOT, true
	}
	//
	return 0, false
}

// Native applies a binary operator to two plain integers.  The divisor of DIV
// and MOD must be non-zero.
func Native(op Operator, l int64, r int64) int64 {
	switch op {
	case ADD:
		return l + r
	case SUB:
		return l - r
	case MUL:
		return l * r
	case DIV:
		return l / r
	case MOD:
		return l % r
	case AND:
		return l & r
	case OR:
		return l | r
	case XOR:
		return l ^ r
	case SHL:
		return l << uint64(r&63)
	case SHR:
		return l >> uint64(r&63)
	}
	//
	panic(fmt.Sprintf("operator %s is not binary", op))
}
