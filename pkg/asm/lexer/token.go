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
package lexer

import (
	"fmt"

	"github.com/consensys/go-mips/pkg/util/source"
)

// Kind classifies a token.
type Kind uint8

const (
	// UNKNOWN signals a token which could not be classified.
	UNKNOWN Kind = iota
	// LABEL signals a label definition "name:" (the colon is not included in
	// the token's text).
	LABEL
	// DIRECTIVE signals an assembler directive, such as ".text"
	DIRECTIVE
	// INSTRUCTION signals an instruction mnemonic
	INSTRUCTION
	// REGISTER signals a register name, such as "$t0"
	REGISTER
	// IMMEDIATE signals an integer literal
	IMMEDIATE
	// STRING signals a double-quoted string literal
	STRING
	// CHAR signals a single-quoted character literal
	CHAR
	// COMMENT signals "# ..." up to the end of the line
	COMMENT
	// WHITESPACE signals a run of spaces and tabs
	WHITESPACE
	// IDENTIFIER signals a symbol name used as an operand
	IDENTIFIER
	// OPERATOR signals an arithmetic or bitwise operator
	OPERATOR
	// COMMA signals ","
	COMMA
	// LPAREN signals "("
	LPAREN
	// RPAREN signals ")"
	RPAREN
)

var kindNames = [...]string{
	"unknown", "label", "directive", "instruction", "register", "immediate", "string", "char",
	"comment", "whitespace", "identifier", "operator", "comma", "lparen", "rparen",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	//
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Token is a classified fragment of a source line, along with the location of
// its first character.  Tokens are immutable once produced.
type Token struct {
	Text     string
	Kind     Kind
	Location source.Location
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Location)
}

// Describe returns a short description of this token, suitable for use within
// a diagnostic.
func (t Token) Describe() string {
	switch t.Kind {
	case STRING, CHAR:
		return fmt.Sprintf("%s literal", t.Kind)
	default:
		return fmt.Sprintf("%s \"%s\"", t.Kind, t.Text)
	}
}

// AssemblyLine is the complete sequence of tokens for one physical line.
type AssemblyLine struct {
	File   string
	Number int
	Text   string
	Tokens []Token
}

// Significant returns the tokens of this line, excluding any whitespace and
// comments.
func (p AssemblyLine) Significant() []Token {
	var tokens []Token
	//
	for _, t := range p.Tokens {
		if t.Kind != WHITESPACE && t.Kind != COMMENT {
			tokens = append(tokens, t)
		}
	}
	//
	return tokens
}

// Location returns the location of the start of this line.
func (p AssemblyLine) Location() source.Location {
	return source.NewLocation(p.File, p.Number, 0)
}
