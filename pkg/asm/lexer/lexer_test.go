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
	"slices"
	"testing"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/util/assert"
)

func Test_Lexer_Instruction(t *testing.T) {
	line, errs := tokenize("main: addi $s0, $t0, 100 # comment")
	//
	assert.Equal(t, uint(0), errs.Errors())
	checkKinds(t, line, LABEL, INSTRUCTION, REGISTER, COMMA, REGISTER, COMMA, IMMEDIATE)
	checkTexts(t, line, "main", "addi", "$s0", ",", "$t0", ",", "100")
	// Comment preserved, starting at the hash
	last := line.Tokens[len(line.Tokens)-1]
	assert.Equal(t, COMMENT, last.Kind)
	assert.Equal(t, "# comment", last.Text)
	assert.Equal(t, 25, last.Location.Column)
}

func Test_Lexer_Locations(t *testing.T) {
	line, _ := tokenize("  lw $t0, 4($sp)")
	columns := []int{2, 5, 8, 10, 11, 12, 15}
	//
	for k, tok := range line.Significant() {
		assert.Equal(t, columns[k], tok.Location.Column, "token %s", tok)
		assert.Equal(t, 1, tok.Location.Line)
		assert.Equal(t, "test.s", tok.Location.File)
	}
	//
	checkKinds(t, line, INSTRUCTION, REGISTER, COMMA, IMMEDIATE, LPAREN, REGISTER, RPAREN)
}

func Test_Lexer_Directive(t *testing.T) {
	line, errs := tokenize(`msg: .asciiz "hi\n"`)
	//
	assert.Equal(t, uint(0), errs.Errors())
	checkKinds(t, line, LABEL, DIRECTIVE, STRING)
	checkTexts(t, line, "msg", ".asciiz", `"hi\n"`)
}

func Test_Lexer_MultipleLabels(t *testing.T) {
	line, _ := tokenize("a: b:nop")
	checkKinds(t, line, LABEL, LABEL, INSTRUCTION)
}

func Test_Lexer_Expression(t *testing.T) {
	line, errs := tokenize("la $t0, L+8<<2 - ~(x >> 1)")
	//
	assert.Equal(t, uint(0), errs.Errors())
	checkKinds(t, line, INSTRUCTION, REGISTER, COMMA, IDENTIFIER, OPERATOR, IMMEDIATE, OPERATOR, IMMEDIATE,
		OPERATOR, OPERATOR, LPAREN, IDENTIFIER, OPERATOR, IMMEDIATE, RPAREN)
	checkTexts(t, line, "la", "$t0", ",", "L", "+", "8", "<<", "2", "-", "~", "(", "x", ">>", "1", ")")
}

func Test_Lexer_CharLiteral(t *testing.T) {
	line, errs := tokenize(`li $t0, '\n'`)
	//
	assert.Equal(t, uint(0), errs.Errors())
	checkKinds(t, line, INSTRUCTION, REGISTER, COMMA, CHAR)
}

func Test_Lexer_UnterminatedString(t *testing.T) {
	line, errs := tokenize(`.ascii "abc`)
	//
	assert.Equal(t, uint(1), errs.Count(diag.UnterminatedString))
	checkKinds(t, line, DIRECTIVE, STRING)
	checkTexts(t, line, ".ascii", `"abc`)
}

func Test_Lexer_UnterminatedChar(t *testing.T) {
	line, errs := tokenize(`li $t0, 'a`)
	//
	assert.Equal(t, uint(1), errs.Count(diag.UnterminatedChar))
	checkKinds(t, line, INSTRUCTION, REGISTER, COMMA, CHAR)
}

func Test_Lexer_UnterminatedContinues(t *testing.T) {
	// An escaped quote does not terminate a string
	line, errs := tokenize(`.ascii "a\" # not a comment`)
	//
	assert.Equal(t, uint(1), errs.Count(diag.UnterminatedString))
	checkKinds(t, line, DIRECTIVE, STRING)
}

func Test_Lexer_InvalidEscape(t *testing.T) {
	line, errs := tokenize(`.ascii "a\qb"`)
	//
	assert.Equal(t, uint(1), errs.Count(diag.InvalidEscape))
	assert.Equal(t, 9, errs.Diagnostics()[0].Location.Column)
	checkKinds(t, line, DIRECTIVE, STRING)
}

func Test_Lexer_InvalidChar(t *testing.T) {
	_, errs := tokenize(`li $t0, 'ab'`)
	assert.Equal(t, uint(1), errs.Count(diag.InvalidCharLiteral))
}

func Test_Lexer_MalformedNumber(t *testing.T) {
	line, errs := tokenize("li $t0, 12ab")
	//
	assert.Equal(t, uint(1), errs.Count(diag.MalformedNumber))
	checkKinds(t, line, INSTRUCTION, REGISTER, COMMA, UNKNOWN)
}

func Test_Lexer_UnexpectedCharacter(t *testing.T) {
	line, errs := tokenize("add $t0, $t1 @ $t2")
	//
	assert.Equal(t, uint(1), errs.Count(diag.UnexpectedCharacter))
	assert.Equal(t, 13, errs.Diagnostics()[0].Location.Column)
	checkKinds(t, line, INSTRUCTION, REGISTER, COMMA, REGISTER, UNKNOWN, REGISTER)
}

func Test_Lexer_Empty(t *testing.T) {
	line, errs := tokenize("")
	//
	assert.Equal(t, 0, len(line.Tokens))
	assert.Equal(t, uint(0), errs.Errors())
	//
	line, _ = tokenize("   # only a comment")
	assert.Equal(t, 0, len(line.Significant()))
	assert.Equal(t, 2, len(line.Tokens))
}

func Test_Lexer_Stream(t *testing.T) {
	var (
		tokenizer = NewTokenizer(diag.Discard)
		lines     = slices.Values([]string{".text", "main:", "  nop"})
		stream    = tokenizer.TokenizeStream("s.s", lines)
	)
	// Iterate twice, checking numbering restarts
	for range 2 {
		var numbers []int
		//
		for line := range stream {
			numbers = append(numbers, line.Number)
		}
		//
		assert.Equal(t, []int{1, 2, 3}, numbers)
	}
}

func Test_ParseInteger(t *testing.T) {
	checkInteger(t, "0", 0)
	checkInteger(t, "100", 100)
	checkInteger(t, "017", 17)
	checkInteger(t, "0x10", 16)
	checkInteger(t, "0X1f", 31)
	checkInteger(t, "0b101", 5)
	checkInteger(t, "0o17", 15)
	checkInteger(t, "0xFFFF_FFFF", 0xFFFFFFFF)
	checkInteger(t, "0xffffffffffffffff", -1)
	//
	for _, text := range []string{"", "0x", "12ab", "0b2", "1_000", "x10"} {
		_, ok := ParseInteger(text)
		assert.False(t, ok, "%s should not parse", text)
	}
}

func Test_Unquote(t *testing.T) {
	text, invalid := Unquote(`"a\tb\\"`)
	assert.Equal(t, "a\tb\\", text)
	assert.Equal(t, 0, len(invalid))
	//
	text, invalid = Unquote(`'\''`)
	assert.Equal(t, "'", text)
	assert.Equal(t, 0, len(invalid))
	//
	text, invalid = Unquote(`"x\zy"`)
	assert.Equal(t, "xzy", text)
	assert.Equal(t, []int{2}, invalid)
}

// ============================================================================
// Helpers
// ============================================================================

func tokenize(text string) (AssemblyLine, *diag.Collector) {
	errs := diag.NewCollector()
	line := NewTokenizer(errs).TokenizeLine("test.s", 1, text)
	//
	return line, errs
}

func checkKinds(t *testing.T, line AssemblyLine, kinds ...Kind) {
	t.Helper()
	//
	var actual []Kind
	//
	for _, tok := range line.Significant() {
		actual = append(actual, tok.Kind)
	}
	//
	assert.Equal(t, kinds, actual)
}

func checkTexts(t *testing.T, line AssemblyLine, texts ...string) {
	t.Helper()
	//
	var actual []string
	//
	for _, tok := range line.Significant() {
		actual = append(actual, tok.Text)
	}
	//
	assert.Equal(t, texts, actual)
}

func checkInteger(t *testing.T, text string, expected int64) {
	t.Helper()
	//
	value, ok := ParseInteger(text)
	assert.True(t, ok, "%s should parse", text)
	assert.Equal(t, expected, value)
}
