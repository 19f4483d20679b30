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
	"strconv"
	"strings"

	"github.com/consensys/go-mips/pkg/util/source/lex"
)

// Rule for describing numbers.  A number is either a hexadecimal, binary,
// octal or decimal one.  Allowing (and ignoring) '_' in the middle of a
// prefixed number for readability.
var (
	binaryStart = lex.Sequence(lex.String("0b"), lex.Within('0', '1'))
	binaryRest  = lex.Or(
		lex.Within('0', '1'),
		lex.Unit('_'),
	)

	octalStart = lex.Sequence(lex.String("0o"), lex.Within('0', '7'))
	octalRest  = lex.Or(
		lex.Within('0', '7'),
		lex.Unit('_'),
	)

	decimalStart = lex.Within('0', '9')
	decimalRest  = lex.Within('0', '9')

	hexDigit = lex.Or(
		lex.Within('0', '9'),
		lex.Within('A', 'F'),
		lex.Within('a', 'f'),
	)
	hexStart = lex.Sequence(lex.String("0x"), hexDigit)
	hexRest  = lex.Or(
		hexDigit,
		lex.Unit('_'),
	)

	number = lex.Or(
		lex.SequenceNullableLast(binaryStart, lex.Many(binaryRest)),
		lex.SequenceNullableLast(octalStart, lex.Many(octalRest)),
		lex.SequenceNullableLast(hexStart, lex.Many(hexRest)),
		lex.SequenceNullableLast(decimalStart, lex.Many(decimalRest)),
	)
)

var identifierStart lex.Scanner[rune] = lex.Or(
	lex.Unit('_'),
	lex.Unit('.'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z'))

var identifierRest lex.Scanner[rune] = lex.Many(lex.Or(
	lex.Unit('_'),
	lex.Unit('.'),
	lex.Unit('$'),
	lex.Within('0', '9'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z')))

// Rule for describing identifiers
var identifier lex.Scanner[rune] = lex.SequenceNullableLast(identifierStart, identifierRest)

// IsNumber determines whether some text is a well-formed integer literal.
func IsNumber(text string) bool {
	return lex.Matches(number, []rune(text))
}

// IsIdentifier determines whether some text is a well-formed identifier (e.g.
// a symbol name).
func IsIdentifier(text string) bool {
	return lex.Matches(identifier, []rune(text))
}

// ParseInteger parses an integer literal, which must be well-formed.  Literals
// in the range of a 64-bit unsigned integer are accepted, and wrap.  A leading
// zero on an unprefixed literal is treated as decimal, not octal.
func ParseInteger(text string) (int64, bool) {
	if !IsNumber(text) {
		return 0, false
	}
	//
	lower := strings.ToLower(text)
	base := 10
	//
	if len(lower) > 2 && lower[0] == '0' && lower[1] >= 'a' {
		// Prefixed
		switch lower[1] {
		case 'x':
			base = 16
		case 'b':
			base = 2
		case 'o':
			base = 8
		}
		//
		lower = strings.ReplaceAll(lower[2:], "_", "")
	}
	//
	if value, err := strconv.ParseInt(lower, base, 64); err == nil {
		return value, true
	} else if value, err := strconv.ParseUint(lower, base, 64); err == nil {
		return int64(value), true
	}
	//
	return 0, false
}

// Unquote decodes the body of a string or character literal (including its
// quotes), returning the decoded text along with the (character) offsets of
// any unknown escape sequences within the literal.  Unknown escapes decode as the escaped
// character itself.
func Unquote(literal string) (string, []int) {
	var (
		runes   = []rune(literal)
		builder strings.Builder
		invalid []int
	)
	// Strip the quotes, noting an unterminated literal has no closing quote.
	if len(runes) > 0 {
		runes = runes[1:]
	}
	//
	if n := len(runes); n > 0 && runes[n-1] == []rune(literal)[0] && !escaped(runes, n-1) {
		runes = runes[:n-1]
	}
	//
	for k := 0; k < len(runes); k++ {
		if runes[k] != '\\' || k+1 == len(runes) {
			builder.WriteRune(runes[k])
			continue
		}
		//
		k++
		//
		if c, ok := escapes[runes[k]]; ok {
			builder.WriteRune(c)
		} else {
			// index of the backslash within the literal
			invalid = append(invalid, k)
			builder.WriteRune(runes[k])
		}
	}
	//
	return builder.String(), invalid
}

var escapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
}

// Determine whether the character at a given index is escaped, by counting the
// number of immediately preceding backslashes.
func escaped(runes []rune, index int) bool {
	count := 0
	//
	for k := index - 1; k >= 0 && runes[k] == '\\'; k-- {
		count++
	}
	//
	return count%2 == 1
}
