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
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/util/source"
)

// Tokenizer splits lines of assembly into classified tokens.  Tokenizing is
// done in two passes over each line: the first splits the line into raw tokens
// using a character-driven state machine; the second classifies each raw token
// using a little lookahead.  Malformed literals are reported, but never stop
// tokenizing.
type Tokenizer struct {
	logger diag.Logger
}

// NewTokenizer constructs a tokenizer which reports problems to a given logger.
func NewTokenizer(logger diag.Logger) *Tokenizer {
	return &Tokenizer{logger}
}

// TokenizeStream lazily tokenizes a sequence of lines from a given file.  Line
// numbers start from 1 each time the returned sequence is iterated.
func (p *Tokenizer) TokenizeStream(file string, lines iter.Seq[string]) iter.Seq[AssemblyLine] {
	return func(yield func(AssemblyLine) bool) {
		number := 0
		//
		for text := range lines {
			number++
			//
			if !yield(p.TokenizeLine(file, number, text)) {
				return
			}
		}
	}
}

// TokenizeLine tokenizes a single line of text.  This always succeeds, though
// the resulting tokens may include UNKNOWN tokens.
func (p *Tokenizer) TokenizeLine(file string, number int, text string) AssemblyLine {
	raw := scan(text)
	//
	return AssemblyLine{file, number, text, p.classify(file, number, raw)}
}

// ============================================================================
// Pass 1
// ============================================================================

type rawKind uint8

const (
	rawWord rawKind = iota
	rawString
	rawChar
	rawComment
	rawWhitespace
	rawPunct
)

type rawToken struct {
	kind   rawKind
	text   string
	column int
	// Indicates whether a string or character literal was closed.
	terminated bool
}

type state uint8

const (
	TOKEN_BEGIN state = iota
	TOKEN_BODY
	STRING_LITERAL
	CHAR_LITERAL
	COMMENT_BODY
	WHITESPACE_RUN
)

// NEWLINE conceptually terminates every line, forcing completion of any token
// in flight.
const NEWLINE = '\n'

func scan(text string) []rawToken {
	var (
		runes  = append([]rune(text), NEWLINE)
		tokens []rawToken
		st     = TOKEN_BEGIN
		start  int
	)
	//
	emit := func(kind rawKind, end int, terminated bool) {
		tokens = append(tokens, rawToken{kind, string(runes[start:end]), start, terminated})
		st = TOKEN_BEGIN
	}
	//
	for k := 0; k < len(runes); k++ {
		c := runes[k]
		//
		switch st {
		case TOKEN_BEGIN:
			start = k
			//
			switch {
			case c == NEWLINE:
				// done
			case c == ' ' || c == '\t':
				st = WHITESPACE_RUN
			case isWordChar(c):
				st = TOKEN_BODY
			case c == '#':
				st = COMMENT_BODY
			case c == '"':
				st = STRING_LITERAL
			case c == '\'':
				st = CHAR_LITERAL
			case (c == '<' || c == '>') && runes[k+1] == c:
				k++
				emit(rawPunct, k+1, true)
			default:
				emit(rawPunct, k+1, true)
			}
		case TOKEN_BODY:
			if !isWordChar(c) {
				emit(rawWord, k, true)
				k--
			}
		case WHITESPACE_RUN:
			if c != ' ' && c != '\t' {
				emit(rawWhitespace, k, true)
				k--
			}
		case COMMENT_BODY:
			if c == NEWLINE {
				emit(rawComment, k, true)
			}
		case STRING_LITERAL, CHAR_LITERAL:
			kind, quote := rawString, '"'
			//
			if st == CHAR_LITERAL {
				kind, quote = rawChar, '\''
			}
			//
			switch {
			case c == '\\' && runes[k+1] != NEWLINE:
				k++
			case c == quote:
				emit(kind, k+1, true)
			case c == NEWLINE:
				emit(kind, k, false)
			}
		}
	}
	//
	return tokens
}

func isWordChar(c rune) bool {
	return c == '_' || c == '.' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

// ============================================================================
// Pass 2
// ============================================================================

func (p *Tokenizer) classify(file string, number int, raw []rawToken) []Token {
	var (
		tokens = make([]Token, 0, len(raw))
		// Indicates whether the directive or instruction of this line has
		// been seen.
		started bool
	)
	//
	for k := 0; k < len(raw); k++ {
		var (
			r    = raw[k]
			loc  = source.NewLocation(file, number, r.column)
			kind Kind
		)
		//
		switch r.kind {
		case rawWhitespace:
			kind = WHITESPACE
		case rawComment:
			kind = COMMENT
		case rawString:
			kind = STRING
			p.checkLiteral(r, loc)
		case rawChar:
			kind = CHAR
			p.checkLiteral(r, loc)
		case rawPunct:
			kind = p.classifyPunct(r, loc)
		case rawWord:
			kind = p.classifyWord(r, loc, started, k+1 < len(raw) && raw[k+1].text == ":")
			//
			switch kind {
			case LABEL:
				// consume the colon
				k++
			case DIRECTIVE, INSTRUCTION:
				started = true
			}
		default:
			panic("unreachable")
		}
		//
		tokens = append(tokens, Token{r.text, kind, loc})
	}
	//
	return tokens
}

func (p *Tokenizer) classifyWord(r rawToken, loc source.Location, started bool, colon bool) Kind {
	first, _ := utf8.DecodeRuneInString(r.text)
	//
	switch {
	case first == '$':
		return REGISTER
	case unicode.IsDigit(first):
		if IsNumber(r.text) {
			return IMMEDIATE
		}
		//
		diag.Report(p.logger, diag.MalformedNumber, loc, []string{r.text}, r.text)
	case !IsIdentifier(r.text):
		p.reportUnexpected(r, loc)
	case !started && colon:
		return LABEL
	case !started && first == '.':
		return DIRECTIVE
	case !started:
		return INSTRUCTION
	default:
		return IDENTIFIER
	}
	//
	return UNKNOWN
}

func (p *Tokenizer) classifyPunct(r rawToken, loc source.Location) Kind {
	switch r.text {
	case ",":
		return COMMA
	case "(":
		return LPAREN
	case ")":
		return RPAREN
	case "+", "-", "*", "/", "%", "&", "|", "^", "~", "<<", ">>":
		return OPERATOR
	}
	//
	diag.Report(p.logger, diag.UnexpectedCharacter, loc, []string{r.text}, r.text)
	//
	return UNKNOWN
}

// Report the first character of a word which prevents it from being an
// identifier.
func (p *Tokenizer) reportUnexpected(r rawToken, loc source.Location) {
	runes := []rune(r.text)
	//
	for k := range runes {
		if !IsIdentifier(string(runes[:k+1])) {
			loc.Column += k
			diag.Report(p.logger, diag.UnexpectedCharacter, loc, []string{string(runes[k])}, string(runes[k]))
			//
			return
		}
	}
}

func (p *Tokenizer) checkLiteral(r rawToken, loc source.Location) {
	if !r.terminated {
		kind := diag.UnterminatedString
		//
		if r.kind == rawChar {
			kind = diag.UnterminatedChar
		}
		//
		diag.Report(p.logger, kind, loc, []string{r.text})
	}
	//
	text, invalid := Unquote(r.text)
	//
	for _, index := range invalid {
		escape := []rune(r.text)[index : index+2]
		eloc := source.NewLocation(loc.File, loc.Line, loc.Column+index)
		diag.Report(p.logger, diag.InvalidEscape, eloc, []string{string(escape)}, escape[1])
	}
	//
	if r.kind == rawChar && r.terminated && utf8.RuneCountInString(text) != 1 {
		diag.Report(p.logger, diag.InvalidCharLiteral, loc, []string{r.text})
	}
}
