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
package assembler

import (
	"strings"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/lexer"
)

// Statement is a single line of assembly, broken into its parts.  A statement
// consists of zero or more labels, optionally followed by either a directive or
// an instruction and its (comma separated) arguments.
type Statement struct {
	Labels []lexer.Token
	// Directive or instruction mnemonic (if any)
	Head *lexer.Token
	// Arguments, each being a (possibly empty) sequence of tokens.
	Args [][]lexer.Token
	// The line from which this statement was parsed.
	Line lexer.AssemblyLine
}

// IsDirective determines whether this statement holds a directive.
func (s *Statement) IsDirective() bool {
	return s.Head != nil && s.Head.Kind == lexer.DIRECTIVE
}

// IsInstruction determines whether this statement holds an instruction.
func (s *Statement) IsInstruction() bool {
	return s.Head != nil && s.Head.Kind == lexer.INSTRUCTION
}

// Name returns the (lower case) name of this statement's directive or
// instruction, or the empty string if there is none.
func (s *Statement) Name() string {
	if s.Head == nil {
		return ""
	}
	//
	return strings.ToLower(s.Head.Text)
}

// ============================================================================
// Parser
// ============================================================================

// Parser is a parser for a single line of assembly.
type Parser struct {
	line   lexer.AssemblyLine
	tokens []lexer.Token
	// Position within the tokens
	index int
	// Diagnostics are reported here
	logger diag.Logger
}

// NewParser constructs a new parser for a given (tokenized) line.
func NewParser(line lexer.AssemblyLine, logger diag.Logger) *Parser {
	return &Parser{line, line.Significant(), 0, logger}
}

// Parse the line into a statement.  This returns false if the line is
// malformed, in which case the statement should be ignored.  Tokens which the
// tokenizer could not classify have already been reported, and simply cause
// the line to be ignored.
func (p *Parser) Parse() (Statement, bool) {
	var stmt = Statement{Line: p.line}
	// Lexical errors already reported
	for _, token := range p.tokens {
		if token.Kind == lexer.UNKNOWN {
			return stmt, false
		}
	}
	// Parse any labels
	for p.match(lexer.LABEL) {
		stmt.Labels = append(stmt.Labels, p.tokens[p.index-1])
	}
	//
	if p.atEnd() {
		return stmt, true
	}
	// Parse directive or instruction
	head := p.lookahead()
	//
	if head.Kind != lexer.DIRECTIVE && head.Kind != lexer.INSTRUCTION {
		p.unexpected(head)
		return stmt, false
	}
	//
	p.index++
	stmt.Head = &head
	stmt.Args = p.parseArguments()
	//
	return stmt, true
}

// Split the remaining tokens into comma separated groups.  An empty line gives
// no arguments at all, whilst a trailing comma gives an empty final argument.
func (p *Parser) parseArguments() [][]lexer.Token {
	var (
		args    [][]lexer.Token
		current = []lexer.Token{}
	)
	//
	if p.atEnd() {
		return nil
	}
	//
	for ; !p.atEnd(); p.index++ {
		if token := p.lookahead(); token.Kind == lexer.COMMA {
			args = append(args, current)
			current = []lexer.Token{}
		} else {
			current = append(current, token)
		}
	}
	//
	return append(args, current)
}

// Lookahead returns the next token.  This must only be called when not at the
// end.
func (p *Parser) lookahead() lexer.Token {
	return p.tokens[p.index]
}

func (p *Parser) atEnd() bool {
	return p.index >= len(p.tokens)
}

// Match attempts to match the given token.
func (p *Parser) match(kind lexer.Kind) bool {
	if !p.atEnd() && p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

func (p *Parser) unexpected(token lexer.Token) {
	diag.Report(p.logger, diag.UnexpectedToken, token.Location, []string{token.Text}, token.Describe())
}
