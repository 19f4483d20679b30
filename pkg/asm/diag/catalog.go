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
package diag

import (
	"fmt"
	"strings"
)

func kind(provider string, id uint16, severity Severity, key string) Kind {
	return Kind{Code{provider, id}, key, severity}
}

// Lexical diagnostics.
var (
	UnterminatedString  = kind("LEX", 1, ERROR, "lex.unterminated-string")
	UnterminatedChar    = kind("LEX", 2, ERROR, "lex.unterminated-char")
	InvalidCharLiteral  = kind("LEX", 3, ERROR, "lex.invalid-char")
	InvalidEscape       = kind("LEX", 4, ERROR, "lex.invalid-escape")
	UnexpectedCharacter = kind("LEX", 5, ERROR, "lex.unexpected-character")
)

// Expression diagnostics.
var (
	RelocatableAdd        = kind("EXP", 1, ERROR, "expr.relocatable-add")
	RelocatableSubtract   = kind("EXP", 2, ERROR, "expr.relocatable-subtract")
	RelocatableSubtrahend = kind("EXP", 3, ERROR, "expr.relocatable-subtrahend")
	RelocatableOperand    = kind("EXP", 4, ERROR, "expr.relocatable-operand")
	DivisionByZero        = kind("EXP", 5, ERROR, "expr.division-by-zero")
	IncompleteExpression  = kind("EXP", 6, ERROR, "expr.incomplete")
	UnbalancedParenthesis = kind("EXP", 7, ERROR, "expr.unbalanced-parenthesis")
	UnexpectedExprToken   = kind("EXP", 8, ERROR, "expr.unexpected-token")
	MalformedNumber       = kind("EXP", 9, ERROR, "expr.malformed-number")
)

// Instruction diagnostics.
var (
	UnknownInstruction     = kind("INS", 1, ERROR, "insn.unknown")
	UnsupportedInstruction = kind("INS", 2, ERROR, "insn.unsupported-version")
	ArgumentCount          = kind("INS", 3, ERROR, "insn.argument-count")
	ArgumentKind           = kind("INS", 4, ERROR, "insn.argument-kind")
	UnknownRegister        = kind("INS", 5, ERROR, "insn.unknown-register")
	ImmediateTruncated     = kind("INS", 6, WARNING, "insn.immediate-truncated")
	PseudoDisabled         = kind("INS", 7, ERROR, "insn.pseudo-disabled")
	BranchOutOfRange       = kind("INS", 8, ERROR, "insn.branch-range")
	BranchMisaligned       = kind("INS", 9, ERROR, "insn.branch-alignment")
	JumpRegion             = kind("INS", 10, WARNING, "insn.jump-region")
	RelocatableShift       = kind("INS", 11, ERROR, "insn.relocatable-shift")
	ReservedRegister       = kind("INS", 12, WARNING, "insn.reserved-register")
	NotExecutable          = kind("INS", 13, WARNING, "insn.not-executable")
)

// Statement and directive diagnostics.
var (
	UnexpectedToken        = kind("ASM", 1, ERROR, "asm.unexpected-token")
	UnknownDirective       = kind("ASM", 2, ERROR, "asm.unknown-directive")
	DirectiveArgumentCount = kind("ASM", 3, ERROR, "asm.directive-argument-count")
	DirectiveArgument      = kind("ASM", 4, ERROR, "asm.directive-argument")
	DataInBss              = kind("ASM", 5, ERROR, "asm.data-in-bss")
	RelocatableData        = kind("ASM", 6, ERROR, "asm.relocatable-data")
	AlignmentRange         = kind("ASM", 7, ERROR, "asm.alignment-range")
	NegativeSpace          = kind("ASM", 8, ERROR, "asm.negative-space")
	UnknownSetOption       = kind("ASM", 9, WARNING, "asm.unknown-set-option")
	DataTruncated          = kind("ASM", 10, WARNING, "asm.data-truncated")
	SectionTooLarge        = kind("ASM", 11, ERROR, "asm.section-too-large")
)

// Symbol diagnostics.
var (
	DuplicateSymbol   = kind("SYM", 1, ERROR, "sym.duplicate")
	IllegalSymbolName = kind("SYM", 2, ERROR, "sym.illegal-name")
	BindingConflict   = kind("SYM", 3, ERROR, "sym.binding-conflict")
)

// Link diagnostics.
var (
	ModuleFailed     = kind("LNK", 1, ERROR, "link.module-failed")
	DuplicateGlobal  = kind("LNK", 2, ERROR, "link.duplicate-global")
	UnresolvedSymbol = kind("LNK", 3, ERROR, "link.unresolved-symbol")
	RelocationFailed = kind("LNK", 4, ERROR, "link.relocation-failed")
	MissingEntry     = kind("LNK", 5, WARNING, "link.missing-entry")
	SectionOverlap   = kind("LNK", 6, ERROR, "link.section-overlap")
	NotFinalized     = kind("LNK", 7, ERROR, "link.not-finalized")
)

// Catalog maps message keys to message formats.  This is the point at which
// diagnostics become user-facing text, and is kept separate from the core so
// that alternative (e.g. localised) catalogs can be substituted.
type Catalog map[string]string

// English is the default message catalog.
var English = Catalog{
	"lex.unterminated-string":  "unterminated string literal",
	"lex.unterminated-char":    "unterminated character literal",
	"lex.invalid-char":         "character literal must contain exactly one character",
	"lex.invalid-escape":       "unknown escape sequence \\%c",
	"lex.unexpected-character": "unexpected character %q",
	//
	"expr.relocatable-add":        "cannot add two relocatable symbols",
	"expr.relocatable-subtract":   "cannot subtract two relocatable symbols",
	"expr.relocatable-subtrahend": "cannot subtract a relocatable symbol from a constant (a negated address cannot be relocated)",
	"expr.relocatable-operand":    "cannot %s relocatable",
	"expr.division-by-zero":       "division by zero",
	"expr.incomplete":             "incomplete expression",
	"expr.unbalanced-parenthesis": "unbalanced parenthesis",
	"expr.unexpected-token":       "unexpected %s in expression",
	"expr.malformed-number":       "malformed number %s",
	//
	"insn.unknown":             "unknown instruction %s",
	"insn.unsupported-version": "instruction %s requires architecture %s (selected %s)",
	"insn.argument-count":      "instruction %s expects %d argument(s), found %d",
	"insn.argument-kind":       "argument %d of %s must be %s",
	"insn.unknown-register":    "unknown register %s",
	"insn.immediate-truncated": "value %d does not fit in %d bits, truncated to %d",
	"insn.pseudo-disabled":     "pseudo-instruction %s used whilst pseudo-instructions are disabled",
	"insn.branch-range":        "branch displacement %d out of range",
	"insn.branch-alignment":    "branch target is not word aligned",
	"insn.jump-region":         "jump target %#x lies outside the current 256MB region",
	"insn.relocatable-shift":   "shift amount cannot be relocatable",
	"insn.reserved-register":   "register $at is reserved for the assembler (use .set noat)",
	"insn.not-executable":      "instruction emitted into non-executable section %s",
	//
	"asm.unexpected-token":           "unexpected %s",
	"asm.unknown-directive":          "unknown directive %s",
	"asm.directive-argument-count":   "directive %s expects %s argument(s)",
	"asm.directive-argument":         "invalid argument for %s",
	"asm.data-in-bss":                "directive %s cannot initialise data in section %s",
	"asm.relocatable-data":           "relocatable value cannot be stored in %d byte(s)",
	"asm.alignment-range":            "alignment %d out of range (0..%d)",
	"asm.negative-space":             "cannot reserve %d bytes",
	"asm.unknown-set-option":         "unknown .set option %s ignored",
	"asm.data-truncated":             "value %d does not fit in %d byte(s)",
	"asm.section-too-large":          "cannot reserve %d bytes in section %s (limit %d)",
	"sym.duplicate":                  "symbol %s already defined",
	"sym.illegal-name":               "illegal symbol name %s",
	"sym.binding-conflict":           "symbol %s cannot change binding from %s to %s",
	"link.module-failed":             "module %s failed to assemble",
	"link.duplicate-global":          "symbol %s defined in both %s and %s",
	"link.unresolved-symbol":         "unresolved external symbol %s (referenced from %s)",
	"link.relocation-failed":         "cannot relocate reference to %s: %s",
	"link.missing-entry":             "entry symbol %s not found, defaulting to %#x",
	"link.section-overlap":           "section %s overlaps section %s",
	"link.not-finalized":             "module %s has not been finalized",
}

// Format renders a diagnostic's message using this catalog.  Unknown keys
// degrade to the key itself followed by the arguments, so nothing is lost.
func (c Catalog) Format(d Diagnostic) string {
	format, ok := c[d.Key]
	//
	if !ok {
		var builder strings.Builder
		//
		builder.WriteString(d.Key)
		//
		for _, arg := range d.Args {
			builder.WriteString(fmt.Sprintf(" %v", arg))
		}
		//
		return builder.String()
	}
	//
	return fmt.Sprintf(format, d.Args...)
}
