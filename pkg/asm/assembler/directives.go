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
	"strconv"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/expr"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/util/source"
)

// Handler for a given directive.
type directiveHandler func(p *assembly, stmt Statement)

var directives map[string]directiveHandler

// Sections selected by the section-switching directives.
var sectionDirectives = map[string]string{
	".text":   object.TEXT,
	".rdata":  object.RODATA,
	".rodata": object.RODATA,
	".data":   object.DATA,
	".sdata":  object.SDATA,
	".sbss":   object.SBSS,
	".bss":    object.BSS,
}

func init() {
	directives = map[string]directiveHandler{
		".section": (*assembly).sectionDirective,
		".globl":   bindingDirective(object.GLOBAL),
		".global":  bindingDirective(object.GLOBAL),
		".extern":  bindingDirective(object.GLOBAL),
		".weak":    bindingDirective(object.WEAK),
		".word":    dataDirective(4),
		".half":    dataDirective(2),
		".byte":    dataDirective(1),
		".ascii":   stringDirective(false),
		".asciiz":  stringDirective(true),
		".space":   (*assembly).spaceDirective,
		".align":   (*assembly).alignDirective,
		".eqv":     (*assembly).equateDirective,
		".set":     (*assembly).setDirective,
	}
	//
	for name := range sectionDirectives {
		directives[name] = (*assembly).switchDirective
	}
}

// Assemble a directive statement.
func (p *assembly) directive(stmt Statement) {
	if handler, ok := directives[stmt.Name()]; ok {
		handler(p, stmt)
	} else {
		diag.Report(p.logger, diag.UnknownDirective, stmt.Head.Location, []string{stmt.Head.Text}, stmt.Head.Text)
	}
}

// ============================================================================
// Sections
// ============================================================================

func (p *assembly) switchDirective(stmt Statement) {
	if p.checkArgs(stmt, 0, 0) {
		name := sectionDirectives[stmt.Name()]
		p.env.SwitchSection(name, object.StandardFlags(name))
	}
}

// Handle ".section name [, flags]", where flags is a string containing "w"
// (writable), "x" (executable) or "b" (uninitialised).  Without flags, a
// standard section gets its standard flags, and any other section is read-only
// data.
func (p *assembly) sectionDirective(stmt Statement) {
	if !p.checkArgs(stmt, 1, 2) {
		return
	}
	//
	name, ok := p.nameArgument(stmt, 0)
	if !ok {
		return
	}
	//
	flags := object.StandardFlags(name)
	//
	if len(stmt.Args) == 2 {
		if flags, ok = p.sectionFlags(stmt, stmt.Args[1]); !ok {
			return
		}
	}
	//
	p.env.SwitchSection(name, flags)
}

func (p *assembly) sectionFlags(stmt Statement, arg []lexer.Token) (object.SectionFlags, bool) {
	var flags object.SectionFlags
	//
	if len(arg) != 1 || arg[0].Kind != lexer.STRING {
		p.badArgument(stmt, arg)
		return 0, false
	}
	//
	text, _ := lexer.Unquote(arg[0].Text)
	//
	for _, c := range text {
		switch c {
		case 'a':
			// allocated, which all sections are
		case 'w':
			flags |= object.WRITE
		case 'x':
			flags |= object.EXEC
		case 'b':
			flags |= object.NOBITS
		default:
			p.badArgument(stmt, arg)
			return 0, false
		}
	}
	//
	return flags, true
}

// ============================================================================
// Symbols
// ============================================================================

func bindingDirective(binding object.Binding) directiveHandler {
	return func(p *assembly, stmt Statement) {
		if !p.checkArgs(stmt, 1, -1) {
			return
		}
		//
		for i := range stmt.Args {
			if name, ok := p.nameArgument(stmt, i); ok && p.checkSymbolName(stmt.Args[i][0]) {
				p.declareBinding(stmt.Args[i][0], name, binding)
			}
		}
	}
}

// A symbol cannot be both global and weak, and can never revert to being
// local.
func (p *assembly) declareBinding(token lexer.Token, name string, binding object.Binding) {
	if sym := p.module().TryGetSymbol(name); sym.HasValue() {
		current := sym.Unwrap().Binding
		//
		if current != object.LOCAL && current != binding {
			diag.Report(p.logger, diag.BindingConflict, token.Location, []string{token.Text}, name, current, binding)
			return
		}
	}
	//
	if !p.module().DeclareBinding(name, binding) {
		panic("unreachable")
	}
}

// Handle ".eqv name, value"
func (p *assembly) equateDirective(stmt Statement) {
	if p.checkArgs(stmt, 2, 2) {
		p.defineConstant(stmt)
	}
}

// Handle either ".set name, value" (as for ".eqv"), or ".set option".
func (p *assembly) setDirective(stmt Statement) {
	if len(stmt.Args) == 2 {
		p.defineConstant(stmt)
		return
	} else if !p.checkArgs(stmt, 1, 1) {
		return
	}
	//
	option, ok := p.nameArgument(stmt, 0)
	if !ok {
		return
	}
	//
	switch option {
	case "at":
		p.env.reserveAt = true
	case "noat":
		p.env.reserveAt = false
	case "reorder":
		p.env.reorder = true
	case "noreorder":
		p.env.reorder = false
	default:
		token := stmt.Args[0][0]
		diag.Report(p.logger, diag.UnknownSetOption, token.Location, []string{token.Text}, option)
	}
}

// Define a constant (macro) symbol.  The value can be relocatable provided it
// is already known.
func (p *assembly) defineConstant(stmt Statement) {
	name, ok := p.nameArgument(stmt, 0)
	//
	if !ok || !p.checkSymbolName(stmt.Args[0][0]) {
		return
	}
	//
	result, ok := p.evaluate(stmt, stmt.Args[1])
	//
	if !ok {
		return
	} else if result.Reference.HasValue() {
		p.badArgument(stmt, stmt.Args[1])
		return
	}
	//
	token := stmt.Args[0][0]
	//
	if !p.module().TryDefineOrUpdateSymbol(name, object.MACRO, result.Value, token.Location) {
		diag.Report(p.logger, diag.DuplicateSymbol, token.Location, []string{token.Text}, name)
	}
}

// ============================================================================
// Data
// ============================================================================

// Handle ".word", ".half" and ".byte", each of which accept one or more
// values.  Only words can hold relocatable values.
func dataDirective(size uint) directiveHandler {
	return func(p *assembly, stmt Statement) {
		if !p.checkArgs(stmt, 1, -1) || !p.checkInitialised(stmt) {
			return
		}
		//
		for _, arg := range stmt.Args {
			var (
				location    = p.env.Location()
				result, ok  = p.evaluate(stmt, arg)
				value       = result.Value.Value
				loc, tokens = argumentOrigin(stmt, arg)
			)
			//
			switch {
			case !ok:
				value = 0
			case result.IsRelocatable() && size != 4:
				diag.Report(p.logger, diag.RelocatableData, loc, tokens, size)
				//
				value = 0
			case result.IsRelocatable():
				symbol, addend := result.Target()
				p.module().TrackReference(object.Reference{Location: location, Symbol: symbol,
					Kind: object.ABSOLUTE32, Addend: addend})
				//
				value = addend
			case !isa.FitsSigned(value, 8*size) && !isa.FitsUnsigned(value, 8*size):
				diag.Report(p.logger, diag.DataTruncated, loc, tokens, value, size)
			}
			//
			p.emit(value, size)
		}
	}
}

func (p *assembly) emit(value int64, size uint) {
	var (
		bytes = make([]byte, size)
		order = p.module().ByteOrder()
	)
	//
	switch size {
	case 1:
		bytes[0] = byte(value)
	case 2:
		order.PutUint16(bytes, uint16(value))
	case 4:
		order.PutUint32(bytes, uint32(value))
	default:
		panic("unreachable")
	}
	//
	p.module().Append(p.env.Section(), bytes...)
}

// Handle ".ascii" and ".asciiz", each of which accept one or more string
// literals.
func stringDirective(terminate bool) directiveHandler {
	return func(p *assembly, stmt Statement) {
		if !p.checkArgs(stmt, 1, -1) || !p.checkInitialised(stmt) {
			return
		}
		//
		for _, arg := range stmt.Args {
			if len(arg) != 1 || arg[0].Kind != lexer.STRING {
				p.badArgument(stmt, arg)
				continue
			}
			// Invalid escapes have already been reported
			text, _ := lexer.Unquote(arg[0].Text)
			bytes := []byte(text)
			//
			if terminate {
				bytes = append(bytes, 0)
			}
			//
			p.module().Append(p.env.Section(), bytes...)
		}
	}
}

// Handle ".space n", which reserves n zero bytes.
func (p *assembly) spaceDirective(stmt Statement) {
	if !p.checkArgs(stmt, 1, 1) {
		return
	}
	//
	if n, ok := p.constant(stmt, stmt.Args[0]); !ok {
		return
	} else if n < 0 {
		loc, tokens := argumentOrigin(stmt, stmt.Args[0])
		diag.Report(p.logger, diag.NegativeSpace, loc, tokens, n)
	} else if section := p.env.Section(); n > object.MAX_SECTION_SIZE-p.module().Offset(section) {
		loc, tokens := argumentOrigin(stmt, stmt.Args[0])
		diag.Report(p.logger, diag.SectionTooLarge, loc, tokens, n, section, object.MAX_SECTION_SIZE)
	} else {
		p.module().Reserve(section, n)
	}
}

// Handle ".align n", which pads to a multiple of 2^n bytes.
func (p *assembly) alignDirective(stmt Statement) {
	if !p.checkArgs(stmt, 1, 1) {
		return
	}
	//
	if n, ok := p.constant(stmt, stmt.Args[0]); !ok {
		return
	} else if n < 0 || n > object.MAX_ALIGNMENT {
		loc, tokens := argumentOrigin(stmt, stmt.Args[0])
		diag.Report(p.logger, diag.AlignmentRange, loc, tokens, n, object.MAX_ALIGNMENT)
	} else {
		p.module().Align(p.env.Section(), uint(n))
	}
}

// Data cannot be placed in an uninitialised section.
func (p *assembly) checkInitialised(stmt Statement) bool {
	if p.env.Flags().Has(object.NOBITS) {
		diag.Report(p.logger, diag.DataInBss, stmt.Head.Location, []string{stmt.Head.Text}, stmt.Name(),
			p.env.Section())
		//
		return false
	}
	//
	return true
}

// ============================================================================
// Arguments
// ============================================================================

// Check the number of arguments of a directive, where a maximum of -1 means
// there is no maximum.
func (p *assembly) checkArgs(stmt Statement, lo int, hi int) bool {
	n := len(stmt.Args)
	//
	if n >= lo && (hi < 0 || n <= hi) {
		return true
	}
	//
	var expected string
	//
	switch {
	case hi == 0:
		expected = "no"
	case hi < 0:
		expected = "at least " + strconv.Itoa(lo)
	case lo == hi:
		expected = strconv.Itoa(lo)
	default:
		expected = strconv.Itoa(lo) + " or " + strconv.Itoa(hi)
	}
	//
	diag.Report(p.logger, diag.DirectiveArgumentCount, stmt.Head.Location, []string{stmt.Head.Text}, stmt.Name(),
		expected)
	//
	return false
}

// Extract a name from an argument which must consist of a single identifier.
func (p *assembly) nameArgument(stmt Statement, index int) (string, bool) {
	arg := stmt.Args[index]
	//
	if len(arg) == 1 && arg[0].Kind == lexer.IDENTIFIER {
		return arg[0].Text, true
	}
	//
	p.badArgument(stmt, arg)
	//
	return "", false
}

// Evaluate an argument which must be a constant.
func (p *assembly) constant(stmt Statement, arg []lexer.Token) (int64, bool) {
	result, ok := p.evaluate(stmt, arg)
	//
	if ok && result.IsRelocatable() {
		p.badArgument(stmt, arg)
		return 0, false
	}
	//
	return result.Value.Value, ok
}

func (p *assembly) evaluate(stmt Statement, arg []lexer.Token) (expr.Result, bool) {
	tree, ok := expr.Parse(arg, stmt.Head.Location, p.logger)
	//
	if !ok {
		return expr.Constant(0), false
	}
	//
	return tree.Evaluate(p.env, p.logger)
}

func (p *assembly) badArgument(stmt Statement, arg []lexer.Token) {
	loc, tokens := argumentOrigin(stmt, arg)
	diag.Report(p.logger, diag.DirectiveArgument, loc, tokens, stmt.Name())
}

// Determine the location (and text) to report for a given argument.  Empty
// arguments are reported at the directive itself.
func argumentOrigin(stmt Statement, arg []lexer.Token) (source.Location, []string) {
	if len(arg) == 0 {
		return stmt.Head.Location, []string{stmt.Head.Text}
	}
	//
	return arg[0].Location, []string{arg[0].Text}
}

