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
	"fmt"
	"strings"

	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/expr"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/source"
)

// Context is the environment in which instruction operands are evaluated.
// The location is that of the first word of the instruction.
type Context = expr.Context

// Word is a single encoded instruction word, along with the reference (if any)
// which must be relocated at link time to complete it.
type Word struct {
	Value     uint32
	Reference util.Option[object.Reference]
}

// Parsed is an instruction whose shape has been validated, but whose operands
// have not yet been evaluated.  Exactly one of Real or Pseudo is set.
type Parsed struct {
	Mnemonic lexer.Token
	Real     *isa.Instruction
	Pseudo   *Pseudo
	Operands []Operand
}

// Name returns the mnemonic of the parsed instruction (in lower case).
func (p *Parsed) Name() string {
	if p.Real != nil {
		return p.Real.Name
	}
	//
	return p.Pseudo.Name
}

// Count returns the number of real instruction words this instruction
// occupies.  This is known before any operand is evaluated.
func (p *Parsed) Count() uint {
	if p.Pseudo != nil {
		return p.Pseudo.RealInstructionCount
	}
	//
	return 1
}

// Size returns the number of bytes this instruction occupies.
func (p *Parsed) Size() int64 {
	return 4 * int64(p.Count())
}

// Encoder turns instructions into machine words for a given instruction table.
// An encoder holds no mutable state, and can be shared between goroutines.
type Encoder struct {
	table *isa.Table
	// Whether pseudo-instructions are permitted
	pseudo bool
}

// NewEncoder constructs an encoder for a given instruction table.
func NewEncoder(table *isa.Table, pseudo bool) *Encoder {
	return &Encoder{table, pseudo}
}

// Table returns the instruction table used by this encoder.
func (p *Encoder) Table() *isa.Table {
	return p.table
}

// IsMnemonic determines whether a given name is a real or pseudo instruction
// in any version, regardless of whether it is enabled.
func (p *Encoder) IsMnemonic(name string) bool {
	return isa.IsMnemonic(name) || LookupPseudo(strings.ToLower(name)) != nil
}

// Parse an instruction from its mnemonic and its (comma separated) operands.
// The shape of the instruction is checked against its argument pattern, and
// every problem found is reported.
func (p *Encoder) Parse(mnemonic lexer.Token, operands [][]lexer.Token, logger diag.Logger) (Parsed, bool) {
	var (
		parsed = Parsed{Mnemonic: mnemonic}
		tokens = []string{mnemonic.Text}
		name   = strings.ToLower(mnemonic.Text)
		args   []isa.Argument
	)
	//
	insn, status := p.table.Lookup(name)
	pseudo := LookupPseudo(name)
	//
	switch {
	case status == isa.FOUND:
		parsed.Real, args = insn, insn.Args
	case pseudo != nil && !p.pseudo:
		diag.Report(logger, diag.PseudoDisabled, mnemonic.Location, tokens, name)
		return parsed, false
	case pseudo != nil:
		parsed.Pseudo, args = pseudo, pseudo.Args
	case status == isa.UNSUPPORTED:
		diag.Report(logger, diag.UnsupportedInstruction, mnemonic.Location, tokens, name, requiredVersion(insn),
			p.table.Version())
		//
		return parsed, false
	default:
		diag.Report(logger, diag.UnknownInstruction, mnemonic.Location, tokens, name)
		return parsed, false
	}
	//
	if len(operands) != len(args) {
		diag.Report(logger, diag.ArgumentCount, mnemonic.Location, tokens, name, len(args), len(operands))
		return parsed, false
	}
	//
	ok := true
	parsed.Operands = make([]Operand, len(operands))
	//
	for i, arg := range args {
		operand, ook := ParseOperand(operands[i], mnemonic.Location, logger)
		//
		if ook && !operand.Kind.accepts(arg) {
			diag.Report(logger, diag.ArgumentKind, operand.Location, []string{operand.Text}, i+1, name, arg.String())
			//
			ook = false
		}
		//
		parsed.Operands[i] = operand
		ok = ok && ook
	}
	//
	return parsed, ok
}

func requiredVersion(insn *isa.Instruction) string {
	if insn.Until == isa.LATEST {
		return fmt.Sprintf("%s or later", insn.Since)
	} else if insn.Since == insn.Until {
		return insn.Since.String()
	}
	//
	return fmt.Sprintf("%s..%s", insn.Since, insn.Until)
}

// Encode a parsed instruction into one or more machine words, evaluating its
// operands in the given context.  The number of words returned always matches
// the parsed instruction's count, even when problems are reported, so that
// addresses remain consistent.
func (p *Encoder) Encode(ctx Context, parsed Parsed, logger diag.Logger) ([]Word, bool) {
	values, ok := p.evaluate(ctx, parsed, logger)
	words := make([]Word, parsed.Count())
	//
	if !ok {
		return words, false
	}
	//
	var reals []Real
	//
	if parsed.Real != nil {
		reals = []Real{{parsed.Real, values}}
	} else {
		checkPseudo(parsed.Pseudo, values, logger)
		reals = parsed.Pseudo.Expand(p.table, values)
	}
	//
	for i, instr := range reals {
		var wok bool
		//
		loc := ctx.Location().Add(4 * int64(i))
		words[i], wok = encodeReal(instr, loc, logger)
		ok = ok && wok
	}
	//
	return words, ok
}

func (p *Encoder) evaluate(ctx Context, parsed Parsed, logger diag.Logger) ([]Value, bool) {
	var (
		ok     = true
		values = make([]Value, len(parsed.Operands))
	)
	//
	for i := range parsed.Operands {
		var (
			operand = &parsed.Operands[i]
			value   = Value{Register: operand.Register, Result: expr.Constant(0), Origin: operand}
			vok     = true
		)
		//
		if operand.Expr != nil {
			value.Result, vok = operand.Expr.Evaluate(ctx, logger)
		}
		//
		values[i] = value
		ok = ok && vok
	}
	//
	return values, ok
}

// Constants loaded by a pseudo-instruction must fit in a 32-bit register.
func checkPseudo(pseudo *Pseudo, values []Value, logger diag.Logger) {
	for i, arg := range pseudo.Args {
		v := values[i]
		//
		if arg != isa.IMMEDIATE || v.Result.IsRelocatable() {
			continue
		}
		//
		if n := v.Result.Value.Value; !isa.FitsSigned(n, 32) && !isa.FitsUnsigned(n, 32) {
			v.report(logger, diag.ImmediateTruncated, n, 32, int64(uint32(n)))
		}
	}
}

func encodeReal(instr Real, loc object.Address, logger diag.Logger) (Word, bool) {
	var (
		insn     = instr.Instruction
		operands = make([]isa.Operand, len(insn.Args))
		ref      = util.None[object.Reference]()
		ok       = true
	)
	//
	for i, arg := range insn.Args {
		var (
			v   = instr.Operands[i]
			op  isa.Operand
			r   util.Option[object.Reference]
			vok bool
		)
		//
		switch arg {
		case isa.RS, isa.RT, isa.RD:
			op, vok = isa.Reg(v.Register), true
		case isa.SHAMT:
			op, vok = encodeShift(v, logger)
		case isa.IMMEDIATE, isa.UNSIGNED:
			op, r, vok = encodeImmediate(arg, v, loc, logger)
		case isa.MEMORY:
			op, r, vok = encodeImmediate(isa.IMMEDIATE, v, loc, logger)
			op.Base = v.Register
		case isa.BRANCH:
			op, r, vok = encodeBranch(v, loc, logger)
		case isa.TARGET:
			op, r, vok = encodeTarget(v, loc, logger)
		default:
			panic("unreachable")
		}
		//
		if r.HasValue() {
			ref = r
		}
		//
		operands[i] = op
		ok = ok && vok
	}
	//
	return Word{insn.Encode(operands...), ref}, ok
}

func encodeShift(v Value, logger diag.Logger) (isa.Operand, bool) {
	if v.Result.IsRelocatable() {
		v.report(logger, diag.RelocatableShift)
		return isa.Imm(0), false
	}
	//
	n := v.Result.Value.Value
	//
	if !isa.FitsUnsigned(n, 5) {
		v.report(logger, diag.ImmediateTruncated, n, 5, n&isa.REGISTER_MASK)
	}
	//
	return isa.Imm(n), true
}

func encodeImmediate(arg isa.Argument, v Value, loc object.Address,
	logger diag.Logger) (isa.Operand, util.Option[object.Reference], bool) {
	//
	none := util.None[object.Reference]()
	n := v.Result.Value.Value
	// Relocatable values are completed by the linker
	if v.Result.IsRelocatable() {
		symbol, addend := v.Result.Target()
		ref := object.Reference{Location: loc, Symbol: symbol, Kind: object.LOW16, Addend: addend}
		//
		if v.Part == HIGH {
			ref.Kind = object.HIGH16
			return isa.Imm(addend >> 16), util.Some(ref), true
		}
		//
		return isa.Imm(addend), util.Some(ref), true
	}
	//
	switch v.Part {
	case HIGH:
		return isa.Imm(int64(uint32(n) >> 16)), none, true
	case LOW:
		return isa.Imm(n & isa.IMMEDIATE_MASK), none, true
	}
	//
	if arg == isa.UNSIGNED && !isa.FitsUnsigned(n, 16) {
		v.report(logger, diag.ImmediateTruncated, n, 16, n&isa.IMMEDIATE_MASK)
	} else if arg == isa.IMMEDIATE && !isa.FitsSigned(n, 16) {
		v.report(logger, diag.ImmediateTruncated, n, 16, isa.SignExtend(uint32(n), 16))
	}
	//
	return isa.Imm(n), none, true
}

func encodeBranch(v Value, loc object.Address, logger diag.Logger) (isa.Operand, util.Option[object.Reference], bool) {
	var (
		none   = util.None[object.Reference]()
		result = v.Result
		words  int64
	)
	//
	switch {
	case !result.IsRelocatable():
		// Numeric operands give the word offset directly
		words = result.Value.Value
	case result.Reference.IsEmpty() && result.Value.Section == loc.Section:
		disp := result.Value.Value - (loc.Value + 4)
		//
		if disp%4 != 0 {
			v.report(logger, diag.BranchMisaligned)
			return isa.Imm(0), none, false
		}
		//
		words = disp >> 2
	default:
		symbol, addend := result.Target()
		//
		if addend%4 != 0 {
			v.report(logger, diag.BranchMisaligned)
			return isa.Imm(0), none, false
		}
		//
		ref := object.Reference{Location: loc, Symbol: symbol, Kind: object.PCREL16, Addend: addend}
		//
		return isa.Imm(addend >> 2), util.Some(ref), true
	}
	//
	if !isa.FitsSigned(words, 16) {
		v.report(logger, diag.BranchOutOfRange, words)
		return isa.Imm(0), none, false
	}
	//
	return isa.Imm(words), none, true
}

func encodeTarget(v Value, loc object.Address, logger diag.Logger) (isa.Operand, util.Option[object.Reference], bool) {
	var (
		none   = util.None[object.Reference]()
		result = v.Result
	)
	//
	if result.IsRelocatable() {
		symbol, addend := result.Target()
		//
		if addend%4 != 0 {
			v.report(logger, diag.BranchMisaligned)
			return isa.Imm(0), none, false
		}
		//
		ref := object.Reference{Location: loc, Symbol: symbol, Kind: object.JUMP26, Addend: addend}
		//
		return isa.Imm(addend >> 2), util.Some(ref), true
	}
	//
	n := result.Value.Value
	//
	if n%4 != 0 {
		v.report(logger, diag.BranchMisaligned)
		return isa.Imm(0), none, false
	} else if !isa.FitsUnsigned(n, 28) {
		v.report(logger, diag.JumpRegion, n)
	}
	//
	return isa.Imm(n >> 2), none, true
}

// Report a problem with this value.  Values synthesised during pseudo
// expansion have no origin, but are always valid.
func (v Value) report(logger diag.Logger, kind diag.Kind, args ...any) {
	var (
		loc    source.Location
		tokens []string
	)
	//
	if v.Origin != nil {
		loc, tokens = v.Origin.Location, []string{v.Origin.Text}
	}
	//
	diag.Report(logger, kind, loc, tokens, args...)
}
