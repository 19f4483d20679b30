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
	"github.com/consensys/go-mips/pkg/asm/expr"
	"github.com/consensys/go-mips/pkg/isa"
)

// Part identifies which part of an evaluated value occupies an immediate
// field.
type Part uint8

const (
	// WHOLE uses the entire value
	WHOLE Part = iota
	// HIGH uses the upper 16 bits of a 32-bit value
	HIGH
	// LOW uses the lower 16 bits of a 32-bit value (zero-extended)
	LOW
)

// Value is an evaluated operand.
type Value struct {
	// Register operand, or base register of a memory operand
	Register isa.Register
	// Value of an expression operand, or offset of a memory operand
	Result expr.Result
	// Part of the result used
	Part Part
	// Operand from which this value arose (for reporting)
	Origin *Operand
}

// Real is a single real instruction whose operands have been evaluated.
type Real struct {
	Instruction *isa.Instruction
	Operands    []Value
}

// Pseudo describes an assembler-level instruction which expands into a fixed
// number of real instructions.  Expansions may clobber the assembler
// temporary register ($at).
type Pseudo struct {
	Name string
	// Argument pattern.  Registers, expressions and branch targets are
	// described using the argument kinds of real instructions.
	Args []isa.Argument
	// Number of real instructions produced by every expansion.
	RealInstructionCount uint
	expand               func(t *isa.Table, ops []Value) []Real
}

// Expand this pseudo-instruction into real instructions, using a given
// instruction table.
func (p *Pseudo) Expand(table *isa.Table, operands []Value) []Real {
	reals := p.expand(table, operands)
	//
	if uint(len(reals)) != p.RealInstructionCount {
		panic("inconsistent pseudo-instruction expansion")
	}
	//
	return reals
}

func reg(r isa.Register) Value {
	return Value{Register: r}
}

func part(v Value, p Part) Value {
	v.Part = p
	return v
}

func emit(t *isa.Table, name string, operands ...Value) Real {
	insn, status := t.Lookup(name)
	//
	if status != isa.FOUND {
		panic("pseudo-instruction expands to unavailable instruction " + name)
	}
	//
	return Real{insn, operands}
}

var (
	regReg       = []isa.Argument{isa.RD, isa.RS}
	regImm       = []isa.Argument{isa.RT, isa.IMMEDIATE}
	regRegBranch = []isa.Argument{isa.RS, isa.RT, isa.BRANCH}
	regBranch    = []isa.Argument{isa.RS, isa.BRANCH}
)

// Branch on comparison, via slt into $at.  When swap is set, the registers are
// compared the other way around.  When equal is set, the branch is taken when
// the comparison fails.
func compareAndBranch(swap bool, equal bool) func(*isa.Table, []Value) []Real {
	return func(t *isa.Table, ops []Value) []Real {
		lhs, rhs, branch := ops[0], ops[1], "bne"
		//
		if swap {
			lhs, rhs = rhs, lhs
		}
		//
		if equal {
			branch = "beq"
		}
		//
		return []Real{
			emit(t, "slt", reg(isa.AT), lhs, rhs),
			emit(t, branch, reg(isa.AT), reg(isa.ZERO), ops[2]),
		}
	}
}

// PSEUDO_INSTRUCTIONS lists every pseudo-instruction.
var PSEUDO_INSTRUCTIONS = []*Pseudo{
	{"nop", []isa.Argument{}, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "sll", reg(isa.ZERO), reg(isa.ZERO), Value{Result: expr.Constant(0)})}
	}},
	{"move", regReg, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "addu", ops[0], ops[1], reg(isa.ZERO))}
	}},
	{"li", regImm, 2, loadUpperLower},
	{"la", regImm, 2, loadUpperLower},
	{"abs", regReg, 3, func(t *isa.Table, ops []Value) []Real {
		return []Real{
			emit(t, "sra", reg(isa.AT), ops[1], Value{Result: expr.Constant(31)}),
			emit(t, "xor", ops[0], ops[1], reg(isa.AT)),
			emit(t, "subu", ops[0], ops[0], reg(isa.AT)),
		}
	}},
	{"neg", regReg, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "sub", ops[0], reg(isa.ZERO), ops[1])}
	}},
	{"not", regReg, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "nor", ops[0], ops[1], reg(isa.ZERO))}
	}},
	{"blt", regRegBranch, 2, compareAndBranch(false, false)},
	{"bgt", regRegBranch, 2, compareAndBranch(true, false)},
	{"ble", regRegBranch, 2, compareAndBranch(true, true)},
	{"bge", regRegBranch, 2, compareAndBranch(false, true)},
	{"b", []isa.Argument{isa.BRANCH}, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "beq", reg(isa.ZERO), reg(isa.ZERO), ops[0])}
	}},
	{"beqz", regBranch, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "beq", ops[0], reg(isa.ZERO), ops[1])}
	}},
	{"bnez", regBranch, 1, func(t *isa.Table, ops []Value) []Real {
		return []Real{emit(t, "bne", ops[0], reg(isa.ZERO), ops[1])}
	}},
}

// Load a 32-bit value (or address) via $at, as "lui $at, hi; ori rt, $at, lo".
func loadUpperLower(t *isa.Table, ops []Value) []Real {
	return []Real{
		emit(t, "lui", reg(isa.AT), part(ops[1], HIGH)),
		emit(t, "ori", ops[0], reg(isa.AT), part(ops[1], LOW)),
	}
}

// LookupPseudo returns the pseudo-instruction with the given name, or nil.
func LookupPseudo(name string) *Pseudo {
	for _, p := range PSEUDO_INSTRUCTIONS {
		if p.Name == name {
			return p
		}
	}
	//
	return nil
}
