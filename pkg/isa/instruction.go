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
package isa

import (
	"fmt"
	"strings"
)

// Format identifies the overall layout of an instruction word.
type Format uint8

const (
	// R_FORMAT is op(6) rs(5) rt(5) rd(5) shamt(5) funct(6)
	R_FORMAT Format = iota
	// I_FORMAT is op(6) rs(5) rt(5) immediate(16)
	I_FORMAT
	// J_FORMAT is op(6) target(26)
	J_FORMAT
)

// Argument identifies the kind of an operand, and hence where it is placed in
// the encoded word.
type Argument uint8

const (
	// RS is a register held in bits 21..25
	RS Argument = iota
	// RT is a register held in bits 16..20
	RT
	// RD is a register held in bits 11..15
	RD
	// SHAMT is a 5-bit unsigned shift amount held in bits 6..10
	SHAMT
	// IMMEDIATE is a 16-bit signed immediate held in bits 0..15
	IMMEDIATE
	// UNSIGNED is a 16-bit unsigned immediate held in bits 0..15
	UNSIGNED
	// MEMORY is a 16-bit signed offset held in bits 0..15, together with a
	// base register held in bits 21..25.  This is written "offset(base)".
	MEMORY
	// BRANCH is a 16-bit signed word offset, relative to the delay slot.
	BRANCH
	// TARGET is a 26-bit word address within the current 256MB region.
	TARGET
)

func (a Argument) String() string {
	switch a {
	case RS, RT, RD:
		return "a register"
	case SHAMT:
		return "a shift amount"
	case IMMEDIATE:
		return "a signed immediate"
	case UNSIGNED:
		return "an unsigned immediate"
	case MEMORY:
		return "a memory operand"
	case BRANCH:
		return "a branch target"
	case TARGET:
		return "a jump target"
	}
	//
	panic("unreachable")
}

// IsRegister determines whether this argument is a register operand.
func (a Argument) IsRegister() bool {
	return a == RS || a == RT || a == RD
}

// Bit layout
const (
	OPCODE_SHIFT   = 26
	RS_SHIFT       = 21
	RT_SHIFT       = 16
	RD_SHIFT       = 11
	SHAMT_SHIFT    = 6
	REGISTER_MASK  = 0x1F
	FUNCT_MASK     = 0x3F
	IMMEDIATE_MASK = 0xFFFF
	TARGET_MASK    = 0x03FF_FFFF
)

// Opcodes which select a secondary table.
const (
	// SPECIAL selects by function code.
	SPECIAL = 0x00
	// REGIMM selects by the rt field.
	REGIMM = 0x01
	// SPECIAL2 selects by function code.
	SPECIAL2 = 0x1C
)

// Instruction captures the static metadata for a single (real) instruction.
type Instruction struct {
	// Mnemonic of this instruction
	Name string
	// Layout of the encoded word
	Format Format
	// Primary opcode (bits 26..31)
	Opcode uint8
	// Secondary selector, which is either the function code (for SPECIAL
	// and SPECIAL2) or the rt field (for REGIMM).  Otherwise, zero.
	Funct uint8
	// Ordered argument pattern
	Args []Argument
	// First version supporting this instruction
	Since Version
	// Last version supporting this instruction (inclusive)
	Until Version
}

// AvailableIn determines whether this instruction exists in a given version.
func (p *Instruction) AvailableIn(version Version) bool {
	return p.Since <= version && version <= p.Until
}

// Operand is the value of a single argument.  For registers, the value is the
// register index.  For memory operands, the value holds the offset and base
// holds the base register.  For branches, the value is the word offset from the
// delay slot, whilst for jumps it is the 26-bit word address.
type Operand struct {
	Value int64
	Base  Register
}

// Reg constructs a register operand.
func Reg(r Register) Operand {
	return Operand{Value: int64(r)}
}

// Imm constructs an immediate operand.
func Imm(v int64) Operand {
	return Operand{Value: v}
}

// Mem constructs a memory operand.
func Mem(offset int64, base Register) Operand {
	return Operand{offset, base}
}

func key(opcode uint8, funct uint8) uint16 {
	return uint16(opcode)<<8 | uint16(funct)
}

// Encode packs a given set of operands into an instruction word.  Operands are
// masked to the width of their fields; range checking is the caller's
// responsibility.  This panics if the number of operands is incorrect.
func (p *Instruction) Encode(operands ...Operand) uint32 {
	if len(operands) != len(p.Args) {
		panic(fmt.Sprintf("instruction %s expects %d operands (given %d)", p.Name, len(p.Args), len(operands)))
	}
	//
	word := uint32(p.Opcode) << OPCODE_SHIFT
	//
	switch p.Opcode {
	case SPECIAL, SPECIAL2:
		word |= uint32(p.Funct)
	case REGIMM:
		word |= uint32(p.Funct) << RT_SHIFT
	}
	//
	for i, arg := range p.Args {
		word |= encodeArgument(arg, operands[i])
	}
	//
	return word
}

func encodeArgument(arg Argument, op Operand) uint32 {
	value := uint32(op.Value)
	//
	switch arg {
	case RS:
		return (value & REGISTER_MASK) << RS_SHIFT
	case RT:
		return (value & REGISTER_MASK) << RT_SHIFT
	case RD:
		return (value & REGISTER_MASK) << RD_SHIFT
	case SHAMT:
		return (value & REGISTER_MASK) << SHAMT_SHIFT
	case IMMEDIATE, UNSIGNED, BRANCH:
		return value & IMMEDIATE_MASK
	case MEMORY:
		return (uint32(op.Base)&REGISTER_MASK)<<RS_SHIFT | value&IMMEDIATE_MASK
	case TARGET:
		return value & TARGET_MASK
	}
	//
	panic("unreachable")
}

func decodeArgument(arg Argument, word uint32) Operand {
	switch arg {
	case RS:
		return Imm(int64(word >> RS_SHIFT & REGISTER_MASK))
	case RT:
		return Imm(int64(word >> RT_SHIFT & REGISTER_MASK))
	case RD:
		return Imm(int64(word >> RD_SHIFT & REGISTER_MASK))
	case SHAMT:
		return Imm(int64(word >> SHAMT_SHIFT & REGISTER_MASK))
	case IMMEDIATE, BRANCH:
		return Imm(SignExtend(word&IMMEDIATE_MASK, 16))
	case UNSIGNED:
		return Imm(int64(word & IMMEDIATE_MASK))
	case MEMORY:
		return Mem(SignExtend(word&IMMEDIATE_MASK, 16), Register(word>>RS_SHIFT&REGISTER_MASK))
	case TARGET:
		return Imm(int64(word & TARGET_MASK))
	}
	//
	panic("unreachable")
}

// SignExtend interprets the low n bits of a value as a two's complement
// integer.
func SignExtend(value uint32, n uint) int64 {
	shift := 32 - n
	return int64(int32(value<<shift) >> shift)
}

// FitsSigned determines whether a value can be represented as an n-bit two's
// complement integer.
func FitsSigned(value int64, n uint) bool {
	bound := int64(1) << (n - 1)
	return -bound <= value && value < bound
}

// FitsUnsigned determines whether a value can be represented as an n-bit
// unsigned integer.
func FitsUnsigned(value int64, n uint) bool {
	return 0 <= value && value < int64(1)<<n
}

// Decoded represents an instruction word broken into its constituent parts.
type Decoded struct {
	Instruction *Instruction
	Operands    []Operand
}

func (p Decoded) String() string {
	var builder strings.Builder
	//
	builder.WriteString(p.Instruction.Name)
	//
	for i, arg := range p.Instruction.Args {
		if i == 0 {
			builder.WriteString(" ")
		} else {
			builder.WriteString(", ")
		}
		//
		builder.WriteString(formatOperand(arg, p.Operands[i]))
	}
	//
	return builder.String()
}

func formatOperand(arg Argument, op Operand) string {
	switch arg {
	case RS, RT, RD:
		return Register(op.Value).String()
	case MEMORY:
		return fmt.Sprintf("%d(%s)", op.Value, op.Base)
	case UNSIGNED, TARGET:
		return fmt.Sprintf("0x%x", op.Value)
	default:
		return fmt.Sprintf("%d", op.Value)
	}
}

// ============================================================================
// Field access (used for relocation)
// ============================================================================

// JumpField extracts the 26-bit target field of a jump instruction.
func JumpField(word uint32) uint32 {
	return word & TARGET_MASK
}

// WithJumpField replaces the 26-bit target field of a jump instruction.
func WithJumpField(word uint32, target uint32) uint32 {
	return word&^TARGET_MASK | target&TARGET_MASK
}

// ImmediateField extracts the 16-bit immediate field of an instruction.
func ImmediateField(word uint32) uint32 {
	return word & IMMEDIATE_MASK
}

// WithImmediateField replaces the 16-bit immediate field of an instruction.
func WithImmediateField(word uint32, imm uint32) uint32 {
	return word&^IMMEDIATE_MASK | imm&IMMEDIATE_MASK
}
