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
	"testing"

	"github.com/consensys/go-mips/pkg/util/assert"
)

func Test_Version_Parse(t *testing.T) {
	for v := MIPS1; v <= LATEST; v++ {
		parsed, err := ParseVersion(v.String())
		assert.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
	//
	_, err := ParseVersion("mips99")
	assert.True(t, err != nil)
}

func Test_Version_Flag(t *testing.T) {
	var v Version
	//
	assert.NoError(t, v.Set("MIPS32R6"))
	assert.Equal(t, MIPS32R6, v)
	assert.Equal(t, "version", v.Type())
	assert.True(t, v.Set("r2") != nil)
	// Unchanged on failure
	assert.Equal(t, MIPS32R6, v)
}

func Test_Register_Parse(t *testing.T) {
	checkRegister(t, "$zero", ZERO)
	checkRegister(t, "$0", ZERO)
	checkRegister(t, "$at", AT)
	checkRegister(t, "$t0", 8)
	checkRegister(t, "$8", 8)
	checkRegister(t, "$s0", 16)
	checkRegister(t, "$t8", 24)
	checkRegister(t, "$fp", 30)
	checkRegister(t, "$s8", 30)
	checkRegister(t, "$sp", SP)
	checkRegister(t, "$31", RA)
	checkRegister(t, "$ra", RA)
}

func Test_Register_Invalid(t *testing.T) {
	for _, name := range []string{"$", "t0", "$32", "$t10", "$08", "$-1", "$zer0"} {
		_, ok := ParseRegister(name)
		assert.False(t, ok, "register %s should be invalid", name)
	}
}

func Test_Register_String(t *testing.T) {
	assert.Equal(t, "$s0", Register(16).String())
	assert.Equal(t, "$ra", RA.String())
}

func Test_Lookup_Status(t *testing.T) {
	checkLookup(t, MIPS32R2, "add", FOUND)
	checkLookup(t, MIPS32R2, "ADDI", FOUND)
	checkLookup(t, MIPS32R2, "foo", UNKNOWN)
	checkLookup(t, MIPS1, "movz", UNSUPPORTED)
	checkLookup(t, MIPS4, "movz", FOUND)
	checkLookup(t, MIPS32R6, "addi", UNSUPPORTED)
	checkLookup(t, MIPS1, "beql", UNSUPPORTED)
	checkLookup(t, MIPS2, "beql", FOUND)
	checkLookup(t, MIPS4, "mul", UNSUPPORTED)
}

func Test_Encode_Known(t *testing.T) {
	table := NewTable(DEFAULT_VERSION)
	//
	checkEncoding(t, table, 0x21100064, "addi", Reg(16), Reg(8), Imm(100))
	checkEncoding(t, table, 0x012A4020, "add", Reg(8), Reg(9), Reg(10))
	checkEncoding(t, table, 0x8FA80004, "lw", Reg(8), Mem(4, SP))
	checkEncoding(t, table, 0x08100000, "j", Imm(0x00400000>>2))
	checkEncoding(t, table, 0x3C011001, "lui", Reg(AT), Imm(0x1001))
	checkEncoding(t, table, 0x00084080, "sll", Reg(8), Reg(8), Imm(2))
	checkEncoding(t, table, 0x0000000C, "syscall")
	checkEncoding(t, table, 0x03E00008, "jr", Reg(RA))
	checkEncoding(t, table, 0x1109FFFF, "beq", Reg(8), Reg(9), Imm(-1))
	checkEncoding(t, table, 0x05110002, "bgezal", Reg(8), Imm(2))
	checkEncoding(t, table, 0x71095002, "mul", Reg(10), Reg(8), Reg(9))
}

func Test_Encode_Masks(t *testing.T) {
	table := NewTable(DEFAULT_VERSION)
	insn, _ := table.Lookup("addiu")
	// Negative immediates are stored in two's complement
	assert.Hex(t, 0x2508FFFF, insn.Encode(Reg(8), Reg(8), Imm(-1)))
}

func Test_RoundTrip_AllVersions(t *testing.T) {
	for v := MIPS1; v <= LATEST; v++ {
		table := NewTable(v)
		//
		for _, insn := range table.Instructions() {
			operands := representativeOperands(insn)
			word := insn.Encode(operands...)
			decoded, ok := table.Decode(word)
			//
			assert.True(t, ok, "%s failed to decode in %s", insn.Name, v)
			assert.Equal(t, insn.Name, decoded.Instruction.Name, "%s decoded incorrectly in %s", insn.Name, v)
			assert.Equal(t, operands, decoded.Operands, "%s operands differ in %s", insn.Name, v)
		}
	}
}

func Test_Decode_Unavailable(t *testing.T) {
	// addi does not exist in release 6
	_, ok := NewTable(MIPS32R6).Decode(0x21100064)
	assert.False(t, ok)
	// nor does an unused SPECIAL function code
	_, ok = NewTable(DEFAULT_VERSION).Decode(0x0000003F)
	assert.False(t, ok)
}

func Test_Disassemble(t *testing.T) {
	table := NewTable(DEFAULT_VERSION)
	//
	assert.Equal(t, "nop", table.Disassemble(0, 0x00400000))
	assert.Equal(t, "addi $s0, $t0, 100", table.Disassemble(0x21100064, 0x00400000))
	assert.Equal(t, "lw $t0, 4($sp)", table.Disassemble(0x8FA80004, 0x00400000))
	assert.Equal(t, "beq $t0, $t1, 0x00400004", table.Disassemble(0x1109FFFF, 0x00400004))
	assert.Equal(t, "jal 0x00400000", table.Disassemble(0x0C100000, 0x00400010))
	assert.Equal(t, ".word 0xffffffff", table.Disassemble(0xFFFFFFFF, 0x00400000))
}

func Test_SignExtend(t *testing.T) {
	assert.Equal(t, int64(-1), SignExtend(0xFFFF, 16))
	assert.Equal(t, int64(0x7FFF), SignExtend(0x7FFF, 16))
	assert.Equal(t, int64(-32768), SignExtend(0x8000, 16))
	assert.True(t, FitsSigned(-32768, 16))
	assert.False(t, FitsSigned(32768, 16))
	assert.True(t, FitsUnsigned(65535, 16))
	assert.False(t, FitsUnsigned(-1, 16))
}

func Test_Field_Access(t *testing.T) {
	word := uint32(0x0C100000)
	assert.Hex(t, 0x00100000, JumpField(word))
	assert.Hex(t, 0x0C100004, WithJumpField(word, 0x00100004))
	assert.Hex(t, 0x3C01FFFF, WithImmediateField(0x3C011001, 0xFFFF))
	assert.Hex(t, 0x1001, ImmediateField(0x3C011001))
}

// ============================================================================
// Helpers
// ============================================================================

func representativeOperands(insn *Instruction) []Operand {
	operands := make([]Operand, len(insn.Args))
	//
	for k, arg := range insn.Args {
		switch arg {
		case RS:
			operands[k] = Reg(9)
		case RT:
			operands[k] = Reg(10)
		case RD:
			operands[k] = Reg(8)
		case SHAMT:
			operands[k] = Imm(5)
		case IMMEDIATE:
			operands[k] = Imm(-100)
		case UNSIGNED:
			operands[k] = Imm(0xBEEF)
		case MEMORY:
			operands[k] = Mem(-8, SP)
		case BRANCH:
			operands[k] = Imm(-3)
		case TARGET:
			operands[k] = Imm(0x123456)
		}
	}
	//
	return operands
}

func checkRegister(t *testing.T, name string, expected Register) {
	t.Helper()
	//
	r, ok := ParseRegister(name)
	assert.True(t, ok, "register %s should be valid", name)
	assert.Equal(t, expected, r)
}

func checkLookup(t *testing.T, version Version, name string, expected LookupStatus) {
	t.Helper()
	//
	_, status := NewTable(version).Lookup(name)
	assert.Equal(t, expected, status, "lookup of %s in %s", name, version)
}

func checkEncoding(t *testing.T, table *Table, expected uint32, name string, operands ...Operand) {
	t.Helper()
	//
	insn, status := table.Lookup(name)
	assert.Equal(t, FOUND, status)
	assert.Hex(t, expected, insn.Encode(operands...), "encoding %s", name)
}
