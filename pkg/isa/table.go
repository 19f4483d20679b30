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
	"slices"
	"strings"
)

// Common argument patterns
var (
	rdRsRt   = []Argument{RD, RS, RT}
	rdRtRs   = []Argument{RD, RT, RS}
	rdRtSa   = []Argument{RD, RT, SHAMT}
	rtRsImm  = []Argument{RT, RS, IMMEDIATE}
	rtRsUimm = []Argument{RT, RS, UNSIGNED}
	rtMem    = []Argument{RT, MEMORY}
	rsRt     = []Argument{RS, RT}
	rsRtOff  = []Argument{RS, RT, BRANCH}
	rsOff    = []Argument{RS, BRANCH}
	rdOnly   = []Argument{RD}
	rsOnly   = []Argument{RS}
	noArgs   = []Argument{}
)

func rType(name string, funct uint8, args []Argument, since, until Version) Instruction {
	return Instruction{name, R_FORMAT, SPECIAL, funct, args, since, until}
}

func special2(name string, funct uint8, args []Argument, since, until Version) Instruction {
	return Instruction{name, R_FORMAT, SPECIAL2, funct, args, since, until}
}

func regimm(name string, rt uint8, args []Argument, since, until Version) Instruction {
	return Instruction{name, I_FORMAT, REGIMM, rt, args, since, until}
}

func iType(name string, opcode uint8, args []Argument, since, until Version) Instruction {
	return Instruction{name, I_FORMAT, opcode, 0, args, since, until}
}

func jType(name string, opcode uint8) Instruction {
	return Instruction{name, J_FORMAT, opcode, 0, []Argument{TARGET}, MIPS1, LATEST}
}

// The complete set of known (real) instructions across all versions.
var instructions = []Instruction{
	// SPECIAL
	rType("sll", 0x00, rdRtSa, MIPS1, LATEST),
	rType("srl", 0x02, rdRtSa, MIPS1, LATEST),
	rType("sra", 0x03, rdRtSa, MIPS1, LATEST),
	rType("sllv", 0x04, rdRtRs, MIPS1, LATEST),
	rType("srlv", 0x06, rdRtRs, MIPS1, LATEST),
	rType("srav", 0x07, rdRtRs, MIPS1, LATEST),
	rType("jr", 0x08, rsOnly, MIPS1, LATEST),
	rType("jalr", 0x09, []Argument{RD, RS}, MIPS1, LATEST),
	rType("movz", 0x0A, rdRsRt, MIPS4, MIPS32R2),
	rType("movn", 0x0B, rdRsRt, MIPS4, MIPS32R2),
	rType("syscall", 0x0C, noArgs, MIPS1, LATEST),
	rType("break", 0x0D, noArgs, MIPS1, LATEST),
	rType("mfhi", 0x10, rdOnly, MIPS1, MIPS32R2),
	rType("mthi", 0x11, rsOnly, MIPS1, MIPS32R2),
	rType("mflo", 0x12, rdOnly, MIPS1, MIPS32R2),
	rType("mtlo", 0x13, rsOnly, MIPS1, MIPS32R2),
	rType("mult", 0x18, rsRt, MIPS1, MIPS32R2),
	rType("multu", 0x19, rsRt, MIPS1, MIPS32R2),
	rType("div", 0x1A, rsRt, MIPS1, MIPS32R2),
	rType("divu", 0x1B, rsRt, MIPS1, MIPS32R2),
	rType("add", 0x20, rdRsRt, MIPS1, LATEST),
	rType("addu", 0x21, rdRsRt, MIPS1, LATEST),
	rType("sub", 0x22, rdRsRt, MIPS1, LATEST),
	rType("subu", 0x23, rdRsRt, MIPS1, LATEST),
	rType("and", 0x24, rdRsRt, MIPS1, LATEST),
	rType("or", 0x25, rdRsRt, MIPS1, LATEST),
	rType("xor", 0x26, rdRsRt, MIPS1, LATEST),
	rType("nor", 0x27, rdRsRt, MIPS1, LATEST),
	rType("slt", 0x2A, rdRsRt, MIPS1, LATEST),
	rType("sltu", 0x2B, rdRsRt, MIPS1, LATEST),
	rType("teq", 0x34, rsRt, MIPS2, LATEST),
	// SPECIAL2
	special2("madd", 0x00, rsRt, MIPS32R1, MIPS32R2),
	special2("mul", 0x02, rdRsRt, MIPS32R1, MIPS32R2),
	// REGIMM
	regimm("bltz", 0x00, rsOff, MIPS1, LATEST),
	regimm("bgez", 0x01, rsOff, MIPS1, LATEST),
	regimm("bltzal", 0x10, rsOff, MIPS1, MIPS32R2),
	regimm("bgezal", 0x11, rsOff, MIPS1, MIPS32R2),
	// Jumps
	jType("j", 0x02),
	jType("jal", 0x03),
	// Branches
	iType("beq", 0x04, rsRtOff, MIPS1, LATEST),
	iType("bne", 0x05, rsRtOff, MIPS1, LATEST),
	iType("blez", 0x06, rsOff, MIPS1, LATEST),
	iType("bgtz", 0x07, rsOff, MIPS1, LATEST),
	iType("beql", 0x14, rsRtOff, MIPS2, MIPS32R2),
	iType("bnel", 0x15, rsRtOff, MIPS2, MIPS32R2),
	// Arithmetic / logical immediates
	iType("addi", 0x08, rtRsImm, MIPS1, MIPS32R2),
	iType("addiu", 0x09, rtRsImm, MIPS1, LATEST),
	iType("slti", 0x0A, rtRsImm, MIPS1, LATEST),
	iType("sltiu", 0x0B, rtRsImm, MIPS1, LATEST),
	iType("andi", 0x0C, rtRsUimm, MIPS1, LATEST),
	iType("ori", 0x0D, rtRsUimm, MIPS1, LATEST),
	iType("xori", 0x0E, rtRsUimm, MIPS1, LATEST),
	iType("lui", 0x0F, []Argument{RT, UNSIGNED}, MIPS1, LATEST),
	// Loads / stores
	iType("lb", 0x20, rtMem, MIPS1, LATEST),
	iType("lh", 0x21, rtMem, MIPS1, LATEST),
	iType("lw", 0x23, rtMem, MIPS1, LATEST),
	iType("lbu", 0x24, rtMem, MIPS1, LATEST),
	iType("lhu", 0x25, rtMem, MIPS1, LATEST),
	iType("sb", 0x28, rtMem, MIPS1, LATEST),
	iType("sh", 0x29, rtMem, MIPS1, LATEST),
	iType("sw", 0x2B, rtMem, MIPS1, LATEST),
	iType("ll", 0x30, rtMem, MIPS2, MIPS32R2),
	iType("sc", 0x38, rtMem, MIPS2, MIPS32R2),
}

// IsMnemonic determines whether a given name is the mnemonic of some real
// instruction, in any version.
func IsMnemonic(name string) bool {
	name = strings.ToLower(name)
	//
	for k := range instructions {
		if instructions[k].Name == name {
			return true
		}
	}
	//
	return false
}

// LookupStatus indicates the outcome of looking up a mnemonic.
type LookupStatus uint8

const (
	// FOUND indicates the instruction exists in the selected version.
	FOUND LookupStatus = iota
	// UNKNOWN indicates no instruction of that name exists in any version.
	UNKNOWN
	// UNSUPPORTED indicates the instruction exists, but not in the selected
	// version.
	UNSUPPORTED
)

// Table is an immutable instruction metadata table for a given version.  A
// table is constructed once and then shared by reference; it is safe for
// concurrent use.
type Table struct {
	version Version
	// All instructions, regardless of version, indexed by mnemonic.
	byName map[string]*Instruction
	// Instructions of the selected version, indexed by opcode/selector.
	byKey map[uint16]*Instruction
}

// NewTable constructs the instruction table for a given version.
func NewTable(version Version) *Table {
	var (
		byName = make(map[string]*Instruction, len(instructions))
		byKey  = make(map[uint16]*Instruction, len(instructions))
	)
	//
	for k := range instructions {
		insn := &instructions[k]
		byName[insn.Name] = insn
		//
		if insn.AvailableIn(version) {
			byKey[key(insn.Opcode, insn.Funct)] = insn
		}
	}
	//
	return &Table{version, byName, byKey}
}

// Version returns the version for which this table was constructed.
func (p *Table) Version() Version {
	return p.version
}

// Lookup an instruction by mnemonic (ignoring case).  When the status is
// UNSUPPORTED the instruction is still returned, so that the caller can report
// which versions do support it.
func (p *Table) Lookup(name string) (*Instruction, LookupStatus) {
	insn, ok := p.byName[strings.ToLower(name)]
	//
	if !ok {
		return nil, UNKNOWN
	} else if !insn.AvailableIn(p.version) {
		return insn, UNSUPPORTED
	}
	//
	return insn, FOUND
}

// Instructions returns all instructions available in this table's version,
// sorted by mnemonic.
func (p *Table) Instructions() []*Instruction {
	var insns []*Instruction
	//
	for _, insn := range p.byKey {
		insns = append(insns, insn)
	}
	//
	slices.SortFunc(insns, func(l, r *Instruction) int { return strings.Compare(l.Name, r.Name) })
	//
	return insns
}

// Decode an instruction word, returning false if the word does not correspond
// to any instruction of this table's version.
func (p *Table) Decode(word uint32) (Decoded, bool) {
	var (
		opcode = uint8(word >> OPCODE_SHIFT)
		funct  uint8
	)
	//
	switch opcode {
	case SPECIAL, SPECIAL2:
		funct = uint8(word & FUNCT_MASK)
	case REGIMM:
		funct = uint8(word >> RT_SHIFT & REGISTER_MASK)
	}
	//
	insn, ok := p.byKey[key(opcode, funct)]
	if !ok {
		return Decoded{}, false
	}
	//
	operands := make([]Operand, len(insn.Args))
	//
	for k, arg := range insn.Args {
		operands[k] = decodeArgument(arg, word)
	}
	//
	return Decoded{insn, operands}, true
}
