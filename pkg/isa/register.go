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
	"strconv"
)

// Register identifies one of the 32 general purpose registers.
type Register uint8

// ZERO is hardwired to zero.
const ZERO = Register(0)

// AT is the assembler temporary, which is clobbered by pseudo-instructions.
const AT = Register(1)

// GP is the global pointer.
const GP = Register(28)

// SP is the stack pointer.
const SP = Register(29)

// RA is the return address register.
const RA = Register(31)

// NUM_REGISTERS is the number of general purpose registers.
const NUM_REGISTERS = 32

var registerNames = [NUM_REGISTERS]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

var registerAliases = map[string]Register{"s8": 30}

// ParseRegister parses a register name, such as "$t0", "$fp" or "$8".  The
// leading dollar is required.
func ParseRegister(name string) (Register, bool) {
	if len(name) < 2 || name[0] != '$' {
		return 0, false
	}
	//
	name = name[1:]
	// Numeric register?
	if name[0] >= '0' && name[0] <= '9' {
		n, err := strconv.ParseUint(name, 10, 8)
		if err != nil || n >= NUM_REGISTERS || (len(name) > 1 && name[0] == '0') {
			return 0, false
		}
		//
		return Register(n), true
	}
	//
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	//
	r, ok := registerAliases[name]
	//
	return r, ok
}

// IsRegisterName determines whether a given identifier (without its dollar)
// names a register.
func IsRegisterName(name string) bool {
	_, ok := ParseRegister("$" + name)
	return ok
}

func (r Register) String() string {
	if r < NUM_REGISTERS {
		return "$" + registerNames[r]
	}
	//
	return fmt.Sprintf("$?%d", uint8(r))
}
