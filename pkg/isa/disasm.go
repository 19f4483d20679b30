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

// Disassemble a single instruction word located at a given address.  Branch
// and jump targets are shown as absolute addresses.  Words which do not decode
// are shown as data.
func (p *Table) Disassemble(word uint32, pc uint32) string {
	if word == 0 {
		return "nop"
	}
	//
	decoded, ok := p.Decode(word)
	if !ok {
		return fmt.Sprintf(".word 0x%08x", word)
	}
	//
	var builder strings.Builder
	//
	builder.WriteString(decoded.Instruction.Name)
	//
	for k, arg := range decoded.Instruction.Args {
		if k == 0 {
			builder.WriteString(" ")
		} else {
			builder.WriteString(", ")
		}
		//
		op := decoded.Operands[k]
		//
		switch arg {
		case BRANCH:
			target := int64(pc) + 4 + op.Value<<2
			builder.WriteString(fmt.Sprintf("0x%08x", uint32(target)))
		case TARGET:
			target := (pc+4)&0xF000_0000 | uint32(op.Value)<<2
			builder.WriteString(fmt.Sprintf("0x%08x", target))
		default:
			builder.WriteString(formatOperand(arg, op))
		}
	}
	//
	return builder.String()
}
