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
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/insn"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/isa"
)

// IsValidSymbolName checks whether a given name can be used for a symbol.
// Names must be identifiers and cannot clash with the name of a register, an
// instruction or a standard section.  For example, "loop" and ".L1" are valid,
// whilst "addi", "sp" and ".text" are not.
func (p *Assembler) IsValidSymbolName(name string) bool {
	return isValidSymbolName(p.encoder, name)
}

func isValidSymbolName(encoder *insn.Encoder, name string) bool {
	switch {
	case !lexer.IsIdentifier(name):
		return false
	case isa.IsRegisterName(name):
		return false
	case encoder.IsMnemonic(name):
		return false
	case isSectionDirective(name):
		return false
	}
	//
	return true
}

func isSectionDirective(name string) bool {
	_, ok := sectionDirectives[name]
	return ok
}

// Check a symbol name and report it if it is illegal.
func (p *assembly) checkSymbolName(token lexer.Token) bool {
	if !isValidSymbolName(p.encoder, token.Text) {
		diag.Report(p.logger, diag.IllegalSymbolName, token.Location, []string{token.Text}, token.Text)
		return false
	}
	//
	return true
}
