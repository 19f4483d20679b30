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
package object

import (
	"fmt"

	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/source"
)

// SymbolType distinguishes labels (addresses) from macros (named constants).
type SymbolType uint8

const (
	// UNKNOWN_SYMBOL is the type of a symbol which has been referenced or
	// declared, but not (yet) defined.
	UNKNOWN_SYMBOL SymbolType = iota
	// LABEL is a symbol naming a location.
	LABEL
	// MACRO is a symbol naming a constant, as given by ".eqv" or ".set".
	MACRO
)

func (t SymbolType) String() string {
	switch t {
	case LABEL:
		return "label"
	case MACRO:
		return "macro"
	default:
		return "unknown"
	}
}

// Binding determines the visibility of a symbol outside its module.
type Binding uint8

const (
	// LOCAL symbols are visible only within their module.
	LOCAL Binding = iota
	// GLOBAL symbols are visible to all modules.
	GLOBAL
	// WEAK symbols are visible to all modules, but yield to a global symbol
	// of the same name.  An undefined weak symbol resolves to zero.
	WEAK
)

func (b Binding) String() string {
	switch b {
	case LOCAL:
		return "local"
	case GLOBAL:
		return "global"
	case WEAK:
		return "weak"
	}
	//
	panic("unreachable")
}

// Symbol describes a named location or constant.  A symbol's address is set
// exactly once.
type Symbol struct {
	Name    string
	Type    SymbolType
	Binding Binding
	// Address of this symbol, which is empty until defined.
	Address util.Option[Address]
	// Indicates the symbol was referenced (or declared) before being defined.
	ForwardDeclared bool
	// Location of the definition (if known).
	Origin source.Location
}

// IsDefined determines whether this symbol has been given an address.
func (s Symbol) IsDefined() bool {
	return s.Address.HasValue()
}

// IsExported determines whether this symbol is visible to other modules.
func (s Symbol) IsExported() bool {
	return s.Binding != LOCAL
}

func (s Symbol) String() string {
	if s.IsDefined() {
		return fmt.Sprintf("%s %s %s = %s", s.Binding, s.Type, s.Name, s.Address.Unwrap())
	}
	//
	return fmt.Sprintf("%s %s %s (undefined)", s.Binding, s.Type, s.Name)
}
