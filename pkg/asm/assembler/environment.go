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
	"github.com/consensys/go-mips/pkg/asm/object"
)

// Environment captures the state of a module during assembly which determines
// how each statement is assembled.  Amongst other things, it provides the
// context in which expressions are evaluated.
type Environment struct {
	module *object.Module
	// Section currently being assembled into
	section string
	// Indicates the assembler temporary ($at) is reserved for
	// pseudo-instructions (".set at"), as opposed to being available to the
	// programmer (".set noat").
	reserveAt bool
	// Indicates whether instructions may be reordered (".set reorder").  This
	// is recorded but has no effect, since no reordering is ever performed.
	reorder bool
}

// NewEnvironment constructs the initial environment for assembling a given
// module.  Assembly begins in the text section.
func NewEnvironment(module *object.Module) *Environment {
	return &Environment{module, object.TEXT, true, true}
}

// Module returns the module being assembled.
func (p *Environment) Module() *object.Module {
	return p.module
}

// Section returns the name of the section currently being assembled into.
func (p *Environment) Section() string {
	return p.section
}

// Flags returns the flags of the current section.
func (p *Environment) Flags() object.SectionFlags {
	if s := p.module.Section(p.section); s != nil {
		return s.Flags
	}
	//
	return object.StandardFlags(p.section)
}

// SwitchSection makes a given section current, creating it with the given
// flags if it does not already exist.
func (p *Environment) SwitchSection(name string, flags object.SectionFlags) {
	p.module.AddSection(name, flags)
	p.section = name
}

// Resolve implementation for the expr.Context interface.  Only symbols which
// have already been defined can be resolved; a section name resolves to the
// start of that section.  Weak symbols are left to the linker, since another
// module may override them.
func (p *Environment) Resolve(name string) (object.Address, bool) {
	if sym := p.module.TryGetSymbol(name); sym.HasValue() {
		s := sym.Unwrap()
		return s.Address.UnwrapOr(object.Absolute(0)), s.IsDefined() && s.Binding != object.WEAK
	} else if p.module.IsSectionName(name) {
		return object.Relative(name, 0), true
	}
	//
	return object.Absolute(0), false
}

// Location implementation for the expr.Context interface.  This is the
// current end of the current section.
func (p *Environment) Location() object.Address {
	return object.Relative(p.section, p.module.Offset(p.section))
}
