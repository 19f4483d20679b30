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
package linker

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/source"
)

// Layout determines where every section of every module is placed in memory.
// Sections of the same name are concatenated (in module order) to form a
// single output section.  Executable sections are placed from the text base,
// and all others from the data base, in the standard order followed by any
// other sections in order of first appearance.
type Layout struct {
	modules  []*object.Module
	sections []*outputSection
	// Offset of each module's contribution to each output section
	offsets []map[string]int64
}

type outputSection struct {
	name  string
	flags object.SectionFlags
	// Largest alignment of any contribution (as a power of two)
	alignment uint
	size      int64
	address   int64
}

func (s *outputSection) overlaps(o *outputSection) bool {
	if s.size == 0 || o.size == 0 {
		return false
	}
	//
	return s.address < o.address+o.size && o.address < s.address+s.size
}

func newLayout(cfg config.Link, modules []*object.Module) *Layout {
	layout := &Layout{modules: modules, offsets: make([]map[string]int64, len(modules))}
	//
	for i := range modules {
		layout.offsets[i] = make(map[string]int64)
	}
	//
	for _, name := range sectionNames(modules) {
		layout.sections = append(layout.sections, layout.concatenate(name))
	}
	// Assign addresses
	var (
		text = int64(cfg.TextBase)
		data = int64(cfg.DataBase)
	)
	//
	for _, s := range layout.sections {
		cursor := &data
		//
		if s.flags.Has(object.EXEC) {
			cursor = &text
		}
		//
		s.address = alignUp(*cursor, max(s.alignment, 2))
		*cursor = s.address + s.size
	}
	//
	return layout
}

// Determine the offset of each module's contribution to a given section.
// Modules without such a section still get an (empty) contribution, so that
// the section's name can be resolved within them.
func (p *Layout) concatenate(name string) *outputSection {
	var (
		out    = &outputSection{name: name, flags: object.StandardFlags(name)}
		found  bool
		cursor int64
	)
	//
	for i, m := range p.modules {
		s := m.Section(name)
		//
		if s == nil {
			p.offsets[i][name] = cursor
			continue
		} else if !found {
			out.flags, found = s.Flags, true
		}
		//
		cursor = alignUp(cursor, s.Alignment)
		p.offsets[i][name] = cursor
		cursor += s.Len()
		out.alignment = max(out.alignment, s.Alignment)
	}
	//
	out.size = cursor
	//
	return out
}

// Resolve an address within a given module to its final value.
func (p *Layout) Resolve(module int, addr object.Address) int64 {
	if !addr.IsRelocatable() {
		return addr.Value
	}
	//
	return p.section(addr.Section).address + p.offsets[module][addr.Section] + addr.Value
}

func (p *Layout) section(name string) *outputSection {
	for _, s := range p.sections {
		if s.name == name {
			return s
		}
	}
	//
	panic(fmt.Sprintf("unknown section %s", name))
}

func (p *Layout) checkOverlaps(logger diag.Logger) {
	for i, s := range p.sections {
		for _, o := range p.sections[i+1:] {
			if s.overlaps(o) {
				diag.Report(logger, diag.SectionOverlap, source.Location{}, nil, s.name, o.name)
			}
		}
	}
}

// Construct the linked image.  This copies the (by now relocated) contents of
// every module, and records the final address of every exported symbol.
func (p *Layout) build(order binary.ByteOrder, globals map[string]Global) *object.Module {
	image := object.NewModule("image", order)
	//
	for _, out := range p.sections {
		image.AddSection(out.name, out.flags).VirtualAddress = uint64(out.address)
		//
		for i, m := range p.modules {
			s := m.Section(out.name)
			//
			if s == nil {
				continue
			}
			//
			image.Align(out.name, s.Alignment)
			//
			if image.Offset(out.name) != p.offsets[i][out.name] {
				panic("inconsistent section layout")
			}
			//
			image.Append(out.name, s.Bytes()...)
		}
	}
	//
	for _, name := range sortedNames(globals) {
		g := globals[name]
		image.TryDefineSymbol(name, g.Symbol.Type, util.Some(object.Absolute(g.Address)), g.Symbol.Origin)
		image.DeclareBinding(name, g.Symbol.Binding)
	}
	//
	image.Finalize()
	//
	return image
}

// Determine the names of all sections across all modules.  The standard
// sections always come first (whether or not they are used), followed by any
// others in order of first appearance.
func sectionNames(modules []*object.Module) []string {
	names := slices.Clone(object.STANDARD_SECTIONS)
	//
	for _, m := range modules {
		for _, s := range m.Sections() {
			if !slices.Contains(names, s.Name) {
				names = append(names, s.Name)
			}
		}
	}
	//
	return names
}

func alignUp(n int64, boundary uint) int64 {
	mask := int64(1)<<boundary - 1
	return (n + mask) &^ mask
}
