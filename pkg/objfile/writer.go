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
package objfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/consensys/go-mips/pkg/asm/linker"
	"github.com/consensys/go-mips/pkg/asm/object"
)

// Marshal converts an assembled module into an object file.  The module must
// be finalized, must not have failed, and can only use the standard sections.
// References to a section become relocation entries, whilst references to a
// named symbol become reference entries.  Every symbol of the module is
// written to the definitions table (including local and undefined symbols).
func Marshal(module *object.Module) ([]byte, error) {
	if !module.IsFinalized() {
		return nil, fmt.Errorf("module %s has not been finalized", module.Name())
	} else if module.Failed() {
		return nil, fmt.Errorf("module %s failed to assemble", module.Name())
	}
	//
	w := newWriter(module)
	//
	if err := w.writeSections(); err != nil {
		return nil, err
	}
	//
	for _, sym := range module.Symbols() {
		if err := w.writeDefinition(sym, 0); err != nil {
			return nil, err
		}
	}
	//
	for _, ref := range module.References() {
		if err := w.writeReference(ref); err != nil {
			return nil, err
		}
	}
	//
	return w.finish(0, 0)
}

// MarshalImage converts a linked image into an executable file.  This records
// the entry point, along with the final address of each section and of every
// exported symbol.  There are no relocation or reference tables.
func MarshalImage(result *linker.Result) ([]byte, error) {
	var (
		image = result.Image
		w     = newWriter(image)
	)
	//
	if err := w.writeSections(); err != nil {
		return nil, err
	}
	// Section addresses
	for _, s := range image.Sections() {
		// Already checked by writeSections
		id, _ := sectionId(s.Name)
		//
		w.addDefinition(SymbolEntry{
			Flags:     uint32(id) | DEFINED | SECTION_START,
			Value:     uint32(s.VirtualAddress),
			NameIndex: w.strings.add(s.Name),
		})
	}
	//
	for _, sym := range image.Symbols() {
		index := result.Globals[sym.Name].Module
		//
		if err := w.writeDefinition(sym, uint16(index)); err != nil {
			return nil, err
		}
	}
	//
	return w.finish(EXECUTABLE, result.Entry)
}

// ============================================================================
// Writer
// ============================================================================

const (
	relocationTable = iota
	referenceTable
	definitionTable
)

type writer struct {
	module   *object.Module
	header   Header
	contents bytes.Buffer
	tables   [3]bytes.Buffer
	strings  *stringTable
}

func newWriter(module *object.Module) *writer {
	return &writer{module: module, strings: newStringTable()}
}

// Write the contents of each section, in layout order.  Uninitialised sections
// contribute only their size.
func (p *writer) writeSections() error {
	for _, s := range p.module.Sections() {
		if _, err := sectionId(s.Name); err != nil {
			return err
		}
	}
	//
	for i, name := range object.STANDARD_SECTIONS {
		s := p.module.Section(name)
		//
		if s == nil {
			continue
		}
		//
		p.header.SectionSizes[i] = uint32(s.Len())
		//
		if hasContents(uint8(i + 1)) {
			p.contents.Write(s.Bytes())
		}
	}
	//
	return nil
}

func (p *writer) writeDefinition(sym object.Symbol, objectIndex uint16) error {
	var entry = SymbolEntry{
		Flags:       uint32(sym.Binding)<<BINDING_SHIFT | uint32(sym.Type)<<KIND_SHIFT,
		NameIndex:   p.strings.add(sym.Name),
		ObjectIndex: objectIndex,
	}
	//
	if sym.IsDefined() {
		addr := sym.Address.Unwrap()
		entry.Flags |= DEFINED
		entry.Value = uint32(addr.Value)
		//
		if addr.IsRelocatable() {
			id, err := sectionId(addr.Section)
			if err != nil {
				return err
			}
			//
			entry.Flags |= uint32(id)
		}
	}
	//
	p.addDefinition(entry)
	//
	return nil
}

func (p *writer) addDefinition(entry SymbolEntry) {
	entry.write(&p.tables[definitionTable])
	p.header.Definitions++
}

func (p *writer) writeReference(ref object.Reference) error {
	location, err := sectionId(ref.Location.Section)
	if err != nil {
		return err
	}
	//
	if p.module.IsSectionName(ref.Symbol) {
		target, err := sectionId(ref.Symbol)
		if err != nil {
			return err
		}
		//
		entry := RelocationEntry{uint32(ref.Location.Value), location, uint8(ref.Kind) | target<<4}
		entry.write(&p.tables[relocationTable])
		p.header.Relocations++
		//
		return nil
	}
	//
	entry := SymbolEntry{
		Flags:     uint32(location) | uint32(ref.Kind)<<KIND_SHIFT,
		Value:     uint32(ref.Location.Value),
		NameIndex: p.strings.add(ref.Symbol),
	}
	//
	entry.write(&p.tables[referenceTable])
	p.header.References++
	//
	return nil
}

// Assemble the final file from its parts.
func (p *writer) finish(flags uint32, entry uint32) ([]byte, error) {
	var buffer bytes.Buffer
	//
	if p.module.ByteOrder() == binary.LittleEndian {
		flags |= LITTLE_ENDIAN
	}
	//
	p.header.Magic = MAGIC
	p.header.Version = VERSION
	p.header.Flags = flags
	p.header.Entry = entry
	p.header.StringTable = uint32(p.strings.buffer.Len())
	//
	header, err := p.header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	//
	buffer.Write(header)
	buffer.Write(p.contents.Bytes())
	//
	for i := range p.tables {
		buffer.Write(p.tables[i].Bytes())
	}
	//
	buffer.Write(p.strings.buffer.Bytes())
	//
	return buffer.Bytes(), nil
}

// ============================================================================
// String table
// ============================================================================

// The string table holds null-terminated names, each stored once.  Index zero
// is always the empty string.
type stringTable struct {
	buffer  bytes.Buffer
	indices map[string]uint32
}

func newStringTable() *stringTable {
	table := &stringTable{indices: map[string]uint32{"": 0}}
	table.buffer.WriteByte(0)
	//
	return table
}

func (p *stringTable) add(name string) uint32 {
	if index, ok := p.indices[name]; ok {
		return index
	}
	//
	index := uint32(p.buffer.Len())
	p.buffer.WriteString(name)
	p.buffer.WriteByte(0)
	p.indices[name] = index
	//
	return index
}
