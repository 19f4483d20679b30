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
	"errors"
	"fmt"

	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/source"
)

// File is the result of reading an object (or executable) file.
type File struct {
	Header Header
	// Module reconstructed from the file.  This is finalized, and can be
	// linked (unless it is executable).
	Module *object.Module
	// Raw entries of the definitions table
	Definitions []SymbolEntry
}

// Unmarshal reads an object or executable file, giving the reconstructed
// module a given name.  Every section is given word alignment, since larger
// alignments are not recorded.  Reference addends are not recorded either,
// though they remain present in the placeholders.
func Unmarshal(name string, data []byte) (*File, error) {
	var (
		buffer = bytes.NewBuffer(data)
		file   File
	)
	//
	if err := file.Header.UnmarshalBinary(buffer); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	//
	if err := file.read(name, buffer); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	//
	return &file, nil
}

// IsExecutable determines whether this file holds a linked image.
func (p *File) IsExecutable() bool {
	return p.Header.IsExecutable()
}

func (p *File) read(name string, buffer *bytes.Buffer) error {
	var (
		header = &p.Header
		order  binary.ByteOrder
		err    error
	)
	//
	if header.Flags&LITTLE_ENDIAN != 0 {
		order = binary.LittleEndian
	} else {
		order = binary.BigEndian
	}
	//
	p.Module = object.NewModule(name, order)
	//
	if err = p.readSections(buffer); err != nil {
		return err
	}
	// Tables
	relocations := make([]RelocationEntry, header.Relocations)
	references := make([]SymbolEntry, header.References)
	p.Definitions = make([]SymbolEntry, header.Definitions)
	//
	for i := range relocations {
		if relocations[i], err = readRelocationEntry(buffer); err != nil {
			return err
		}
	}
	//
	for i := range references {
		if references[i], err = readSymbolEntry(buffer); err != nil {
			return err
		}
	}
	//
	for i := range p.Definitions {
		if p.Definitions[i], err = readSymbolEntry(buffer); err != nil {
			return err
		}
	}
	//
	strings, err := next(buffer, int(header.StringTable))
	if err != nil {
		return err
	} else if buffer.Len() != 0 {
		return errors.New("trailing data")
	}
	// Definitions first, so references do not create forward declarations
	for _, entry := range p.Definitions {
		if err := p.define(entry, strings); err != nil {
			return err
		}
	}
	//
	for _, entry := range relocations {
		if err := p.relocation(entry); err != nil {
			return err
		}
	}
	//
	for _, entry := range references {
		if err := p.reference(entry, strings); err != nil {
			return err
		}
	}
	//
	p.Module.Finalize()
	//
	return nil
}

func (p *File) readSections(buffer *bytes.Buffer) error {
	for i, name := range object.STANDARD_SECTIONS {
		size := int(p.Header.SectionSizes[i])
		//
		if size == 0 {
			continue
		}
		//
		p.Module.Align(name, 2)
		//
		if !hasContents(uint8(i + 1)) {
			p.Module.Reserve(name, int64(size))
		} else if contents, err := next(buffer, size); err != nil {
			return err
		} else {
			p.Module.Append(name, contents...)
		}
	}
	//
	return nil
}

func (p *File) define(entry SymbolEntry, strings []byte) error {
	name, err := stringAt(strings, entry.NameIndex)
	if err != nil {
		return err
	}
	//
	if entry.Flags&SECTION_START != 0 {
		return p.sectionStart(name, entry)
	}
	//
	addr := util.None[object.Address]()
	//
	if entry.Flags&DEFINED != 0 && entry.Section() == ABSOLUTE_ID {
		addr = util.Some(object.Absolute(p.absolute(entry.Value)))
	} else if entry.Flags&DEFINED != 0 {
		section, err := sectionName(entry.Section())
		if err != nil {
			return err
		}
		//
		addr = util.Some(object.Relative(section, int64(entry.Value)))
	}
	//
	if entry.Kind() > uint8(object.MACRO) {
		return fmt.Errorf("symbol %s has invalid type %d", name, entry.Kind())
	} else if entry.Binding() > object.WEAK {
		return fmt.Errorf("symbol %s has invalid binding %d", name, entry.Binding())
	} else if !p.Module.TryDefineSymbol(name, object.SymbolType(entry.Kind()), addr, source.Location{}) {
		return fmt.Errorf("symbol %s defined twice", name)
	}
	//
	if entry.Binding() != object.LOCAL {
		p.Module.DeclareBinding(name, entry.Binding())
	}
	//
	return nil
}

// Absolute values are addresses within an executable, and otherwise constants
// which are sign extended.
func (p *File) absolute(value uint32) int64 {
	if p.IsExecutable() {
		return int64(value)
	}
	//
	return int64(int32(value))
}

// The start of a section within an executable.
func (p *File) sectionStart(name string, entry SymbolEntry) error {
	if !p.IsExecutable() {
		return fmt.Errorf("section address for %s in relocatable file", name)
	} else if id, err := sectionId(name); err != nil {
		return err
	} else if id != entry.Section() {
		return fmt.Errorf("inconsistent section address for %s", name)
	}
	//
	p.Module.AddSection(name, object.StandardFlags(name)).VirtualAddress = uint64(entry.Value)
	//
	return nil
}

func (p *File) relocation(entry RelocationEntry) error {
	location, err := sectionName(entry.Section)
	if err != nil {
		return err
	}
	//
	target, err := sectionName(entry.Target())
	if err != nil {
		return err
	}
	//
	return p.track(object.Reference{
		Location: object.Relative(location, int64(entry.Address)),
		Symbol:   target,
		Kind:     entry.Kind(),
	})
}

func (p *File) reference(entry SymbolEntry, strings []byte) error {
	name, err := stringAt(strings, entry.NameIndex)
	if err != nil {
		return err
	}
	//
	location, err := sectionName(entry.Section())
	if err != nil {
		return err
	}
	//
	return p.track(object.Reference{
		Location: object.Relative(location, int64(entry.Value)),
		Symbol:   name,
		Kind:     object.RelocationKind(entry.Kind()),
	})
}

// Check a reference is sensible before recording it.
func (p *File) track(ref object.Reference) error {
	if p.IsExecutable() {
		return errors.New("reference in executable file")
	} else if ref.Kind > object.PCREL16 {
		return fmt.Errorf("invalid relocation kind %d", ref.Kind)
	} else if _, err := p.Module.ReadWord(ref.Location); err != nil {
		return err
	}
	//
	p.Module.TrackReference(ref)
	//
	return nil
}

// Extract the null-terminated string starting at a given index.
func stringAt(table []byte, index uint32) (string, error) {
	if int64(index) >= int64(len(table)) {
		return "", fmt.Errorf("string index %d out of bounds", index)
	}
	//
	end := bytes.IndexByte(table[index:], 0)
	if end < 0 {
		return "", errors.New("unterminated string")
	}
	//
	return string(table[index : int(index)+end]), nil
}
