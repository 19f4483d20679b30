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
)

// ============================================================================
// Header
// ============================================================================

// MAGIC identifies object (and executable) files.
const MAGIC uint16 = 0x4D53

// VERSION is the version of the format written.  Files of any other version
// are rejected.
const VERSION uint16 = 1

// HEADER_SIZE is the size (in bytes) of the fixed header.
const HEADER_SIZE = 52

// Header flags
const (
	// EXECUTABLE marks a linked image, which has an entry point and no
	// relocation or reference tables.
	EXECUTABLE uint32 = 1 << iota
	// LITTLE_ENDIAN marks section contents stored in little-endian order.
	// The header and tables are always big-endian.
	LITTLE_ENDIAN
)

// Header is the fixed-size header found at the start of every file.  Sizes are
// given for the six standard sections in layout order.  Only the first four
// sections have contents on disk.
type Header struct {
	Magic   uint16
	Version uint16
	Flags   uint32
	Entry   uint32
	// Text, rodata, data, small data, small bss and bss sizes.
	SectionSizes [NUM_SECTIONS]uint32
	Relocations  uint32
	References   uint32
	Definitions  uint32
	StringTable  uint32
}

// MarshalBinary converts this header into exactly HEADER_SIZE bytes.
func (p *Header) MarshalBinary() ([]byte, error) {
	var buffer bytes.Buffer
	//
	buffer.Grow(HEADER_SIZE)
	// binary.Write of a fixed-size struct cannot fail on a buffer
	if err := binary.Write(&buffer, binary.BigEndian, p); err != nil {
		return nil, err
	}
	//
	return buffer.Bytes(), nil
}

// UnmarshalBinary initialises this header from the start of a given buffer,
// checking the magic number and version.
func (p *Header) UnmarshalBinary(buffer *bytes.Buffer) error {
	if buffer.Len() < HEADER_SIZE {
		return errors.New("truncated header")
	} else if err := binary.Read(buffer, binary.BigEndian, p); err != nil {
		return err
	} else if p.Magic != MAGIC {
		return fmt.Errorf("bad magic number %#04x", p.Magic)
	} else if p.Version != VERSION {
		return fmt.Errorf("unsupported version %d", p.Version)
	}
	//
	return nil
}

// IsExecutable determines whether this header describes a linked image.
func (p *Header) IsExecutable() bool {
	return p.Flags&EXECUTABLE != 0
}

// IsObjectFile checks whether some data begins with the expected magic number.
func IsObjectFile(data []byte) bool {
	return len(data) >= 2 && binary.BigEndian.Uint16(data) == MAGIC
}

// ============================================================================
// Sections
// ============================================================================

// NUM_SECTIONS is the number of sections which can be represented.
const NUM_SECTIONS = 6

// Section identifiers.  Identifier zero denotes an absolute value, and the
// rest follow the standard layout order.
const (
	ABSOLUTE_ID uint8 = iota
	TEXT_ID
	RODATA_ID
	DATA_ID
	SDATA_ID
	SBSS_ID
	BSS_ID
)

// sectionId returns the identifier of a given section name.
func sectionId(name string) (uint8, error) {
	for i, n := range object.STANDARD_SECTIONS {
		if n == name {
			return uint8(i + 1), nil
		}
	}
	//
	return 0, fmt.Errorf("section %s cannot be represented", name)
}

// sectionName returns the name of the section with a given (non-zero)
// identifier.
func sectionName(id uint8) (string, error) {
	if id == ABSOLUTE_ID || int(id) > NUM_SECTIONS {
		return "", fmt.Errorf("invalid section identifier %d", id)
	}
	//
	return object.STANDARD_SECTIONS[id-1], nil
}

// Only sections with contents are stored, which excludes the small and large
// bss sections.
func hasContents(id uint8) bool {
	return id != SBSS_ID && id != BSS_ID
}

// ============================================================================
// Symbol entries
// ============================================================================

// SYMBOL_ENTRY_SIZE is the size (in bytes) of a symbol entry on disk.
const SYMBOL_ENTRY_SIZE = 16

// Symbol entry flags.  The low four bits hold a section identifier.
const (
	SECTION_MASK uint32 = 0xF
	// DEFINED marks a symbol with a value.
	DEFINED uint32 = 1 << 4
	// Binding occupies bits 5 and 6.
	BINDING_SHIFT = 5
	BINDING_MASK  = 0x3
	// SECTION_START marks a definition giving the address of a section
	// within an executable.
	SECTION_START uint32 = 1 << 7
	// Symbol type (definitions) or relocation kind (references) occupies
	// bits 8 through 11.
	KIND_SHIFT = 8
	KIND_MASK  = 0xF
)

// SymbolEntry is used both for the definitions table, where it describes a
// symbol, and for the reference table, where it describes a location which
// refers to a named symbol.
type SymbolEntry struct {
	Flags uint32
	// Symbol value, or location of a reference
	Value uint32
	// Offset of the symbol's name in the string table
	NameIndex uint32
	// Index of the object file (amongst those linked) which defines this
	// symbol.  Zero within object files.
	ObjectIndex uint16
}

// Section returns the section identifier of this entry.
func (e SymbolEntry) Section() uint8 {
	return uint8(e.Flags & SECTION_MASK)
}

// Kind returns the symbol type or relocation kind of this entry.
func (e SymbolEntry) Kind() uint8 {
	return uint8(e.Flags >> KIND_SHIFT & KIND_MASK)
}

// Binding returns the binding of this entry.
func (e SymbolEntry) Binding() object.Binding {
	return object.Binding(e.Flags >> BINDING_SHIFT & BINDING_MASK)
}

func (e SymbolEntry) write(buffer *bytes.Buffer) {
	var raw [SYMBOL_ENTRY_SIZE]byte
	//
	binary.BigEndian.PutUint32(raw[0:], e.Flags)
	binary.BigEndian.PutUint32(raw[4:], e.Value)
	binary.BigEndian.PutUint32(raw[8:], e.NameIndex)
	binary.BigEndian.PutUint16(raw[12:], e.ObjectIndex)
	// Final two bytes are padding
	buffer.Write(raw[:])
}

func readSymbolEntry(buffer *bytes.Buffer) (SymbolEntry, error) {
	raw, err := next(buffer, SYMBOL_ENTRY_SIZE)
	if err != nil {
		return SymbolEntry{}, err
	}
	//
	return SymbolEntry{
		Flags:       binary.BigEndian.Uint32(raw[0:]),
		Value:       binary.BigEndian.Uint32(raw[4:]),
		NameIndex:   binary.BigEndian.Uint32(raw[8:]),
		ObjectIndex: binary.BigEndian.Uint16(raw[12:]),
	}, nil
}

// ============================================================================
// Relocation entries
// ============================================================================

// RELOCATION_ENTRY_SIZE is the size (in bytes) of a relocation entry on disk.
const RELOCATION_ENTRY_SIZE = 8

// RelocationEntry describes a location whose contents depend on the final
// address of a section (rather than a named symbol).  The type byte holds the
// relocation kind in its low four bits, and the identifier of the target
// section in its high four bits.
type RelocationEntry struct {
	// Offset of the location within its section
	Address uint32
	// Section holding the location
	Section uint8
	Type    uint8
}

// Kind returns the relocation kind of this entry.
func (e RelocationEntry) Kind() object.RelocationKind {
	return object.RelocationKind(e.Type & 0xF)
}

// Target returns the identifier of the section being referred to.
func (e RelocationEntry) Target() uint8 {
	return e.Type >> 4
}

func (e RelocationEntry) write(buffer *bytes.Buffer) {
	var raw [RELOCATION_ENTRY_SIZE]byte
	//
	binary.BigEndian.PutUint32(raw[0:], e.Address)
	raw[4] = e.Section
	raw[5] = e.Type
	//
	buffer.Write(raw[:])
}

func readRelocationEntry(buffer *bytes.Buffer) (RelocationEntry, error) {
	raw, err := next(buffer, RELOCATION_ENTRY_SIZE)
	if err != nil {
		return RelocationEntry{}, err
	}
	//
	return RelocationEntry{binary.BigEndian.Uint32(raw), raw[4], raw[5]}, nil
}

// Read exactly n bytes from a buffer.
func next(buffer *bytes.Buffer, n int) ([]byte, error) {
	if buffer.Len() < n {
		return nil, errors.New("malformed object file")
	}
	//
	return buffer.Next(n), nil
}
