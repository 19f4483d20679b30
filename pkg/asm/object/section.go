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
	"strings"
)

// Standard section names
const (
	TEXT   = ".text"
	RODATA = ".rodata"
	DATA   = ".data"
	SDATA  = ".sdata"
	SBSS   = ".sbss"
	BSS    = ".bss"
)

// STANDARD_SECTIONS lists the standard sections in layout order.
var STANDARD_SECTIONS = []string{TEXT, RODATA, DATA, SDATA, SBSS, BSS}

// SectionFlags describe the properties of a section.
type SectionFlags uint8

const (
	// WRITE indicates a section is writable at runtime.
	WRITE SectionFlags = 1 << iota
	// EXEC indicates a section holds instructions.
	EXEC
	// NOBITS indicates a section occupies no space on disk, since its
	// contents are all zero.
	NOBITS
)

// Has determines whether all given flags are set.
func (f SectionFlags) Has(flags SectionFlags) bool {
	return f&flags == flags
}

func (f SectionFlags) String() string {
	var builder strings.Builder
	//
	builder.WriteString("r")
	//
	if f.Has(WRITE) {
		builder.WriteString("w")
	}
	//
	if f.Has(EXEC) {
		builder.WriteString("x")
	}
	//
	if f.Has(NOBITS) {
		builder.WriteString(" nobits")
	}
	//
	return builder.String()
}

// StandardFlags returns the flags for a given standard section.  Sections with
// non-standard names are treated as read-only data.
func StandardFlags(name string) SectionFlags {
	switch name {
	case TEXT:
		return EXEC
	case DATA, SDATA:
		return WRITE
	case SBSS, BSS:
		return WRITE | NOBITS
	default:
		return 0
	}
}

// Section is a named region of bytes.  During assembly bytes are only ever
// appended; relocation later rewrites words in place without changing the
// length.
type Section struct {
	Name  string
	Flags SectionFlags
	// Final address of this section (set when linked).
	VirtualAddress uint64
	// Largest alignment requested (as a power of two).
	Alignment uint
	bytes     []byte
}

// Bytes returns the contents of this section.
func (s *Section) Bytes() []byte {
	return s.bytes
}

// Len returns the number of bytes in this section.
func (s *Section) Len() int64 {
	return int64(len(s.bytes))
}

func (s *Section) String() string {
	return fmt.Sprintf("%s [%s] %d bytes @ %#x", s.Name, s.Flags, len(s.bytes), s.VirtualAddress)
}
