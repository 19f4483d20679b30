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

import "fmt"

// Address is either a plain (absolute) integer, or an offset within a named
// section.  In the latter case the address is "relocatable", meaning its final
// value is not known until link time.
type Address struct {
	Value int64
	// Section is the empty string for absolute addresses.
	Section string
}

// Absolute constructs a non-relocatable address.
func Absolute(value int64) Address {
	return Address{value, ""}
}

// Relative constructs an address at a given offset within a section.
func Relative(section string, offset int64) Address {
	return Address{offset, section}
}

// IsRelocatable determines whether this address is relative to a section.
func (a Address) IsRelocatable() bool {
	return a.Section != ""
}

// Add returns this address shifted by a given amount.
func (a Address) Add(delta int64) Address {
	return Address{a.Value + delta, a.Section}
}

func (a Address) String() string {
	if a.Section == "" {
		return fmt.Sprintf("%#x", a.Value)
	}
	//
	return fmt.Sprintf("%s+%#x", a.Section, a.Value)
}

// RelocationKind determines how a word is patched once the final address of
// the referenced symbol is known.
type RelocationKind uint8

const (
	// ABSOLUTE32 adds the delta to the entire word.
	ABSOLUTE32 RelocationKind = iota
	// HIGH16 adjusts the upper half of an address split across an instruction
	// pair.  The word at the location holds the upper half (in its low 16
	// bits), and the word four bytes later holds the zero-extended lower
	// half.  This must be applied before its paired LOW16.
	HIGH16
	// LOW16 adds the delta to the low 16 bits only, without carrying into the
	// upper half.
	LOW16
	// JUMP26 adds the (word) delta to the 26-bit target field of a jump.
	JUMP26
	// PCREL16 adds the (word) delta to the signed 16-bit displacement of a
	// branch.
	PCREL16
)

var relocationNames = [...]string{"abs32", "hi16", "lo16", "jump26", "pcrel16"}

func (k RelocationKind) String() string {
	if int(k) < len(relocationNames) {
		return relocationNames[k]
	}
	//
	return fmt.Sprintf("reloc(%d)", uint8(k))
}

// Reference records a location whose contents depend on the final address of
// some symbol.  The symbol may be the name of a section, in which case it
// refers to the start of that section within the referencing module.  The
// addend is already present in the placeholder stored at the location, and is
// recorded for information only.
type Reference struct {
	// Location of the word to patch
	Location Address
	// Name of the referenced symbol
	Symbol string
	// How to patch the word
	Kind RelocationKind
	// Constant offset from the symbol
	Addend int64
}

func (r Reference) String() string {
	if r.Addend == 0 {
		return fmt.Sprintf("%s %s @ %s", r.Kind, r.Symbol, r.Location)
	}
	//
	return fmt.Sprintf("%s %s%+d @ %s", r.Kind, r.Symbol, r.Addend, r.Location)
}
