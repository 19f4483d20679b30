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
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/source"
)

// MAX_ALIGNMENT is the largest alignment (as a power of two) permitted.
const MAX_ALIGNMENT = 16

// MAX_SECTION_SIZE is the largest size (in bytes) of any one section, which
// matches the 256MiB region reachable by a jump.
const MAX_SECTION_SIZE = 1 << 28

// Module is the result of assembling a single translation unit.  It owns its
// sections, symbols and outstanding references.  A module is constructed
// empty, populated during assembly and then finalized, after which it is
// read-only except for relocation.  A module is not safe for concurrent use.
type Module struct {
	name  string
	order binary.ByteOrder
	// Sections in order of creation
	sections []*Section
	// Symbols indexed by name, along with their order of creation
	symbols     map[string]*Symbol
	symbolOrder []string
	// Outstanding references, in the order they arose.
	references []Reference
	// Lifecycle
	finalized bool
	failed    bool
}

// NewModule constructs an empty module with a given name (typically the name
// of its source file) and byte order.
func NewModule(name string, order binary.ByteOrder) *Module {
	return &Module{
		name:    name,
		order:   order,
		symbols: make(map[string]*Symbol),
	}
}

// Name returns the name of this module.
func (p *Module) Name() string {
	return p.name
}

// ByteOrder returns the byte order used for words in this module.
func (p *Module) ByteOrder() binary.ByteOrder {
	return p.order
}

// Clone returns a deep copy of this module, in the same lifecycle state.
// Relocating the copy leaves this module untouched.
func (p *Module) Clone() *Module {
	clone := &Module{
		name:        p.name,
		order:       p.order,
		symbols:     make(map[string]*Symbol, len(p.symbols)),
		symbolOrder: slices.Clone(p.symbolOrder),
		references:  slices.Clone(p.references),
		finalized:   p.finalized,
		failed:      p.failed,
	}
	//
	for _, s := range p.sections {
		section := *s
		section.bytes = slices.Clone(s.bytes)
		clone.sections = append(clone.sections, &section)
	}
	//
	for name, sym := range p.symbols {
		symbol := *sym
		clone.symbols[name] = &symbol
	}
	//
	return clone
}

// ============================================================================
// Sections
// ============================================================================

// AddSection returns the section of the given name, creating it with the given
// flags if it does not already exist.
func (p *Module) AddSection(name string, flags SectionFlags) *Section {
	if s := p.Section(name); s != nil {
		return s
	}
	//
	p.checkMutable()
	//
	s := &Section{Name: name, Flags: flags}
	p.sections = append(p.sections, s)
	//
	return s
}

// Section returns the section of the given name, or nil if no such section
// exists.
func (p *Module) Section(name string) *Section {
	for _, s := range p.sections {
		if s.Name == name {
			return s
		}
	}
	//
	return nil
}

// Sections returns the sections of this module, in order of creation.
func (p *Module) Sections() []*Section {
	return p.sections
}

// Append some bytes to the end of a section, returning the offset at which
// they were placed.  The section is created (with its standard flags) if it
// does not already exist.
func (p *Module) Append(section string, bytes ...byte) int64 {
	p.checkMutable()
	//
	s := p.AddSection(section, StandardFlags(section))
	offset := s.Len()
	s.bytes = append(s.bytes, bytes...)
	//
	return offset
}

// AppendWord appends a 32-bit word to a section, using this module's byte
// order, returning the offset at which it was placed.
func (p *Module) AppendWord(section string, word uint32) int64 {
	var bytes [4]byte
	//
	p.order.PutUint32(bytes[:], word)
	//
	return p.Append(section, bytes[:]...)
}

// Reserve appends n zero bytes to a section.
func (p *Module) Reserve(section string, n int64) int64 {
	return p.Append(section, make([]byte, n)...)
}

// Align pads a section with zero bytes until its length is a multiple of
// 2^boundary.
func (p *Module) Align(section string, boundary uint) {
	if boundary > MAX_ALIGNMENT {
		panic(fmt.Sprintf("invalid alignment %d", boundary))
	}
	//
	s := p.AddSection(section, StandardFlags(section))
	s.Alignment = max(s.Alignment, boundary)
	//
	if rem := s.Len() % (1 << boundary); rem != 0 {
		p.Reserve(section, (1<<boundary)-rem)
	}
}

// Offset returns the current length of a given section (zero if it does not
// exist).
func (p *Module) Offset(section string) int64 {
	if s := p.Section(section); s != nil {
		return s.Len()
	}
	//
	return 0
}

// ReadWord reads the 32-bit word at a given location.
func (p *Module) ReadWord(loc Address) (uint32, error) {
	s, err := p.wordAt(loc)
	if err != nil {
		return 0, err
	}
	//
	return p.order.Uint32(s.bytes[loc.Value:]), nil
}

// WriteWord overwrites the 32-bit word at a given location.  This does not
// change the length of the section, and is permitted on a finalized module.
func (p *Module) WriteWord(loc Address, word uint32) error {
	s, err := p.wordAt(loc)
	if err != nil {
		return err
	}
	//
	p.order.PutUint32(s.bytes[loc.Value:], word)
	//
	return nil
}

func (p *Module) wordAt(loc Address) (*Section, error) {
	s := p.Section(loc.Section)
	//
	if s == nil {
		return nil, fmt.Errorf("unknown section \"%s\"", loc.Section)
	} else if loc.Value < 0 || loc.Value+4 > s.Len() {
		return nil, fmt.Errorf("location %s out of bounds", loc)
	}
	//
	return s, nil
}

// ============================================================================
// Symbols
// ============================================================================

// TryDefineSymbol creates a new symbol, returning false if any symbol of that
// name already exists (whether or not it is defined).
func (p *Module) TryDefineSymbol(name string, kind SymbolType, addr util.Option[Address],
	origin source.Location) bool {
	if _, ok := p.symbols[name]; ok {
		return false
	}
	//
	p.checkMutable()
	p.symbols[name] = &Symbol{Name: name, Type: kind, Address: addr, Origin: origin}
	p.symbolOrder = append(p.symbolOrder, name)
	//
	return true
}

// TryDefineOrUpdateSymbol defines a symbol, or gives an address to a symbol
// which was previously referenced (or declared) without one.  This returns
// false if the symbol is already defined.
func (p *Module) TryDefineOrUpdateSymbol(name string, kind SymbolType, addr Address,
	origin source.Location) bool {
	sym, ok := p.symbols[name]
	//
	if !ok {
		return p.TryDefineSymbol(name, kind, util.Some(addr), origin)
	} else if sym.IsDefined() {
		return false
	}
	//
	p.checkMutable()
	sym.Type = kind
	sym.Address = util.Some(addr)
	sym.Origin = origin
	//
	return true
}

// TryGetSymbol returns a copy of the named symbol, if it exists.
func (p *Module) TryGetSymbol(name string) util.Option[Symbol] {
	if sym, ok := p.symbols[name]; ok {
		return util.Some(*sym)
	}
	//
	return util.None[Symbol]()
}

// DeclareBinding sets the binding of a symbol, creating it (undefined) if it
// does not exist.  A symbol which is global or weak cannot revert to being
// local; in which case, false is returned and the binding is unchanged.
func (p *Module) DeclareBinding(name string, binding Binding) bool {
	p.checkMutable()
	//
	sym, ok := p.symbols[name]
	//
	if !ok {
		p.TryDefineSymbol(name, UNKNOWN_SYMBOL, util.None[Address](), source.Location{})
		sym = p.symbols[name]
		sym.ForwardDeclared = true
	} else if sym.Binding != LOCAL && binding == LOCAL {
		return false
	}
	//
	sym.Binding = binding
	//
	return true
}

// Symbols returns (copies of) all symbols of this module, in order of
// creation.
func (p *Module) Symbols() []Symbol {
	symbols := make([]Symbol, len(p.symbolOrder))
	//
	for i, name := range p.symbolOrder {
		symbols[i] = *p.symbols[name]
	}
	//
	return symbols
}

// IsSectionName determines whether a given name refers to a section of this
// module (as opposed to a symbol).
func (p *Module) IsSectionName(name string) bool {
	return p.Section(name) != nil || slices.Contains(STANDARD_SECTIONS, name)
}

// ============================================================================
// References
// ============================================================================

// TrackReference records a reference which must be resolved later.  This never
// fails.  A referenced symbol which is not known is created as a forward
// declaration.
func (p *Module) TrackReference(ref Reference) {
	p.checkMutable()
	//
	if _, ok := p.symbols[ref.Symbol]; !ok && !p.IsSectionName(ref.Symbol) {
		p.TryDefineSymbol(ref.Symbol, UNKNOWN_SYMBOL, util.None[Address](), source.Location{})
		p.symbols[ref.Symbol].ForwardDeclared = true
	}
	//
	p.references = append(p.references, ref)
}

// References returns the outstanding references of this module, in the order
// in which they arose.
func (p *Module) References() []Reference {
	return p.references
}

// ErrRelocationOverflow signals a relocated field can no longer hold its value.
var ErrRelocationOverflow = errors.New("relocated value out of range")

// Relocate patches the word referred to by a given reference, as a result of
// the referenced symbol being shifted by a given delta.  For jump and branch
// relocations, the delta is in bytes and must be word aligned.
func (p *Module) Relocate(ref Reference, delta int64) error {
	word, err := p.ReadWord(ref.Location)
	if err != nil {
		return err
	}
	//
	switch ref.Kind {
	case ABSOLUTE32:
		word += uint32(delta)
	case LOW16:
		word = word&0xFFFF_0000 | (word+uint32(delta))&0xFFFF
	case HIGH16:
		lower, err := p.ReadWord(ref.Location.Add(4))
		if err != nil {
			return fmt.Errorf("%s has no paired lower half: %w", ref, err)
		}
		//
		full := (word&0xFFFF)<<16 | lower&0xFFFF
		full += uint32(delta)
		word = word&0xFFFF_0000 | full>>16
	case JUMP26:
		if delta%4 != 0 {
			return fmt.Errorf("%s: jump target misaligned", ref)
		}
		//
		word = isa.WithJumpField(word, isa.JumpField(word)+uint32(delta>>2))
	case PCREL16:
		if delta%4 != 0 {
			return fmt.Errorf("%s: branch target misaligned", ref)
		}
		//
		disp := isa.SignExtend(isa.ImmediateField(word), 16) + delta>>2
		if !isa.FitsSigned(disp, 16) {
			return fmt.Errorf("%s: %w (%d)", ref, ErrRelocationOverflow, disp)
		}
		//
		word = isa.WithImmediateField(word, uint32(disp))
	default:
		panic("unreachable")
	}
	//
	return p.WriteWord(ref.Location, word)
}

// ============================================================================
// Lifecycle
// ============================================================================

// Finalize marks this module as complete.  Subsequently, only relocation can
// modify it.
func (p *Module) Finalize() {
	p.finalized = true
}

// IsFinalized determines whether this module has been finalized.
func (p *Module) IsFinalized() bool {
	return p.finalized
}

// MarkFailed records that assembling this module produced errors.  A failed
// module cannot be linked.
func (p *Module) MarkFailed() {
	p.failed = true
}

// Failed determines whether assembling this module produced errors.
func (p *Module) Failed() bool {
	return p.failed
}

func (p *Module) checkMutable() {
	if p.finalized {
		panic(fmt.Sprintf("module %s is finalized", p.name))
	}
}
