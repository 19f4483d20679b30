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
	"encoding/binary"
	"slices"
	"testing"

	"github.com/consensys/go-mips/pkg/asm/assembler"
	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/linker"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/assert"
	"github.com/consensys/go-mips/pkg/util/source"
)

func Test_Header_01(t *testing.T) {
	header := Header{Magic: MAGIC, Version: VERSION, Entry: 0x400000}
	header.SectionSizes[0] = 8
	//
	bytes, err := header.MarshalBinary()
	assert.NoError(t, err)
	//
	assert.Equal(t, HEADER_SIZE, len(bytes))
	assert.Equal(t, []byte{0x4D, 0x53, 0x00, 0x01}, bytes[:4])
	assert.Equal(t, []byte{0x00, 0x40, 0x00, 0x00}, bytes[8:12])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x08}, bytes[12:16])
	assert.True(t, IsObjectFile(bytes))
	assert.False(t, IsObjectFile([]byte{0x53, 0x4D}))
}

func Test_Marshal_01(t *testing.T) {
	bytes, err := Marshal(handBuilt())
	assert.NoError(t, err)
	//
	expected := slices.Concat(
		// Header
		[]byte{0x4D, 0x53, 0x00, 0x01},
		words(0, 0, 8, 0, 3, 0, 0, 8, 1, 1, 2, 10),
		// Section contents
		words(0x0C000000, 0),
		[]byte{1, 2, 3},
		// Relocations
		words(4), []byte{TEXT_ID, 0x30, 0, 0},
		// References
		words(0x301, 0, 6), []byte{0, 0, 0, 0},
		// Definitions
		words(0x131, 0, 1), []byte{0, 0, 0, 0},
		words(0, 0, 6), []byte{0, 0, 0, 0},
		// Strings
		[]byte{0, 'm', 'a', 'i', 'n', 0, 'f', 'o', 'o', 0},
	)
	//
	assert.Equal(t, expected, bytes)
}

func Test_Marshal_02(t *testing.T) {
	bytes, err := Marshal(handBuilt())
	assert.NoError(t, err)
	//
	file, err := Unmarshal("m.o", bytes)
	assert.NoError(t, err)
	//
	m := file.Module
	assert.False(t, file.IsExecutable())
	assert.True(t, m.IsFinalized())
	assert.Equal(t, "m.o", m.Name())
	assert.Equal(t, []byte{0x0C, 0, 0, 0, 0, 0, 0, 0}, m.Section(object.TEXT).Bytes())
	assert.Equal(t, []byte{1, 2, 3}, m.Section(object.DATA).Bytes())
	assert.Equal(t, int64(8), m.Offset(object.BSS))
	assert.True(t, m.Section(object.BSS).Flags.Has(object.NOBITS))
	//
	main := m.TryGetSymbol("main").Unwrap()
	assert.Equal(t, object.GLOBAL, main.Binding)
	assert.Equal(t, object.LABEL, main.Type)
	assert.Equal(t, object.Relative(object.TEXT, 0), main.Address.Unwrap())
	assert.False(t, m.TryGetSymbol("foo").Unwrap().IsDefined())
	//
	assert.Equal(t, []object.Reference{
		{Location: object.Relative(object.TEXT, 4), Symbol: object.DATA, Kind: object.ABSOLUTE32},
		{Location: object.Relative(object.TEXT, 0), Symbol: "foo", Kind: object.JUMP26},
	}, m.References())
}

func Test_Marshal_03(t *testing.T) {
	cfg := config.Default()
	cfg.Endian = config.LITTLE
	m := assemble(t, cfg, "a.s", "nop\naddi $s0, $t0, 100")
	//
	file := roundTrip(t, m)
	//
	assert.True(t, file.Header.Flags&LITTLE_ENDIAN != 0)
	assert.Equal(t, binary.LittleEndian, file.Module.ByteOrder())
	//
	word, err := file.Module.ReadWord(object.Relative(object.TEXT, 4))
	assert.NoError(t, err)
	assert.Hex(t, 0x21100064, word)
}

func Test_Marshal_04(t *testing.T) {
	m := assemble(t, config.Default(), "a.s", ".eqv MINUS5, -5\n.data\n.word MINUS5")
	//
	file := roundTrip(t, m)
	sym := file.Module.TryGetSymbol("MINUS5").Unwrap()
	//
	assert.Equal(t, object.MACRO, sym.Type)
	assert.Equal(t, object.Absolute(-5), sym.Address.Unwrap())
}

func Test_Marshal_05(t *testing.T) {
	m := assemble(t, config.Default(), "a.s", ".section .extra\n.word 1")
	//
	_, err := Marshal(m)
	assert.True(t, err != nil)
}

func Test_Marshal_06(t *testing.T) {
	failed := assembler.NewAssembler(config.Default()).Assemble(source.NewSourceFile("bad.s", []byte("frob")),
		diag.Discard)
	_, err := Marshal(failed)
	assert.True(t, err != nil)
	//
	open := object.NewModule("open.o", binary.BigEndian)
	_, err = Marshal(open)
	assert.True(t, err != nil)
}

// Linking modules read back from object files gives the same image as linking
// the original modules.
func Test_Marshal_07(t *testing.T) {
	var (
		srcA = ".globl main\nmain: la $a0, msg\njal foo\nnop\n.data\nmsg: .asciiz \"hi\"\n.word msg"
		srcB = ".globl foo\nfoo: jr $ra\n.data\n.word 7"
		a    = assemble(t, config.Default(), "a.s", srcA)
		b    = assemble(t, config.Default(), "b.s", srcB)
		fa   = roundTrip(t, a)
		fb   = roundTrip(t, b)
	)
	//
	expected := link(t, a, b)
	actual := link(t, fa.Module, fb.Module)
	//
	for _, name := range []string{object.TEXT, object.DATA} {
		assert.Equal(t, expected.Image.Section(name).Bytes(), actual.Image.Section(name).Bytes(), "section %s", name)
	}
}

func Test_Image_01(t *testing.T) {
	var (
		a      = assemble(t, config.Default(), "a.s", ".globl main\nmain: jal foo\nnop")
		b      = assemble(t, config.Default(), "b.s", ".globl foo\nfoo: jr $ra\n.data\n.word 1")
		result = link(t, a, b)
	)
	//
	bytes, err := MarshalImage(result)
	assert.NoError(t, err)
	//
	file, err := Unmarshal("a.out", bytes)
	assert.NoError(t, err)
	//
	assert.True(t, file.IsExecutable())
	assert.Equal(t, uint32(0x400000), file.Header.Entry)
	assert.Equal(t, uint32(0), file.Header.Relocations)
	assert.Equal(t, uint32(0), file.Header.References)
	//
	m := file.Module
	assert.Equal(t, result.Image.Section(object.TEXT).Bytes(), m.Section(object.TEXT).Bytes())
	assert.Equal(t, uint64(0x400000), m.Section(object.TEXT).VirtualAddress)
	assert.Equal(t, uint64(0x10010000), m.Section(object.DATA).VirtualAddress)
	assert.Equal(t, object.Absolute(0x400008), m.TryGetSymbol("foo").Unwrap().Address.Unwrap())
	// Sections addresses come first, then symbols in name order
	n := len(object.STANDARD_SECTIONS)
	assert.Equal(t, n+2, len(file.Definitions))
	assert.Equal(t, uint16(1), file.Definitions[n].ObjectIndex)
	assert.Equal(t, uint16(0), file.Definitions[n+1].ObjectIndex)
}

func Test_Unmarshal_01(t *testing.T) {
	_, err := Unmarshal("x", []byte{0x4D, 0x53})
	assert.True(t, err != nil)
}

func Test_Unmarshal_02(t *testing.T) {
	bytes, err := Marshal(handBuilt())
	assert.NoError(t, err)
	// Bad magic
	broken := slices.Clone(bytes)
	broken[0] = 0
	_, err = Unmarshal("x", broken)
	assert.True(t, err != nil)
	// Bad version
	broken = slices.Clone(bytes)
	broken[3] = 2
	_, err = Unmarshal("x", broken)
	assert.True(t, err != nil)
	// Trailing data
	_, err = Unmarshal("x", append(slices.Clone(bytes), 0))
	assert.True(t, err != nil)
	// Truncated
	_, err = Unmarshal("x", bytes[:len(bytes)-1])
	assert.True(t, err != nil)
}

// ============================================================================
// Helpers
// ============================================================================

// A module with two text words (a jump to foo, and the address of the data
// section), three bytes of data and eight bytes of bss.
func handBuilt() *object.Module {
	m := object.NewModule("m.o", binary.BigEndian)
	m.AppendWord(object.TEXT, 0x0C000000)
	m.AppendWord(object.TEXT, 0)
	m.Append(object.DATA, 1, 2, 3)
	m.Reserve(object.BSS, 8)
	m.TryDefineSymbol("main", object.LABEL, util.Some(object.Relative(object.TEXT, 0)), source.Location{})
	m.DeclareBinding("main", object.GLOBAL)
	m.TrackReference(object.Reference{Location: object.Relative(object.TEXT, 0), Symbol: "foo", Kind: object.JUMP26})
	m.TrackReference(object.Reference{Location: object.Relative(object.TEXT, 4), Symbol: object.DATA,
		Kind: object.ABSOLUTE32})
	m.Finalize()
	//
	return m
}

func words(values ...uint32) []byte {
	var bytes []byte
	//
	for _, v := range values {
		bytes = binary.BigEndian.AppendUint32(bytes, v)
	}
	//
	return bytes
}

func assemble(t *testing.T, cfg config.Config, name string, src string) *object.Module {
	t.Helper()
	//
	errs := diag.NewCollector()
	m := assembler.NewAssembler(cfg).Assemble(source.NewSourceFile(name, []byte(src)), errs)
	assert.Equal(t, 0, len(errs.Diagnostics()), "assembling %s", name)
	//
	return m
}

func roundTrip(t *testing.T, m *object.Module) *File {
	t.Helper()
	//
	bytes, err := Marshal(m)
	assert.NoError(t, err)
	//
	file, err := Unmarshal(m.Name(), bytes)
	assert.NoError(t, err)
	//
	return file
}

func link(t *testing.T, modules ...*object.Module) *linker.Result {
	t.Helper()
	//
	result, ok := linker.Link(config.Default(), diag.Discard, modules...)
	assert.True(t, ok, "link failed")
	//
	return result
}
