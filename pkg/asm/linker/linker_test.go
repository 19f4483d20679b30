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
	"testing"

	"github.com/consensys/go-mips/pkg/asm/assembler"
	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util/assert"
	"github.com/consensys/go-mips/pkg/util/source"
)

func Test_Link_01(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal foo\nnop")
	b := assemble(t, "b.s", ".globl foo\nfoo: jr $ra")
	//
	result, errs := link(t, config.Default(), a, b)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Equal(t, uint32(0x400000), result.Entry)
	assert.Equal(t, uint32(0x400008), address(t, result, "foo"))
	assert.Hex(t, 0x0C100002, imageWord(t, result, object.TEXT, 0))
	assert.Hex(t, 0x03E00008, imageWord(t, result, object.TEXT, 8))
}

func Test_Link_02(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal bar")
	//
	_, errs := linkFails(t, config.Default(), a)
	//
	assert.Equal(t, uint(1), errs.Count(diag.UnresolvedSymbol))
	assert.Equal(t, []any{"bar", "a.s"}, errs.Diagnostics()[0].Args)
}

func Test_Link_03(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: nop\n.globl foo\nfoo: nop")
	b := assemble(t, "b.s", ".globl foo\nfoo: nop")
	//
	_, errs := linkFails(t, config.Default(), a, b)
	//
	assert.Equal(t, uint(1), errs.Count(diag.DuplicateGlobal))
	assert.Equal(t, []any{"foo", "a.s", "b.s"}, errs.Diagnostics()[0].Args)
}

func Test_Link_04(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal foo\nnop")
	b := assemble(t, "b.s", ".weak foo\nfoo: nop")
	c := assemble(t, "c.s", ".globl foo\nfoo: jr $ra")
	// Global definitions override weak ones
	result, errs := link(t, config.Default(), a, b, c)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Equal(t, uint32(0x40000C), address(t, result, "foo"))
	assert.Hex(t, 0x0C100003, imageWord(t, result, object.TEXT, 0))
}

func Test_Link_05(t *testing.T) {
	a := assemble(t, "a.s", ".weak foo\nfoo: nop")
	b := assemble(t, "b.s", ".weak foo\nfoo: nop\n.globl main\nmain: jal foo")
	// First weak definition wins, including within other modules defining it
	result, errs := link(t, config.Default(), a, b)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Equal(t, uint32(0x400000), address(t, result, "foo"))
	assert.Hex(t, 0x0C100000, imageWord(t, result, object.TEXT, 8))
}

func Test_Link_06(t *testing.T) {
	a := assemble(t, "a.s", ".weak hook\n.globl main\nmain: la $t0, hook")
	// Undefined weak symbols are zero
	result, errs := link(t, config.Default(), a)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Hex(t, 0x3C010000, imageWord(t, result, object.TEXT, 0))
	assert.Hex(t, 0x34280000, imageWord(t, result, object.TEXT, 4))
}

func Test_Link_07(t *testing.T) {
	errs := diag.NewCollector()
	failed := assembler.NewAssembler(config.Default()).Assemble(source.NewSourceFile("bad.s", []byte("frob")), errs)
	good := assemble(t, "good.s", ".globl main\nmain: nop")
	//
	_, errs = linkFails(t, config.Default(), good, failed)
	//
	assert.Equal(t, 1, len(errs.Diagnostics()))
	assert.Equal(t, uint(1), errs.Count(diag.ModuleFailed))
	assert.Equal(t, []any{"bad.s"}, errs.Diagnostics()[0].Args)
}

func Test_Link_08(t *testing.T) {
	raw := object.NewModule("raw.o", binary.BigEndian)
	raw.AppendWord(object.TEXT, 0)
	//
	_, errs := linkFails(t, config.Default(), raw)
	//
	assert.Equal(t, uint(1), errs.Count(diag.NotFinalized))
}

func Test_Link_09(t *testing.T) {
	a := assemble(t, "a.s", `.text
.globl main
main: la $t0, msg
      lw $t1, 0($t0)
.data
pad:  .word 0
msg:  .word 42`)
	//
	result, errs := link(t, config.Default(), a)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Hex(t, 0x3C011001, imageWord(t, result, object.TEXT, 0))
	assert.Hex(t, 0x34280004, imageWord(t, result, object.TEXT, 4))
	assert.Hex(t, 0x8D090000, imageWord(t, result, object.TEXT, 8))
	assert.Hex(t, 42, imageWord(t, result, object.DATA, 4))
}

func Test_Link_10(t *testing.T) {
	a := assemble(t, "a.s", ".data\n.word 1, 2\n.text\n.globl main\nmain: jr $ra")
	b := assemble(t, "b.s", ".data\nmsg: .word 7\n.text\nf: la $t0, msg")
	// Section relative references account for earlier modules
	result, errs := link(t, config.Default(), a, b)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Hex(t, 0x3C011001, imageWord(t, result, object.TEXT, 4))
	assert.Hex(t, 0x34280008, imageWord(t, result, object.TEXT, 8))
	assert.Hex(t, 7, imageWord(t, result, object.DATA, 8))
}

func Test_Link_11(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal helper\nnop")
	b := assemble(t, "b.s", ".globl helper\nhelper: beq $t0, $zero, done\nnop\ndone: jr $ra")
	//
	result, errs := link(t, config.Default(), a, b)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Hex(t, 0x0C100002, imageWord(t, result, object.TEXT, 0))
	assert.Hex(t, 0x11000001, imageWord(t, result, object.TEXT, 8))
}

func Test_Link_12(t *testing.T) {
	a := assemble(t, "a.s", "nop")
	//
	result, errs := link(t, config.Default(), a)
	//
	assert.Equal(t, uint(1), errs.Count(diag.MissingEntry))
	assert.Equal(t, uint(0), errs.Errors())
	assert.Equal(t, uint32(0x400000), result.Entry)
}

func Test_Link_13(t *testing.T) {
	cfg := config.Default()
	cfg.Werror = true
	a := assemble(t, "a.s", "nop")
	//
	_, errs := linkFails(t, cfg, a)
	//
	assert.Equal(t, uint(1), errs.Count(diag.MissingEntry))
	assert.Equal(t, uint(1), errs.Errors())
}

func Test_Link_14(t *testing.T) {
	cfg := config.Default()
	cfg.Link.DataBase = cfg.Link.TextBase
	a := assemble(t, "a.s", ".globl main\nmain: nop\n.data\n.word 1")
	//
	_, errs := linkFails(t, cfg, a)
	//
	assert.Equal(t, uint(1), errs.Count(diag.SectionOverlap))
	assert.Equal(t, []any{object.TEXT, object.DATA}, errs.Diagnostics()[0].Args)
}

func Test_Link_15(t *testing.T) {
	a := assemble(t, "a.s", ".data\nptr: .word target + 4\n.text\n.globl main\nmain: nop\ntarget: nop")
	//
	result, errs := link(t, config.Default(), a)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Hex(t, 0x00400008, imageWord(t, result, object.DATA, 0))
	assert.Equal(t, uint64(0x400000), result.Image.Section(object.TEXT).VirtualAddress)
	assert.Equal(t, uint64(0x10010000), result.Image.Section(object.DATA).VirtualAddress)
}

func Test_Link_16(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: nop\n.data\n.byte 1")
	b := assemble(t, "b.s", ".data\n.align 3\n.globl x\nx: .byte 2")
	//
	result, errs := link(t, config.Default(), a, b)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Equal(t, uint32(0x10010008), address(t, result, "x"))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 2}, result.Image.Section(object.DATA).Bytes())
	assert.Equal(t, uint64(0), b.Section(object.DATA).VirtualAddress)
}

func Test_Link_17(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: beq $zero, $zero, far\nnop")
	b := assemble(t, "b.s", ".data\n.globl far\nfar: .word 0")
	//
	_, errs := linkFails(t, config.Default(), a, b)
	//
	assert.Equal(t, uint(1), errs.Count(diag.RelocationFailed))
}

func Test_Link_18(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: nop\n.section .extra, \"w\"\n.word 5\n.bss\n.space 8")
	//
	result, errs := link(t, config.Default(), a)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	// Non-standard sections follow the standard ones
	assert.Equal(t, uint64(0x10010000), result.Image.Section(object.BSS).VirtualAddress)
	assert.Equal(t, uint64(0x10010008), result.Image.Section(".extra").VirtualAddress)
}

func Test_Link_19(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal foo\nnop\n.data\nptr: .word foo")
	b := assemble(t, "b.s", ".globl foo\nfoo: jr $ra")
	// Linking leaves its inputs untouched, so can be repeated
	first, _ := link(t, config.Default(), a, b)
	second, _ := link(t, config.Default(), a, b)
	//
	assert.Equal(t, first.Image.Section(object.TEXT).Bytes(), second.Image.Section(object.TEXT).Bytes())
	assert.Equal(t, first.Image.Section(object.DATA).Bytes(), second.Image.Section(object.DATA).Bytes())
	assert.Hex(t, 0x0C100002, imageWord(t, second, object.TEXT, 0))
	assert.Hex(t, 0x00400008, imageWord(t, second, object.DATA, 0))
	assert.Equal(t, []byte{0x0C, 0, 0, 0}, a.Section(object.TEXT).Bytes()[:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, a.Section(object.DATA).Bytes())
}

func Test_Link_20(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal foo\nnop\n.data\nptr: .word foo")
	// Failed links leave inputs untouched as well
	_, errs := linkFails(t, config.Default(), a)
	//
	assert.Equal(t, uint(2), errs.Count(diag.UnresolvedSymbol))
	assert.Equal(t, []byte{0x0C, 0, 0, 0}, a.Section(object.TEXT).Bytes()[:4])
	//
	b := assemble(t, "b.s", ".globl foo\nfoo: jr $ra")
	result, _ := link(t, config.Default(), a, b)
	//
	assert.Hex(t, 0x0C100002, imageWord(t, result, object.TEXT, 0))
}

func Test_Link_21(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: jal foo\nnop")
	b := assemble(t, "b.s", ".weak foo\ncaller: jal foo\nfoo: nop\nback: jal foo")
	c := assemble(t, "c.s", ".globl foo\nfoo: jr $ra")
	// An overridden weak definition is overridden for its own module too
	result, errs := link(t, config.Default(), a, b, c)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Equal(t, uint32(0x400014), address(t, result, "foo"))
	assert.Hex(t, 0x0C100005, imageWord(t, result, object.TEXT, 0))
	assert.Hex(t, 0x0C100005, imageWord(t, result, object.TEXT, 8))
	assert.Hex(t, 0x0C100005, imageWord(t, result, object.TEXT, 16))
}

func Test_Link_22(t *testing.T) {
	cfg := config.Default()
	cfg.Werror = true
	a := assemble(t, "a.s", "nop")
	// Promoted warnings reach the caller's logger as errors
	errs := diag.NewCollector()
	counter := diag.NewCounter(errs)
	_, ok := Link(cfg, counter, a)
	//
	assert.False(t, ok)
	assert.Equal(t, uint(1), counter.Errors())
	assert.Equal(t, diag.ERROR, errs.Diagnostics()[0].Severity)
}

func Test_Link_23(t *testing.T) {
	a := assemble(t, "a.s", ".globl main\nmain: nop\n.globl keep\nkeep: jal keep")
	// Local and global definitions of a module still resolve directly
	result, errs := link(t, config.Default(), a)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()))
	assert.Hex(t, 0x0C100001, imageWord(t, result, object.TEXT, 4))
}

// ============================================================================
// Helpers
// ============================================================================

func assemble(t *testing.T, name string, src string) *object.Module {
	t.Helper()
	//
	errs := diag.NewCollector()
	module := assembler.NewAssembler(config.Default()).Assemble(source.NewSourceFile(name, []byte(src)), errs)
	//
	assert.Equal(t, 0, len(errs.Diagnostics()), "assembling %s", name)
	//
	return module
}

func link(t *testing.T, cfg config.Config, modules ...*object.Module) (*Result, *diag.Collector) {
	t.Helper()
	//
	errs := diag.NewCollector()
	result, ok := Link(cfg, errs, modules...)
	//
	assert.True(t, ok, "link failed")
	assert.True(t, result.Image.IsFinalized())
	//
	return result, errs
}

func linkFails(t *testing.T, cfg config.Config, modules ...*object.Module) (*Result, *diag.Collector) {
	t.Helper()
	//
	errs := diag.NewCollector()
	result, ok := Link(cfg, errs, modules...)
	//
	assert.False(t, ok, "link succeeded")
	assert.True(t, result == nil)
	//
	return result, errs
}

func address(t *testing.T, result *Result, name string) uint32 {
	t.Helper()
	//
	addr, ok := result.Address(name)
	assert.True(t, ok, "missing symbol %s", name)
	//
	return addr
}

func imageWord(t *testing.T, result *Result, section string, offset int64) uint32 {
	t.Helper()
	//
	word, err := result.Image.ReadWord(object.Relative(section, offset))
	assert.NoError(t, err)
	//
	return word
}
