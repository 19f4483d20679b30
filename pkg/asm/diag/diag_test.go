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
package diag

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/consensys/go-mips/pkg/util/assert"
	"github.com/consensys/go-mips/pkg/util/source"
)

func Test_Collector_Counts(t *testing.T) {
	c := NewCollector()
	loc := source.NewLocation("a.s", 1, 0)
	//
	Report(c, ArgumentCount, loc, nil, "add", 3, 2)
	Report(c, ImmediateTruncated, loc, nil, 70000, 16, 4464)
	Report(c, ArgumentCount, loc, nil, "sub", 3, 4)
	//
	assert.Equal(t, uint(2), c.Errors())
	assert.Equal(t, uint(1), c.Warnings())
	assert.Equal(t, uint(2), c.Count(ArgumentCount))
	assert.True(t, c.HasErrors())
}

func Test_Collector_Replay(t *testing.T) {
	var (
		first  = NewCollector()
		second = NewCollector()
	)
	//
	Report(first, DuplicateSymbol, source.Location{}, []string{"L"}, "L")
	Report(first, UnknownRegister, source.Location{}, []string{"$x"}, "$x")
	first.Replay(second)
	//
	assert.Equal(t, first.Diagnostics(), second.Diagnostics())
}

func Test_Promote_Warnings(t *testing.T) {
	c := NewCollector()
	Report(Promote(c), ReservedRegister, source.Location{}, nil)
	//
	assert.Equal(t, uint(1), c.Errors())
	assert.Equal(t, uint(0), c.Warnings())
}

func Test_Counter(t *testing.T) {
	counter := NewCounter(Discard)
	//
	Report(counter, UnknownInstruction, source.Location{}, nil, "foo")
	Report(counter, JumpRegion, source.Location{}, nil, 0)
	//
	assert.Equal(t, uint(1), counter.Errors())
}

func Test_Code_String(t *testing.T) {
	assert.Equal(t, "INS0003", ArgumentCount.Code.String())
	assert.Equal(t, "LNK0003", UnresolvedSymbol.Code.String())
}

func Test_Catalog_Format(t *testing.T) {
	d := New(ArgumentCount, source.Location{}, nil, "add", 3, 4)
	assert.Equal(t, "instruction add expects 3 argument(s), found 4", English.Format(d))
	// Unknown keys fall back to the key
	d.Key = "no.such-key"
	assert.Equal(t, "no.such-key add 3 4", English.Format(d))
}

func Test_Catalog_Subtrahend(t *testing.T) {
	d := New(RelocatableSubtrahend, source.Location{}, nil)
	//
	assert.Equal(t, "cannot subtract a relocatable symbol from a constant (a negated address cannot be relocated)",
		English.Format(d))
}

func Test_Catalog_Complete(t *testing.T) {
	kinds := []Kind{
		UnterminatedString, UnterminatedChar, InvalidCharLiteral, InvalidEscape, UnexpectedCharacter,
		RelocatableAdd, RelocatableSubtract, RelocatableSubtrahend, RelocatableOperand, DivisionByZero,
		IncompleteExpression, UnbalancedParenthesis, UnexpectedExprToken, MalformedNumber,
		UnknownInstruction, UnsupportedInstruction, ArgumentCount, ArgumentKind, UnknownRegister,
		ImmediateTruncated, PseudoDisabled, BranchOutOfRange, BranchMisaligned, JumpRegion,
		RelocatableShift, ReservedRegister, NotExecutable,
		UnexpectedToken, UnknownDirective, DirectiveArgumentCount, DirectiveArgument, DataInBss,
		RelocatableData, AlignmentRange, NegativeSpace, UnknownSetOption, DataTruncated,
		SectionTooLarge,
		DuplicateSymbol, IllegalSymbolName, BindingConflict,
		ModuleFailed, DuplicateGlobal, UnresolvedSymbol, RelocationFailed, MissingEntry, SectionOverlap,
		NotFinalized,
	}
	codes := make(map[Code]bool)
	//
	for _, k := range kinds {
		_, ok := English[k.Key]
		assert.True(t, ok, "missing message for %s", k.Key)
		assert.False(t, codes[k.Code], "duplicate code %s", k.Code)
		codes[k.Code] = true
	}
}

func Test_Printer_Highlight(t *testing.T) {
	var (
		buf  bytes.Buffer
		file = source.NewSourceFile("t.s", []byte("main:\n\tadd $s0, $t0\n"))
		p    = NewPrinter(&buf, English, *file)
	)
	//
	Report(p, ArgumentCount, source.NewLocation("t.s", 2, 1), []string{"add"}, "add", 3, 2)
	//
	expected := "t.s:2:2: error[INS0003]: instruction add expects 3 argument(s), found 2\n" +
		"\tadd $s0, $t0\n" +
		"\t^^^\n"
	assert.Equal(t, expected, buf.String())
}

func Test_Printer_NoLocation(t *testing.T) {
	var buf bytes.Buffer
	//
	Report(NewPrinter(&buf, English), ModuleFailed, source.Location{}, nil, "x.s")
	assert.Equal(t, "error[LNK0001]: module x.s failed to assemble\n", buf.String())
}

func Test_LogrusLogger_Json(t *testing.T) {
	var (
		buf    bytes.Buffer
		logger = NewLogrusLogger(&buf, English, true)
		fields map[string]any
	)
	//
	Report(logger, UnknownRegister, source.NewLocation("t.s", 4, 7), []string{"$t11"}, "$t11")
	assert.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &fields))
	assert.Equal(t, "INS0005", fields["code"])
	assert.Equal(t, "error", fields["level"])
	assert.Equal(t, "unknown register $t11", fields["msg"])
	assert.Equal(t, float64(8), fields["column"])
}
