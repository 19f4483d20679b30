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
package asm

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/consensys/go-mips/pkg/asm/assembler"
	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/linker"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/objfile"
	"github.com/consensys/go-mips/pkg/util/assert"
	"github.com/consensys/go-mips/pkg/util/source"
)

func Test_Sum(t *testing.T) {
	checkAccepts(t, "sum")
}

func Test_Calls(t *testing.T) {
	checkAccepts(t, "calls")
}

func Test_Data(t *testing.T) {
	checkAccepts(t, "data")
}

func Test_Duplicate(t *testing.T) {
	checkRejects(t, "duplicate")
}

func Test_Undefined(t *testing.T) {
	checkRejects(t, "undefined")
}

// ===================================================================
// Test Helpers
// ===================================================================

// Determines the (relative) location of the test directory.  That is where the
// assembly sources and their expected outcomes are found.
const TestDir = "../../testdata/asm"

// Assemble and link a test, and check the resulting image against the
// expectations in its ".accepts" file.  Each test is run twice: once linking
// the assembled modules directly, and once linking modules which have been
// written to (and read back from) the object file format.
func checkAccepts(t *testing.T, test string) {
	t.Parallel()
	//
	var (
		expectations = readLines(t, fmt.Sprintf("%s/%s.accepts", TestDir, test))
		modules      = assembleTest(t, test, diag.NewCollector())
	)
	//
	for _, roundtrip := range []bool{false, true} {
		linkable := modules
		//
		if roundtrip {
			linkable = writeAndRead(t, modules)
		}
		//
		errs := diag.NewCollector()
		result, ok := linker.Link(config.Default(), errs, linkable...)
		//
		if !ok {
			t.Fatalf("failed linking %s: %v", test, errs.Diagnostics())
		}
		//
		for _, line := range expectations {
			checkExpectation(t, test, result, line)
		}
	}
}

// Assemble and link a test, checking that every diagnostic code listed in its
// ".rejects" file was reported.
func checkRejects(t *testing.T, test string) {
	t.Parallel()
	//
	var (
		expected = readLines(t, fmt.Sprintf("%s/%s.rejects", TestDir, test))
		errs     = diag.NewCollector()
		modules  = assembleTest(t, test, errs)
	)
	//
	if !errs.HasErrors() {
		if _, ok := linker.Link(config.Default(), errs, modules...); ok {
			t.Fatalf("test %s linked successfully", test)
		}
	}
	//
	for _, code := range expected {
		found := slices.ContainsFunc(errs.Diagnostics(), func(d diag.Diagnostic) bool {
			return d.Code.String() == code
		})
		//
		assert.True(t, found, "%s: expected diagnostic %s", test, code)
	}
}

// Assemble the source files making up a given test.  The main file is given by
// the test name, and any further modules are named "test.xxx.s".
func assembleTest(t *testing.T, test string, logger diag.Logger) []*object.Module {
	t.Helper()
	//
	extras, err := filepath.Glob(fmt.Sprintf("%s/%s.*.s", TestDir, test))
	assert.NoError(t, err)
	//
	slices.Sort(extras)
	//
	files, err := source.ReadFiles(append([]string{fmt.Sprintf("%s/%s.s", TestDir, test)}, extras...)...)
	assert.NoError(t, err)
	//
	modules, err := assembler.AssembleAll(context.Background(), config.Default(), files, logger)
	assert.NoError(t, err)
	//
	return modules
}

func writeAndRead(t *testing.T, modules []*object.Module) []*object.Module {
	t.Helper()
	//
	result := make([]*object.Module, len(modules))
	//
	for i, module := range modules {
		bytes, err := objfile.Marshal(module)
		assert.NoError(t, err)
		//
		file, err := objfile.Unmarshal(module.Name(), bytes)
		assert.NoError(t, err)
		//
		result[i] = file.Module
	}
	//
	return result
}

// Check a single expectation, which is either "address word" or "symbol
// address".
func checkExpectation(t *testing.T, test string, result *linker.Result, line string) {
	fields := strings.Fields(line)
	//
	if len(fields) != 2 {
		t.Fatalf("%s: malformed expectation %q", test, line)
	}
	//
	expected := parseHex(t, fields[1])
	//
	if address, err := strconv.ParseUint(fields[0], 0, 32); err == nil {
		assert.Hex(t, expected, wordAt(t, result.Image, uint32(address)), "%s: word at %s", test, fields[0])
	} else if actual, ok := result.Address(fields[0]); ok {
		assert.Hex(t, expected, actual, "%s: address of %s", test, fields[0])
	} else {
		t.Fatalf("%s: unknown symbol %s", test, fields[0])
	}
}

// Read the word at an absolute address within a linked image.
func wordAt(t *testing.T, image *object.Module, address uint32) uint32 {
	t.Helper()
	//
	for _, s := range image.Sections() {
		start := uint32(s.VirtualAddress)
		//
		if start <= address && address < start+uint32(s.Len()) {
			word, err := image.ReadWord(object.Relative(s.Name, int64(address-start)))
			assert.NoError(t, err)
			//
			return word
		}
	}
	//
	t.Fatalf("address %#x not within any section", address)
	//
	return 0
}

func parseHex(t *testing.T, text string) uint32 {
	value, err := strconv.ParseUint(text, 0, 32)
	assert.NoError(t, err)
	//
	return uint32(value)
}

// Read the non-empty, non-comment lines of a file.
func readLines(t *testing.T, filename string) []string {
	t.Helper()
	//
	file, err := os.Open(filename)
	assert.NoError(t, err)
	//
	defer file.Close()
	//
	var (
		lines   []string
		scanner = bufio.NewScanner(file)
	)
	//
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, ";;") {
			lines = append(lines, line)
		}
	}
	//
	assert.NoError(t, scanner.Err())
	//
	return lines
}
