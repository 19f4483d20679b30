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
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/consensys/go-mips/pkg/util/source"
	"github.com/consensys/go-mips/pkg/util/termio"
)

// Printer is a logger which writes human-readable diagnostics, highlighting
// the offending portion of the source line where this is known.
type Printer struct {
	out     io.Writer
	catalog Catalog
	colour  bool
	// Source files indexed by name, used to print the enclosing line.
	files map[string]*source.File
}

// NewPrinter constructs a printer writing to a given output.  Colour is used
// only when the output is a terminal.
func NewPrinter(out io.Writer, catalog Catalog, files ...source.File) *Printer {
	fmap := make(map[string]*source.File)
	//
	for i := range files {
		fmap[files[i].Filename()] = &files[i]
	}
	//
	return &Printer{out, catalog, termio.IsTerminal(out), fmap}
}

// Log implementation for the Logger interface.
func (p *Printer) Log(d Diagnostic) {
	var (
		msg      = p.catalog.Format(d)
		severity = termio.Colourise(p.colour, severityEscape(d.Severity), d.Severity.String())
	)
	// Print diagnostic + location
	if d.Location.IsValid() {
		fmt.Fprintf(p.out, "%s: %s[%s]: %s\n", d.Location, severity, d.Code, msg)
	} else {
		fmt.Fprintf(p.out, "%s[%s]: %s\n", severity, d.Code, msg)
	}
	// Print enclosing line (if known)
	file, ok := p.files[d.Location.File]
	if !ok || !d.Location.IsValid() || d.Location.Line > file.NumberOfLines() {
		return
	}
	//
	line := file.Line(d.Location.Line)
	fmt.Fprintln(p.out, line)
	// Print indent, preserving tabs so that the highlight lines up.
	fmt.Fprint(p.out, indentation(line, d.Location.Column))
	// Print highlight
	highlight := strings.Repeat("^", highlightWidth(d))
	fmt.Fprintln(p.out, termio.Colourise(p.colour, severityEscape(d.Severity), highlight))
}

func severityEscape(severity Severity) termio.AnsiEscape {
	switch severity {
	case ERROR:
		return termio.NewAnsiEscape().Bold().FgColour(termio.TERM_RED)
	case WARNING:
		return termio.NewAnsiEscape().Bold().FgColour(termio.TERM_YELLOW)
	default:
		return termio.NewAnsiEscape().FgColour(termio.TERM_CYAN)
	}
}

func indentation(line string, column int) string {
	var builder strings.Builder
	//
	for i, c := range []rune(line) {
		if i >= column {
			break
		} else if c == '\t' {
			builder.WriteRune('\t')
		} else {
			builder.WriteRune(' ')
		}
	}
	//
	return builder.String()
}

func highlightWidth(d Diagnostic) int {
	if len(d.Tokens) == 0 {
		return 1
	}
	//
	return max(1, utf8.RuneCountInString(d.Tokens[0]))
}
