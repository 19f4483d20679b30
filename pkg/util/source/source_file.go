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
package source

import (
	"fmt"
	"iter"
	"os"
	"strings"
	"unicode/utf8"
)

// ReadFiles reads a given set of source files, or produces an error.  Observe
// that an unreadable (or malformed) file is fatal, and is reported before any
// of the given files is processed further.
func ReadFiles(filenames ...string) ([]File, error) {
	files := make([]File, len(filenames))
	//
	for i, n := range filenames {
		bytes, err := os.ReadFile(n)
		if err != nil {
			return nil, err
		} else if !utf8.Valid(bytes) {
			return nil, fmt.Errorf("%s: source file is not valid UTF-8 text", n)
		}
		//
		files[i] = *NewSourceFile(n, bytes)
	}
	//
	return files, nil
}

// File represents a given source file (typically stored on disk), broken into
// its physical lines.
type File struct {
	// File name for this source file.
	filename string
	// Lines of this file, without their line terminators.
	lines []string
}

// NewSourceFile constructs a new source file from a given byte array.  Both
// "\n" and "\r\n" line terminators are accepted.
func NewSourceFile(filename string, bytes []byte) *File {
	text := strings.ReplaceAll(string(bytes), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	// A trailing terminator does not start another line
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	//
	return &File{filename, lines}
}

// Filename returns the filename associated with this source file.
func (s *File) Filename() string {
	return s.filename
}

// NumberOfLines returns the number of physical lines in this file.
func (s *File) NumberOfLines() int {
	return len(s.lines)
}

// Line returns the text of a given line (counting from 1), or the empty string
// if no such line exists.
func (s *File) Line(number int) string {
	if number < 1 || number > len(s.lines) {
		return ""
	}
	//
	return s.lines[number-1]
}

// Lines returns an iterator over the lines of this file, in order.  The
// iterator can be restarted, but each pass always begins from the first line.
func (s *File) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range s.lines {
			if !yield(l) {
				return
			}
		}
	}
}

// Location identifies a position within a source file.  Lines are counted from
// 1, whilst columns are character (not byte) indices counted from 0.
type Location struct {
	File   string
	Line   int
	Column int
}

// NewLocation constructs a new location.
func NewLocation(file string, line int, column int) Location {
	return Location{file, line, column}
}

// IsValid determines whether this location identifies an actual line.
func (p Location) IsValid() bool {
	return p.Line > 0
}

func (p Location) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column+1)
	}
	//
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column+1)
}
