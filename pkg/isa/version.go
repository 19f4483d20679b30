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
package isa

import (
	"fmt"
	"strings"
)

// Version identifies a revision of the instruction set architecture.  Versions
// are totally ordered, such that later versions generally extend earlier ones
// (though some instructions are removed again in release 6).
type Version uint8

const (
	// MIPS1 is the original instruction set.
	MIPS1 Version = iota
	// MIPS2 adds branch-likely, load-linked and trap instructions.
	MIPS2
	// MIPS3 is the first 64-bit revision (only its 32-bit subset is used here).
	MIPS3
	// MIPS4 adds conditional moves.
	MIPS4
	// MIPS32R1 is the first release of MIPS32.
	MIPS32R1
	// MIPS32R2 is the second release of MIPS32.
	MIPS32R2
	// MIPS32R6 is the sixth release of MIPS32, which removes a number of
	// legacy instructions.
	MIPS32R6
)

// LATEST is the most recent version known.
const LATEST = MIPS32R6

// DEFAULT_VERSION is the version assumed when none is specified.
const DEFAULT_VERSION = MIPS32R2

var versionNames = [...]string{"mips1", "mips2", "mips3", "mips4", "mips32r1", "mips32r2", "mips32r6"}

// ParseVersion parses a version from its textual name (ignoring case).
func ParseVersion(name string) (Version, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	//
	for i, n := range versionNames {
		if n == name {
			return Version(i), nil
		}
	}
	//
	return 0, fmt.Errorf("unknown architecture version \"%s\" (expected one of %s)", name,
		strings.Join(versionNames[:], ", "))
}

func (v Version) String() string {
	if int(v) < len(versionNames) {
		return versionNames[v]
	}
	//
	return fmt.Sprintf("version(%d)", uint8(v))
}

// MarshalText implementation for encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implementation for encoding.TextUnmarshaler, allowing versions
// to be read directly from configuration files.
func (v *Version) UnmarshalText(text []byte) error {
	version, err := ParseVersion(string(text))
	if err == nil {
		*v = version
	}
	//
	return err
}

// Set implementation for pflag.Value, allowing versions to be used directly as
// command-line flags.
func (v *Version) Set(text string) error {
	return v.UnmarshalText([]byte(text))
}

// Type implementation for pflag.Value.
func (v *Version) Type() string {
	return "version"
}
