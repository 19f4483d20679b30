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
package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/util/assert"
)

func Test_Config_Default(t *testing.T) {
	cfg := Default()
	//
	assert.Equal(t, isa.MIPS32R2, cfg.Arch)
	assert.True(t, cfg.Pseudo)
	assert.Equal(t, binary.BigEndian, cfg.Endian.ByteOrder())
	assert.Equal(t, uint32(0x00400000), cfg.Link.TextBase)
	assert.Equal(t, uint32(0x10010000), cfg.Link.DataBase)
	assert.Equal(t, "main", cfg.Link.Entry)
	assert.NoError(t, cfg.Validate())
}

func Test_Config_Parse(t *testing.T) {
	text := `
arch: mips32r6
pseudo: false
endian: little
werror: true
link:
  text-base: 0x00001000
  entry: start
`
	cfg, err := Parse([]byte(text))
	assert.NoError(t, err)
	//
	assert.Equal(t, isa.MIPS32R6, cfg.Arch)
	assert.False(t, cfg.Pseudo)
	assert.Equal(t, LITTLE, cfg.Endian)
	assert.True(t, cfg.Werror)
	assert.Equal(t, uint32(0x1000), cfg.Link.TextBase)
	// Unspecified settings keep their defaults
	assert.Equal(t, uint32(DEFAULT_DATA_BASE), cfg.Link.DataBase)
	assert.Equal(t, "start", cfg.Link.Entry)
}

func Test_Config_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Config_Invalid(t *testing.T) {
	for _, text := range []string{
		"arch: mips99",
		"endian: middle",
		"unknown: 1",
		"link:\n  text-base: 0x1002",
		"link:\n  entry: \"\"",
	} {
		_, err := Parse([]byte(text))
		assert.True(t, err != nil, "%s should be rejected", text)
	}
}

func Test_Config_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Arch = isa.MIPS2
	cfg.Endian = LITTLE
	//
	bytes, err := cfg.Marshal()
	assert.NoError(t, err)
	//
	parsed, err := Parse(bytes)
	assert.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func Test_Config_Load(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "mips.yaml")
	assert.NoError(t, os.WriteFile(filename, []byte("arch: mips1\n"), 0o600))
	//
	cfg, err := Load(filename)
	assert.NoError(t, err)
	assert.Equal(t, isa.MIPS1, cfg.Arch)
	//
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, err != nil)
}

func Test_Endian_Flag(t *testing.T) {
	var e Endian
	//
	assert.NoError(t, e.Set("LE"))
	assert.Equal(t, LITTLE, e)
	assert.Equal(t, "endian", e.Type())
	assert.Equal(t, "little", e.String())
	assert.True(t, e.Set("pdp") != nil)
}
