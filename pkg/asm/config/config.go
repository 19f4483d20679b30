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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/consensys/go-mips/pkg/isa"
	"gopkg.in/yaml.v3"
)

// DEFAULT_TEXT_BASE is the default address of the text segment.
const DEFAULT_TEXT_BASE = 0x0040_0000

// DEFAULT_DATA_BASE is the default address of the data segment.
const DEFAULT_DATA_BASE = 0x1001_0000

// DEFAULT_ENTRY is the default entry symbol.
const DEFAULT_ENTRY = "main"

// Config captures the settings which affect assembling and linking.
type Config struct {
	// Architecture version to target
	Arch isa.Version `yaml:"arch"`
	// Whether pseudo-instructions are permitted
	Pseudo bool `yaml:"pseudo"`
	// Byte order of emitted words
	Endian Endian `yaml:"endian"`
	// Whether warnings are treated as errors
	Werror bool `yaml:"werror"`
	// Layout used when linking
	Link Link `yaml:"link"`
}

// Link captures the settings which affect linking only.
type Link struct {
	TextBase uint32 `yaml:"text-base"`
	DataBase uint32 `yaml:"data-base"`
	Entry    string `yaml:"entry"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Arch:   isa.DEFAULT_VERSION,
		Pseudo: true,
		Endian: BIG,
		Link:   Link{DEFAULT_TEXT_BASE, DEFAULT_DATA_BASE, DEFAULT_ENTRY},
	}
}

// Load reads a configuration file, where any setting not given in the file
// retains its default value.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	//
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	//
	return cfg, nil
}

// Parse a configuration from its YAML representation.  Unknown keys are
// rejected, since they are most likely typos.
func Parse(text []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(text))
	decoder.KnownFields(true)
	//
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	//
	return cfg, cfg.Validate()
}

// Validate checks this configuration is sensible.
func (c Config) Validate() error {
	switch {
	case c.Link.TextBase%4 != 0:
		return fmt.Errorf("text base %#x is not word aligned", c.Link.TextBase)
	case c.Link.DataBase%4 != 0:
		return fmt.Errorf("data base %#x is not word aligned", c.Link.DataBase)
	case c.Link.Entry == "":
		return errors.New("entry symbol cannot be empty")
	}
	//
	return nil
}

// Marshal returns the YAML representation of this configuration.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Endian determines the byte order of emitted words.
type Endian uint8

const (
	// BIG is big-endian (most significant byte first)
	BIG Endian = iota
	// LITTLE is little-endian (least significant byte first)
	LITTLE
)

// ByteOrder returns the corresponding byte order.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == LITTLE {
		return binary.LittleEndian
	}
	//
	return binary.BigEndian
}

func (e Endian) String() string {
	if e == LITTLE {
		return "little"
	}
	//
	return "big"
}

// MarshalText implementation for encoding.TextMarshaler.
func (e Endian) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implementation for encoding.TextUnmarshaler.
func (e *Endian) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "big", "be", "eb":
		*e = BIG
	case "little", "le", "el":
		*e = LITTLE
	default:
		return fmt.Errorf("unknown byte order \"%s\" (expected big or little)", string(text))
	}
	//
	return nil
}

// Set implementation for pflag.Value.
func (e *Endian) Set(text string) error {
	return e.UnmarshalText([]byte(text))
}

// Type implementation for pflag.Value.
func (e *Endian) Type() string {
	return "endian"
}
