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
package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] object_file",
	Short: "disassemble an object or executable file.",
	Long: `Disassemble the executable sections of an object (or executable) file.  For
	object files, addresses are section offsets and outstanding references are shown
	alongside the words they patch.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		configureLogging(cmd)
		//
		var (
			cfg   = getConfig(cmd)
			file  = readObjectFile(args[0])
			table = isa.NewTable(cfg.Arch)
		)
		//
		for _, section := range file.Module.Sections() {
			if section.Flags.Has(object.EXEC) && section.Len() > 0 {
				disassemble(file.Module, section, table)
			}
		}
	},
}

func disassemble(module *object.Module, section *object.Section, table *isa.Table) {
	var (
		labels     = make(map[int64][]string)
		references = make(map[int64][]object.Reference)
		base       = uint32(section.VirtualAddress)
	)
	//
	for _, sym := range module.Symbols() {
		if addr := sym.Address; addr.HasValue() && addr.Unwrap().Section == section.Name {
			labels[addr.Unwrap().Value] = append(labels[addr.Unwrap().Value], sym.Name)
		}
	}
	//
	for _, ref := range module.References() {
		if ref.Location.Section == section.Name {
			references[ref.Location.Value] = append(references[ref.Location.Value], ref)
		}
	}
	//
	fmt.Printf("Disassembly of section %s:\n", section.Name)
	//
	for offset := int64(0); offset+4 <= section.Len(); offset += 4 {
		word, err := module.ReadWord(object.Relative(section.Name, offset))
		if err != nil {
			panic(err)
		}
		//
		for _, label := range labels[offset] {
			fmt.Printf("%s:\n", label)
		}
		//
		pc := base + uint32(offset)
		fmt.Printf("%8x:  %08x  %s", pc, word, table.Disassemble(word, pc))
		//
		for _, ref := range references[offset] {
			fmt.Printf("  # %s", ref)
		}
		//
		fmt.Println()
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(disasmCmd)
}
