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
	"path/filepath"

	"github.com/consensys/go-mips/pkg/asm/assembler"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util/termio"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] file",
	Short: "dump the contents of a module.",
	Long: `Print the sections, symbols and outstanding references of a module.  The module
	is either read from an object file or, for files ending in ".s", assembled from source.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		configureLogging(cmd)
		//
		var module *object.Module
		//
		if filepath.Ext(args[0]) == ".s" {
			files := readSourceFiles(args)
			module = assembler.NewAssembler(getConfig(cmd)).Assemble(&files[0], getLogger(cmd, files...))
		} else {
			module = readObjectFile(args[0]).Module
		}
		//
		printer := pp.New()
		printer.SetColoringEnabled(termio.IsTerminal(os.Stdout))
		printer.Println(newModuleView(module))
	},
}

// ModuleView is a flattened, printable summary of a module.
type ModuleView struct {
	Name       string
	Failed     bool
	Sections   []SectionView
	Symbols    []SymbolView
	References []ReferenceView
}

// SectionView summarises a single section.
type SectionView struct {
	Name    string
	Flags   string
	Size    int64
	Address string
}

// SymbolView summarises a single symbol.
type SymbolView struct {
	Name    string
	Type    string
	Binding string
	Address string
}

// ReferenceView summarises a single outstanding reference.
type ReferenceView struct {
	Location string
	Symbol   string
	Kind     string
	Addend   int64
}

func newModuleView(module *object.Module) ModuleView {
	view := ModuleView{Name: module.Name(), Failed: module.Failed()}
	//
	for _, s := range module.Sections() {
		view.Sections = append(view.Sections,
			SectionView{s.Name, s.Flags.String(), s.Len(), fmt.Sprintf("%#x", s.VirtualAddress)})
	}
	//
	for _, s := range module.Symbols() {
		address := "undefined"
		//
		if s.IsDefined() {
			address = s.Address.Unwrap().String()
		}
		//
		view.Symbols = append(view.Symbols, SymbolView{s.Name, s.Type.String(), s.Binding.String(), address})
	}
	//
	for _, r := range module.References() {
		view.References = append(view.References,
			ReferenceView{r.Location.String(), r.Symbol, r.Kind.String(), r.Addend})
	}
	//
	return view
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(dumpCmd)
}
