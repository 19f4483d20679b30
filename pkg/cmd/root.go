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
	"runtime/debug"

	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/spf13/cobra"
)

// Version is filled when building with "-ldflags -X", but *not* when installing
// via "go install".
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "go-mips",
	Short: "An assembler and linker for MIPS.",
	Long:  "An assembler, linker and general toolbox for MIPS assembly language.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("go-mips ")
			if Version != "" {
				// Built with an explicit version
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				// Built via "go install"
				fmt.Printf("%s", info.Main.Version)
			} else {
				// Unknown, perhaps "go run"
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
		} else {
			fmt.Println(cmd.UsageString())
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	var (
		arch   = isa.DEFAULT_VERSION
		endian = config.BIG
	)
	//
	rootCmd.Flags().Bool("version", false, "Report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("json", false, "report diagnostics as JSON log entries")
	rootCmd.PersistentFlags().StringP("config", "c", "", "read settings from a YAML file")
	rootCmd.PersistentFlags().Var(&arch, "arch", "select target architecture (mips1 ... mips32r6)")
	rootCmd.PersistentFlags().Var(&endian, "endian", "select byte order (big or little)")
	rootCmd.PersistentFlags().Bool("no-pseudo", false, "disable pseudo-instructions")
	rootCmd.PersistentFlags().Bool("werror", false, "treat warnings as errors")
	rootCmd.PersistentFlags().Uint32("text-base", config.DEFAULT_TEXT_BASE, "set address of text segment")
	rootCmd.PersistentFlags().Uint32("data-base", config.DEFAULT_DATA_BASE, "set address of data segment")
	rootCmd.PersistentFlags().String("entry", config.DEFAULT_ENTRY, "set entry symbol")
}
